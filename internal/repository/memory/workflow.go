package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
)

// appointments

type appointmentStore struct{ *Store }

// Book holds the write lock across the overlap check and the insert.
func (s appointmentStore) Book(_ context.Context, apt *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.appointments {
		if existing.OfficerID != apt.OfficerID || existing.Date != apt.Date || existing.Status.IsTerminal() {
			continue
		}
		if existing.Overlaps(apt.StartTime, apt.EndTime) {
			return repository.ErrConflict
		}
	}

	ensureID(&apt.ID)
	now := s.now()
	apt.CreatedAt = now
	apt.UpdatedAt = now
	s.appointments[apt.ID] = *apt
	return nil
}

func (s appointmentStore) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apt, ok := s.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	apt.StatusRemarks = copyRemarks(apt.StatusRemarks)
	return &apt, nil
}

func (s appointmentStore) ListLive(_ context.Context, officerID uuid.UUID, date string) ([]*model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apts := make([]*model.Appointment, 0)
	for _, apt := range s.appointments {
		apt := apt
		if apt.OfficerID == officerID && apt.Date == date && !apt.Status.IsTerminal() {
			apts = append(apts, &apt)
		}
	}
	sort.Slice(apts, func(i, j int) bool { return apts[i].StartTime < apts[j].StartTime })
	return apts, nil
}

func (s appointmentStore) List(_ context.Context, filter model.RequestFilter) ([]*model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apts := make([]*model.Appointment, 0)
	for _, apt := range s.appointments {
		apt := apt
		division := apt.DivisionID
		if matches(filter, apt.CitizenID, &division, apt.Status) {
			apts = append(apts, &apt)
		}
	}
	sort.Slice(apts, func(i, j int) bool { return apts[i].CreatedAt.After(apts[j].CreatedAt) })
	return apts, nil
}

func (s appointmentStore) GetSubject(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	apt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	subject := apt.Subject()
	return &subject, nil
}

func (s appointmentStore) CompareAndSetStatus(_ context.Context, id uuid.UUID, from, to model.Status, remarks *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	apt, ok := s.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if apt.Status != from {
		return repository.ErrStaleStatus
	}
	apt.Status = to
	if remarks != nil {
		apt.StatusRemarks = copyRemarks(remarks)
	}
	apt.UpdatedAt = s.now()
	s.appointments[id] = apt
	return nil
}

// service requests

type serviceRequestStore struct{ *Store }

func (s serviceRequestStore) Create(_ context.Context, req *model.ServiceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&req.ID)
	now := s.now()
	req.CreatedAt = now
	req.UpdatedAt = now
	s.serviceRequests[req.ID] = *req
	return nil
}

func (s serviceRequestStore) Get(_ context.Context, id uuid.UUID) (*model.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.serviceRequests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	req.StatusRemarks = copyRemarks(req.StatusRemarks)
	return &req, nil
}

func (s serviceRequestStore) List(_ context.Context, filter model.RequestFilter) ([]*model.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reqs := make([]*model.ServiceRequest, 0)
	for _, req := range s.serviceRequests {
		req := req
		division := req.DivisionID
		if matches(filter, req.CitizenID, &division, req.Status) {
			reqs = append(reqs, &req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
	return reqs, nil
}

func (s serviceRequestStore) CountByStatus(_ context.Context, filter model.RequestFilter) (model.StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(model.StatusCounts, len(model.AllStatuses))
	for _, st := range model.AllStatuses {
		counts[st] = 0
	}
	for _, req := range s.serviceRequests {
		division := req.DivisionID
		if matches(filter, req.CitizenID, &division, req.Status) {
			counts[req.Status]++
		}
	}
	return counts, nil
}

func (s serviceRequestStore) DeleteIfPending(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.serviceRequests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if req.Status != model.StatusPending {
		return repository.ErrStaleStatus
	}
	delete(s.serviceRequests, id)
	return nil
}

func (s serviceRequestStore) GetSubject(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	subject := req.Subject()
	return &subject, nil
}

func (s serviceRequestStore) CompareAndSetStatus(_ context.Context, id uuid.UUID, from, to model.Status, remarks *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.serviceRequests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if req.Status != from {
		return repository.ErrStaleStatus
	}
	req.Status = to
	if remarks != nil {
		req.StatusRemarks = copyRemarks(remarks)
	}
	req.UpdatedAt = s.now()
	s.serviceRequests[id] = req
	return nil
}

// complaints

type complaintStore struct{ *Store }

func (s complaintStore) Create(_ context.Context, c *model.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&c.ID)
	now := s.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.complaints[c.ID] = *c
	return nil
}

func (s complaintStore) Get(_ context.Context, id uuid.UUID) (*model.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.complaints[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.StatusRemarks = copyRemarks(c.StatusRemarks)
	return &c, nil
}

func (s complaintStore) List(_ context.Context, filter model.RequestFilter) ([]*model.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	filter.DivisionID = nil
	complaints := make([]*model.Complaint, 0)
	for _, c := range s.complaints {
		c := c
		if matches(filter, c.CitizenID, nil, c.Status) {
			complaints = append(complaints, &c)
		}
	}
	sort.Slice(complaints, func(i, j int) bool { return complaints[i].CreatedAt.After(complaints[j].CreatedAt) })
	return complaints, nil
}

func (s complaintStore) CountByStatus(_ context.Context, filter model.RequestFilter) (model.StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	filter.DivisionID = nil
	counts := make(model.StatusCounts, len(model.AllStatuses))
	for _, st := range model.AllStatuses {
		counts[st] = 0
	}
	for _, c := range s.complaints {
		if matches(filter, c.CitizenID, nil, c.Status) {
			counts[c.Status]++
		}
	}
	return counts, nil
}

func (s complaintStore) GetSubject(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	subject := c.Subject()
	return &subject, nil
}

func (s complaintStore) CompareAndSetStatus(_ context.Context, id uuid.UUID, from, to model.Status, remarks *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[id]
	if !ok {
		return repository.ErrNotFound
	}
	if c.Status != from {
		return repository.ErrStaleStatus
	}
	c.Status = to
	if remarks != nil {
		c.StatusRemarks = copyRemarks(remarks)
	}
	c.UpdatedAt = s.now()
	s.complaints[id] = c
	return nil
}
