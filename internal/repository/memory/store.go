// Package memory is a mutex-guarded implementation of the repository
// interfaces. It backs the service tests and the memory storage driver.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
)

// Store holds every table behind one lock. Records are copied in and out so
// callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	locations       map[uuid.UUID]model.LocationNode
	officers        map[uuid.UUID]model.Officer
	officerOrder    []uuid.UUID
	serviceTypes    map[uuid.UUID]model.ServiceType
	appointments    map[uuid.UUID]model.Appointment
	serviceRequests map[uuid.UUID]model.ServiceRequest
	complaints      map[uuid.UUID]model.Complaint
	notifications   map[uuid.UUID]model.Notification
	notifySeq       map[uuid.UUID]int
	outbox          map[uuid.UUID]model.OutboxEvent
	seq             int

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		locations:       make(map[uuid.UUID]model.LocationNode),
		officers:        make(map[uuid.UUID]model.Officer),
		serviceTypes:    make(map[uuid.UUID]model.ServiceType),
		appointments:    make(map[uuid.UUID]model.Appointment),
		serviceRequests: make(map[uuid.UUID]model.ServiceRequest),
		complaints:      make(map[uuid.UUID]model.Complaint),
		notifications:   make(map[uuid.UUID]model.Notification),
		notifySeq:       make(map[uuid.UUID]int),
		outbox:          make(map[uuid.UUID]model.OutboxEvent),
		now:             time.Now,
	}
}

// SetClock replaces the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Locations() repository.LocationRepository { return locationStore{s} }
func (s *Store) Officers() repository.OfficerRepository { return officerStore{s} }
func (s *Store) ServiceTypes() repository.ServiceTypeRepository { return serviceTypeStore{s} }
func (s *Store) Appointments() repository.AppointmentRepository { return appointmentStore{s} }
func (s *Store) ServiceRequests() repository.ServiceRequestRepository { return serviceRequestStore{s} }
func (s *Store) Complaints() repository.ComplaintRepository { return complaintStore{s} }
func (s *Store) Notifications() repository.NotificationRepository { return notificationStore{s} }
func (s *Store) Outbox() repository.OutboxRepository { return outboxStore{s} }

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func matches(filter model.RequestFilter, citizenID uuid.UUID, divisionID *uuid.UUID, status model.Status) bool {
	if filter.CitizenID != nil && *filter.CitizenID != citizenID {
		return false
	}
	if filter.DivisionID != nil && (divisionID == nil || *filter.DivisionID != *divisionID) {
		return false
	}
	if filter.Status != "" && filter.Status != status {
		return false
	}
	return true
}

func copyRemarks(remarks *string) *string {
	if remarks == nil {
		return nil
	}
	r := *remarks
	return &r
}

// locations

type locationStore struct{ *Store }

func (s locationStore) CreateLocation(_ context.Context, node *model.LocationNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&node.ID)
	node.CreatedAt = s.now()
	s.locations[node.ID] = *node
	return nil
}

func (s locationStore) GetLocation(_ context.Context, id uuid.UUID) (*model.LocationNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.locations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &node, nil
}

func (s locationStore) ListChildren(_ context.Context, parentID *uuid.UUID) ([]*model.LocationNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := make([]*model.LocationNode, 0)
	for _, node := range s.locations {
		node := node
		switch {
		case parentID == nil && node.ParentID == nil:
		case parentID != nil && node.ParentID != nil && *node.ParentID == *parentID:
		default:
			continue
		}
		nodes = append(nodes, &node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes, nil
}

// officers

type officerStore struct{ *Store }

func (s officerStore) Create(_ context.Context, officer *model.Officer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&officer.ID)
	officer.CreatedAt = s.now()
	if _, exists := s.officers[officer.ID]; !exists {
		s.officerOrder = append(s.officerOrder, officer.ID)
	}
	s.officers[officer.ID] = *officer
	return nil
}

func (s officerStore) Get(_ context.Context, id uuid.UUID) (*model.Officer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	officer, ok := s.officers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &officer, nil
}

func (s officerStore) ListActiveByDivision(_ context.Context, divisionID uuid.UUID) ([]*model.Officer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	officers := make([]*model.Officer, 0)
	for _, id := range s.officerOrder {
		officer := s.officers[id]
		if officer.DivisionID == divisionID && officer.Active {
			officers = append(officers, &officer)
		}
	}
	return officers, nil
}

func (s officerStore) List(_ context.Context) ([]*model.Officer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	officers := make([]*model.Officer, 0, len(s.officerOrder))
	for _, id := range s.officerOrder {
		officer := s.officers[id]
		officers = append(officers, &officer)
	}
	return officers, nil
}

func (s officerStore) CountActive(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, officer := range s.officers {
		if officer.Active {
			count++
		}
	}
	return count, nil
}

func (s officerStore) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	officer, ok := s.officers[id]
	if !ok {
		return repository.ErrNotFound
	}
	officer.Active = active
	s.officers[id] = officer
	return nil
}

// service types

type serviceTypeStore struct{ *Store }

func (s serviceTypeStore) Create(_ context.Context, st *model.ServiceType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&st.ID)
	s.serviceTypes[st.ID] = *st
	return nil
}

func (s serviceTypeStore) Get(_ context.Context, id uuid.UUID) (*model.ServiceType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.serviceTypes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (s serviceTypeStore) List(_ context.Context) ([]*model.ServiceType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]*model.ServiceType, 0, len(s.serviceTypes))
	for _, st := range s.serviceTypes {
		st := st
		types = append(types, &st)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types, nil
}

func (s serviceTypeStore) Update(_ context.Context, st *model.ServiceType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.serviceTypes[st.ID]; !ok {
		return repository.ErrNotFound
	}
	s.serviceTypes[st.ID] = *st
	return nil
}

func (s serviceTypeStore) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.serviceTypes[id]
	if !ok {
		return repository.ErrNotFound
	}
	st.Active = active
	s.serviceTypes[id] = st
	return nil
}
