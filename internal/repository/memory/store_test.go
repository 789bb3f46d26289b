package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
)

type StoreSuite struct {
	suite.Suite
	ctx     context.Context
	store   *Store
	officer uuid.UUID
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewStore()
	s.officer = uuid.New()
}

func (s *StoreSuite) appointment(date, start, end string) *model.Appointment {
	return &model.Appointment{
		CitizenID:  uuid.New(),
		OfficerID:  s.officer,
		DivisionID: uuid.New(),
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		Status:     model.StatusPending,
	}
}

func (s *StoreSuite) TestListChildrenDistinguishesRoots() {
	locations := s.store.Locations()
	western := &model.LocationNode{Name: "Western", Level: model.LevelProvince}
	s.Require().NoError(locations.CreateLocation(s.ctx, western))
	colombo := &model.LocationNode{Name: "Colombo", Level: model.LevelDistrict, ParentID: &western.ID}
	s.Require().NoError(locations.CreateLocation(s.ctx, colombo))

	roots, err := locations.ListChildren(s.ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(roots, 1)
	s.Equal("Western", roots[0].Name)

	children, err := locations.ListChildren(s.ctx, &western.ID)
	s.Require().NoError(err)
	s.Require().Len(children, 1)
	s.Equal(colombo.ID, children[0].ID)

	empty, err := locations.ListChildren(s.ctx, &colombo.ID)
	s.Require().NoError(err)
	s.Empty(empty)

	_, err = locations.GetLocation(s.ctx, uuid.New())
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *StoreSuite) TestOfficersKeepInsertionOrder() {
	officers := s.store.Officers()
	division := uuid.New()
	names := []string{"Zeta", "Alpha", "Mu"}
	for _, name := range names {
		s.Require().NoError(officers.Create(s.ctx, &model.Officer{FullName: name, DivisionID: division, Active: true}))
	}

	list, err := officers.ListActiveByDivision(s.ctx, division)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	for i, name := range names {
		s.Equal(name, list[i].FullName)
	}

	s.Require().NoError(officers.SetActive(s.ctx, list[0].ID, false))
	list, err = officers.ListActiveByDivision(s.ctx, division)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("Alpha", list[0].FullName)

	s.ErrorIs(officers.SetActive(s.ctx, uuid.New(), false), repository.ErrNotFound)

	all, err := officers.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("Zeta", all[0].FullName)
	s.False(all[0].Active)

	active, err := officers.CountActive(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, active)
}

func (s *StoreSuite) TestServiceTypeActivation() {
	types := s.store.ServiceTypes()
	st := &model.ServiceType{Name: "Birth certificate", Active: true}
	s.Require().NoError(types.Create(s.ctx, st))

	s.Require().NoError(types.SetActive(s.ctx, st.ID, false))
	got, err := types.Get(s.ctx, st.ID)
	s.Require().NoError(err)
	s.False(got.Active)

	got.Name = "Birth certificate copy"
	got.Active = true
	s.Require().NoError(types.Update(s.ctx, got))
	list, err := types.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Birth certificate copy", list[0].Name)
	s.True(list[0].Active)

	s.ErrorIs(types.SetActive(s.ctx, uuid.New(), false), repository.ErrNotFound)
	s.ErrorIs(types.Update(s.ctx, &model.ServiceType{ID: uuid.New(), Name: "ghost"}), repository.ErrNotFound)
}

func (s *StoreSuite) TestBookRejectsOverlap() {
	apts := s.store.Appointments()
	s.Require().NoError(apts.Book(s.ctx, s.appointment("2026-02-20", "09:00", "09:30")))

	s.ErrorIs(apts.Book(s.ctx, s.appointment("2026-02-20", "09:00", "09:30")), repository.ErrConflict)
	s.ErrorIs(apts.Book(s.ctx, s.appointment("2026-02-20", "09:15", "09:45")), repository.ErrConflict)

	// Adjacent and other-day bookings do not collide.
	s.NoError(apts.Book(s.ctx, s.appointment("2026-02-20", "09:30", "10:00")))
	s.NoError(apts.Book(s.ctx, s.appointment("2026-02-21", "09:00", "09:30")))
}

func (s *StoreSuite) TestTerminalAppointmentFreesSlot() {
	apts := s.store.Appointments()
	first := s.appointment("2026-02-20", "10:00", "10:30")
	s.Require().NoError(apts.Book(s.ctx, first))

	remarks := "officer unavailable"
	s.Require().NoError(apts.CompareAndSetStatus(s.ctx, first.ID, model.StatusPending, model.StatusRejected, &remarks))

	live, err := apts.ListLive(s.ctx, s.officer, "2026-02-20")
	s.Require().NoError(err)
	s.Empty(live)

	s.NoError(apts.Book(s.ctx, s.appointment("2026-02-20", "10:00", "10:30")))
}

func (s *StoreSuite) TestConcurrentBookingHasOneWinner() {
	apts := s.store.Appointments()
	const n = 20

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := apts.Book(s.ctx, s.appointment("2026-02-20", "11:00", "11:30"))
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				successes++
			case repository.ErrConflict:
				conflicts++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, successes)
	s.Equal(n-1, conflicts)
}

func (s *StoreSuite) TestCompareAndSetStatus() {
	reqs := s.store.ServiceRequests()
	req := &model.ServiceRequest{CitizenID: uuid.New(), DivisionID: uuid.New(), Status: model.StatusPending}
	s.Require().NoError(reqs.Create(s.ctx, req))

	s.Require().NoError(reqs.CompareAndSetStatus(s.ctx, req.ID, model.StatusPending, model.StatusInProgress, nil))
	s.ErrorIs(reqs.CompareAndSetStatus(s.ctx, req.ID, model.StatusPending, model.StatusAccepted, nil), repository.ErrStaleStatus)
	s.ErrorIs(reqs.CompareAndSetStatus(s.ctx, uuid.New(), model.StatusPending, model.StatusAccepted, nil), repository.ErrNotFound)

	got, err := reqs.Get(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(model.StatusInProgress, got.Status)
}

func (s *StoreSuite) TestDeleteIfPending() {
	reqs := s.store.ServiceRequests()
	pending := &model.ServiceRequest{CitizenID: uuid.New(), DivisionID: uuid.New(), Status: model.StatusPending}
	started := &model.ServiceRequest{CitizenID: uuid.New(), DivisionID: uuid.New(), Status: model.StatusInProgress}
	s.Require().NoError(reqs.Create(s.ctx, pending))
	s.Require().NoError(reqs.Create(s.ctx, started))

	s.NoError(reqs.DeleteIfPending(s.ctx, pending.ID))
	s.ErrorIs(reqs.DeleteIfPending(s.ctx, pending.ID), repository.ErrNotFound)
	s.ErrorIs(reqs.DeleteIfPending(s.ctx, started.ID), repository.ErrStaleStatus)
}

func (s *StoreSuite) TestCountByStatusHonoursFilter() {
	reqs := s.store.ServiceRequests()
	division := uuid.New()
	citizen := uuid.New()
	s.Require().NoError(reqs.Create(s.ctx, &model.ServiceRequest{CitizenID: citizen, DivisionID: division, Status: model.StatusPending}))
	s.Require().NoError(reqs.Create(s.ctx, &model.ServiceRequest{CitizenID: citizen, DivisionID: division, Status: model.StatusCompleted}))
	s.Require().NoError(reqs.Create(s.ctx, &model.ServiceRequest{CitizenID: uuid.New(), DivisionID: uuid.New(), Status: model.StatusPending}))

	counts, err := reqs.CountByStatus(s.ctx, model.RequestFilter{DivisionID: &division})
	s.Require().NoError(err)
	s.Equal(1, counts[model.StatusPending])
	s.Equal(1, counts[model.StatusCompleted])
	s.Equal(0, counts[model.StatusRejected])
	s.Equal(2, counts.Total())

	complaints := s.store.Complaints()
	s.Require().NoError(complaints.Create(s.ctx, &model.Complaint{CitizenID: citizen, Title: "a", Description: "a", Status: model.StatusPending}))
	s.Require().NoError(complaints.Create(s.ctx, &model.Complaint{CitizenID: uuid.New(), Title: "b", Description: "b", Status: model.StatusAccepted}))

	counts, err = complaints.CountByStatus(s.ctx, model.RequestFilter{CitizenID: &citizen, DivisionID: &division})
	s.Require().NoError(err)
	s.Equal(1, counts[model.StatusPending])
	s.Equal(1, counts.Total())

	counts, err = complaints.CountByStatus(s.ctx, model.RequestFilter{})
	s.Require().NoError(err)
	s.Equal(2, counts.Total())
}

func (s *StoreSuite) TestNotificationsNewestFirst() {
	notifications := s.store.Notifications()
	user := uuid.New()
	base := time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)
	for i, msg := range []string{"first", "second", "third"} {
		s.Require().NoError(notifications.Create(s.ctx, &model.Notification{
			RecipientUserID: user,
			Message:         msg,
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := notifications.ListByRecipient(s.ctx, user, nil, 10)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("third", list[0].Message)
	s.Equal("first", list[2].Message)

	count, err := notifications.CountUnread(s.ctx, user)
	s.Require().NoError(err)
	s.Equal(3, count)

	page, err := notifications.ListByRecipient(s.ctx, user, &list[0].ID, 1)
	s.Require().NoError(err)
	s.Require().Len(page, 1)
	s.Equal("second", page[0].Message)

	page, err = notifications.ListByRecipient(s.ctx, user, &list[2].ID, 10)
	s.Require().NoError(err)
	s.Empty(page)

	missing := uuid.New()
	_, err = notifications.ListByRecipient(s.ctx, user, &missing, 10)
	s.ErrorIs(err, repository.ErrNotFound)

	s.Require().NoError(notifications.MarkRead(s.ctx, list[0].ID, base))
	s.Require().NoError(notifications.MarkRead(s.ctx, list[0].ID, base.Add(time.Hour)))

	got, err := notifications.Get(s.ctx, list[0].ID)
	s.Require().NoError(err)
	s.True(got.Read)
	s.Equal(base, *got.ReadAt)

	count, err = notifications.CountUnread(s.ctx, user)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *StoreSuite) TestOutboxClaimRecordsResults() {
	outbox := s.store.Outbox()
	s.Require().NoError(outbox.Create(s.ctx, &model.OutboxEvent{EventType: model.EventNotificationCreated, Payload: []byte(`{}`)}))
	s.Require().NoError(outbox.Create(s.ctx, &model.OutboxEvent{EventType: model.EventNotificationCreated, Payload: []byte(`{}`)}))

	msg := "redis down"
	err := outbox.ClaimPending(s.ctx, 10, func(events []*model.OutboxEvent) []repository.OutboxResult {
		s.Require().Len(events, 2)
		return []repository.OutboxResult{
			{ID: events[0].ID, Status: model.OutboxStatusProcessed},
			{ID: events[1].ID, Status: model.OutboxStatusPending, Err: &msg},
		}
	})
	s.Require().NoError(err)

	var processed, retrying int
	for _, e := range s.store.OutboxEvents() {
		switch e.Status {
		case model.OutboxStatusProcessed:
			processed++
			s.NotNil(e.ProcessedAt)
		case model.OutboxStatusPending:
			retrying++
			s.Equal(1, e.RetryCount)
		}
	}
	s.Equal(1, processed)
	s.Equal(1, retrying)

	deleted, err := outbox.DeleteProcessedBefore(s.ctx, time.Now().Add(time.Minute))
	s.Require().NoError(err)
	s.EqualValues(1, deleted)
}
