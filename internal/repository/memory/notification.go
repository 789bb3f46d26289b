package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
)

type notificationStore struct{ *Store }

func (s notificationStore) Create(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureID(&n.ID)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	s.seq++
	s.notifySeq[n.ID] = s.seq
	s.notifications[n.ID] = *n
	return nil
}

func (s notificationStore) Get(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &n, nil
}

// ListByRecipient orders newest first, breaking timestamp ties by insertion order.
func (s notificationStore) ListByRecipient(_ context.Context, userID uuid.UUID, before *uuid.UUID, limit int) ([]*model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*model.Notification, 0)
	for _, n := range s.notifications {
		n := n
		if n.RecipientUserID == userID {
			list = append(list, &n)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return s.notifySeq[list[i].ID] > s.notifySeq[list[j].ID]
	})
	if before != nil {
		cursor := -1
		for i, n := range list {
			if n.ID == *before {
				cursor = i
				break
			}
		}
		if cursor < 0 {
			return nil, repository.ErrNotFound
		}
		list = list[cursor+1:]
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s notificationStore) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.RecipientUserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s notificationStore) MarkRead(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !n.Read {
		n.Read = true
		n.ReadAt = &at
		s.notifications[id] = n
	}
	return nil
}

// outbox

type outboxStore struct{ *Store }

func (s outboxStore) Create(_ context.Context, event *model.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.ID = uuid.New()
	event.CreatedAt = s.now()
	event.UpdatedAt = event.CreatedAt
	event.Status = model.OutboxStatusPending
	s.outbox[event.ID] = *event
	return nil
}

// ClaimPending runs fn under the write lock, so claims never overlap.
func (s outboxStore) ClaimPending(_ context.Context, limit int, fn func([]*model.OutboxEvent) []repository.OutboxResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]*model.OutboxEvent, 0)
	for _, e := range s.outbox {
		e := e
		if e.Status == model.OutboxStatusPending {
			pending = append(pending, &e)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.Before(pending[j].CreatedAt) })
	if len(pending) > limit {
		pending = pending[:limit]
	}
	if len(pending) == 0 {
		return nil
	}

	now := s.now()
	for _, res := range fn(pending) {
		e, ok := s.outbox[res.ID]
		if !ok {
			continue
		}
		e.Status = res.Status
		e.ErrorMessage = res.Err
		if res.Err != nil {
			e.RetryCount++
		}
		if res.Status == model.OutboxStatusProcessed {
			e.ProcessedAt = &now
		}
		e.UpdatedAt = now
		s.outbox[res.ID] = e
	}
	return nil
}

func (s outboxStore) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, e := range s.outbox {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(s.outbox, id)
			deleted++
		}
	}
	return deleted, nil
}

// OutboxEvents returns a snapshot of every outbox row, oldest first.
func (s *Store) OutboxEvents() []model.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]model.OutboxEvent, 0, len(s.outbox))
	for _, e := range s.outbox {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.Before(events[j].CreatedAt) })
	return events
}
