package sync

import (
	"context"
	"fmt"

	cal "github.com/calsweep/calsweep/pkg/calendar"
)

// StubEventStore is an in-memory EventStore used by tests in this package
// and by consumers wiring the syncer without a live calendar backend.
type StubEventStore struct {
	Events     map[string]cal.Event
	ListErr    error
	InsertErr  error
	DeleteErr  error
	FailCreate map[string]bool

	InsertCalls [][]cal.Event
	DeleteCalls [][]string

	nextId int
}

func NewStubEventStore() *StubEventStore {
	return &StubEventStore{
		Events:     map[string]cal.Event{},
		FailCreate: map[string]bool{},
	}
}

func (s *StubEventStore) ListEvents(_ context.Context, _ cal.TimeWindow) ([]cal.StoredEvent, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make([]cal.StoredEvent, 0, len(s.Events))
	for id, e := range s.Events {
		out = append(out, cal.StoredEvent{Event: e, Id: id})
	}
	return out, nil
}

func (s *StubEventStore) BatchInsert(_ context.Context, events []cal.Event) ([]string, error) {
	s.InsertCalls = append(s.InsertCalls, events)
	if s.InsertErr != nil {
		return make([]string, len(events)), s.InsertErr
	}
	ids := make([]string, len(events))
	for i, e := range events {
		if s.FailCreate[e.Summary] {
			continue
		}
		s.nextId++
		id := fmt.Sprintf("evt-%d", s.nextId)
		s.Events[id] = e
		ids[i] = id
	}
	return ids, nil
}

func (s *StubEventStore) BatchDelete(_ context.Context, eventIds []string) (int, error) {
	s.DeleteCalls = append(s.DeleteCalls, eventIds)
	if s.DeleteErr != nil {
		return 0, s.DeleteErr
	}
	deleted := 0
	for _, id := range eventIds {
		delete(s.Events, id)
		deleted++
	}
	return deleted, nil
}

// StubEventStoreProvider maps calendar ids to stub stores.
type StubEventStoreProvider struct {
	Stores map[string]*StubEventStore
	Err    error
}

func NewStubEventStoreProvider() *StubEventStoreProvider {
	return &StubEventStoreProvider{Stores: map[string]*StubEventStore{}}
}

func (p *StubEventStoreProvider) GetStore(_ context.Context, calendarId string) (EventStore, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	store, ok := p.Stores[calendarId]
	if !ok {
		store = NewStubEventStore()
		p.Stores[calendarId] = store
	}
	return store, nil
}
