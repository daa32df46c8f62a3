package core_test

import (
	"sync"

	"github.com/timada-org/reelay/internal/core"
)

type fakeSession struct {
	id     string
	userID string

	mux      sync.Mutex
	events   []*core.Event
	closed   int
	sendErr  error
	onClosed func()
}

func newFakeSession(id string, userID string) *fakeSession {
	return &fakeSession{id: id, userID: userID}
}

func (s *fakeSession) ID() string {
	return s.id
}

func (s *fakeSession) UserID() string {
	return s.userID
}

func (s *fakeSession) Send(e *core.Event) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.sendErr != nil {
		return s.sendErr
	}

	s.events = append(s.events, e)

	return nil
}

func (s *fakeSession) Close() {
	s.mux.Lock()
	s.closed++
	onClosed := s.onClosed
	s.mux.Unlock()

	if onClosed != nil {
		onClosed()
	}
}

func (s *fakeSession) received() []*core.Event {
	s.mux.Lock()
	defer s.mux.Unlock()

	return append([]*core.Event(nil), s.events...)
}

func (s *fakeSession) closeCount() int {
	s.mux.Lock()
	defer s.mux.Unlock()

	return s.closed
}
