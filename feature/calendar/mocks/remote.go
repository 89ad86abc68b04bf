package mocks

import (
	"context"

	"timetable-sync/feature/calendar"

	"github.com/stretchr/testify/mock"
)

// Remote is a mock implementation of calendar.Remote
type Remote struct {
	mock.Mock
}

func (m *Remote) Insert(ctx context.Context, body calendar.Body) (string, error) {
	args := m.Called(ctx, body)
	return args.String(0), args.Error(1)
}

func (m *Remote) Get(ctx context.Context, id string) (calendar.Body, error) {
	args := m.Called(ctx, id)
	if b, ok := args.Get(0).(calendar.Body); ok {
		return b, args.Error(1)
	}
	return calendar.Body{}, args.Error(1)
}

func (m *Remote) Update(ctx context.Context, id string, body calendar.Body) error {
	args := m.Called(ctx, id, body)
	return args.Error(0)
}

func (m *Remote) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Remote) ListIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

// FlushingRemote is a Remote that also implements calendar.Flusher
type FlushingRemote struct {
	Remote
}

func (m *FlushingRemote) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
