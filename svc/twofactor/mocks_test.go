package twofactor_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/eventplanner/twofactor/svc/twofactor"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetByID(ctx context.Context, id uuid.UUID) (*twofactor.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*twofactor.Record), args.Error(1)
}

func (m *MockStorage) GetByEmail(ctx context.Context, email string) (*twofactor.Record, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*twofactor.Record), args.Error(1)
}

func (m *MockStorage) Update(ctx context.Context, rec *twofactor.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type MockAttemptLimiter struct {
	mock.Mock
}

func (m *MockAttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptLimiter) RecordFailure(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockAttemptLimiter) Reset(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// chanNotifier forwards notices to a channel so tests can wait for the async send.
type chanNotifier struct {
	ch chan twofactor.Notification
}

func (n *chanNotifier) Notify(_ context.Context, note twofactor.Notification) error {
	n.ch <- note
	return nil
}
