package app

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rsp2k/usecallmanager-services/internal/ami"
)

// --- Mocks ---

type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) VoicemailUsers(ctx context.Context) ([]ami.VoicemailUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ami.VoicemailUser), args.Error(1)
}

func (m *MockQuerier) ParkedCalls(ctx context.Context) ([]ami.ParkedCall, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ami.ParkedCall), args.Error(1)
}

func (m *MockQuerier) SIPPeers(ctx context.Context) ([]ami.PeerEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ami.PeerEntry), args.Error(1)
}

func (m *MockQuerier) ShowPeer(ctx context.Context, peer string) (*ami.PeerDetail, error) {
	args := m.Called(ctx, peer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ami.PeerDetail), args.Error(1)
}

// queryRunner runs fn directly against the mock, standing in for a pool.
type queryRunner struct {
	q ami.Querier
}

func (r queryRunner) Do(ctx context.Context, fn func(ami.Querier) error) error {
	return fn(r.q)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestServiceEntries(t *testing.T) {
	q := new(MockQuerier)
	q.On("VoicemailUsers", mock.Anything).Return([]ami.VoicemailUser{
		{Mailbox: "102", Fullname: "Carol Chen"},
		{Mailbox: "100", Fullname: "Alice Anderson", Email: "alice@example.com"},
		{Mailbox: "101", Fullname: "Bob Brown"},
	}, nil)

	svc := NewService(queryRunner{q}, discardLogger())
	entries, err := svc.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"Alice Anderson", "Bob Brown", "Carol Chen"}, entryNames(entries))
	assert.Equal(t, "alice@example.com", entries[0].Email)
	q.AssertExpectations(t)
}

func TestServiceEntriesQueryFailure(t *testing.T) {
	q := new(MockQuerier)
	q.On("VoicemailUsers", mock.Anything).Return(nil, ami.ErrConnection)

	svc := NewService(queryRunner{q}, discardLogger())
	_, err := svc.Entries(context.Background())
	assert.True(t, errors.Is(err, ami.ErrConnection))
}

func TestServiceIndexed(t *testing.T) {
	q := new(MockQuerier)
	q.On("VoicemailUsers", mock.Anything).Return([]ami.VoicemailUser{
		{Mailbox: "100", Fullname: "Alice Anderson"},
		{Mailbox: "104", Fullname: "12345"}, // no letter, excluded from the index
	}, nil)

	svc := NewService(queryRunner{q}, discardLogger())
	idx, err := svc.Indexed(context.Background())
	require.NoError(t, err)

	got, err := idx.Lookup("2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice Anderson"}, entryNames(got))
}
