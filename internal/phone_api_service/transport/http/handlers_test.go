package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

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

// --- Request helpers ---

type routeRegistrar interface {
	RegisterRoutes(r chi.Router)
}

func serve(h routeRegistrar, req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func phoneRequest(method, target, model string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if model != "" {
		req.Header.Set(modelHeader, model)
	}
	return req
}
