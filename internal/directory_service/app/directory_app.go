package app

import (
	"context"
	"log/slog"

	"github.com/rsp2k/usecallmanager-services/internal/ami"
	"github.com/rsp2k/usecallmanager-services/internal/directory_service/domain"
)

// Service fetches the local directory from the manager's voicemail users.
// Entries are fetched fresh per request: a cross-request cache would
// trade a cheap listing query for stale-directory bugs.
type Service struct {
	runner ami.Runner
	logger *slog.Logger
}

// NewService creates a directory Service.
func NewService(runner ami.Runner, logger *slog.Logger) *Service {
	return &Service{
		runner: runner,
		logger: logger,
	}
}

// Entries queries all voicemail users and maps them to directory entries,
// in standard sort order.
func (s *Service) Entries(ctx context.Context) ([]domain.Entry, error) {
	var users []ami.VoicemailUser
	err := s.runner.Do(ctx, func(q ami.Querier) error {
		var qerr error
		users, qerr = q.VoicemailUsers(ctx)
		return qerr
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "directory query failed", "error", err)
		return nil, err
	}

	entries := make([]domain.Entry, 0, len(users))
	for _, u := range users {
		entries = append(entries, domain.Entry{
			Extension: u.Mailbox,
			Name:      u.Fullname,
			Email:     u.Email,
		})
	}
	sortEntries(entries)
	return entries, nil
}

// Indexed fetches entries and builds the keypad index over them.
func (s *Service) Indexed(ctx context.Context) (*Index, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return BuildIndex(entries), nil
}
