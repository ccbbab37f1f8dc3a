package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rsp2k/usecallmanager-services/internal/ami"
	"github.com/rsp2k/usecallmanager-services/internal/report_service/domain"
)

// Store is the append-only report writer collaborator. The capture
// service hands it finished records; it owns persistence.
type Store interface {
	AppendQuality(report domain.QualityReport) error
}

// CaptureService performs the two-step manager query behind a quality
// report: list the registered peers to find the device's entry, then
// fetch that peer's live session detail. The two steps are one atomic
// operation on one exclusive connection.
type CaptureService struct {
	runner ami.Runner
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewCaptureService creates a CaptureService.
func NewCaptureService(runner ami.Runner, store Store, logger *slog.Logger) *CaptureService {
	return &CaptureService{
		runner: runner,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Capture builds and stores a timestamped quality report for the device.
// An unregistered device fails with ErrDeviceNotFound and produces no
// record. The whole two-step query is retried exactly once, on a fresh
// connection, when the first attempt dies to a transport failure; it is
// never retried for business-level failures.
func (s *CaptureService) Capture(ctx context.Context, device, reasonCode string) (*domain.QualityReport, error) {
	if !domain.ValidDeviceName(device) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDeviceName, device)
	}
	reasonText, err := domain.ReasonText(reasonCode)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, reasonCode)
	}

	detail, err := s.lookupSession(ctx, device)
	if err != nil && (errors.Is(err, ami.ErrConnection) || errors.Is(err, ami.ErrTimeout)) {
		s.logger.WarnContext(ctx, "quality capture retrying on fresh connection", "device", device, "error", err)
		detail, err = s.lookupSession(ctx, device)
	}
	if err != nil {
		return nil, err
	}

	report := domain.QualityReport{
		Timestamp: s.now(),
		Device:    device,
		IPAddress: detail.IPAddress,
		Status:    detail.Status,
		Reason:    reasonText,
		RTPRxStat: detail.RTPRxStat,
		RTPTxStat: detail.RTPTxStat,
	}
	if err := s.store.AppendQuality(report); err != nil {
		return nil, fmt.Errorf("store quality report: %w", err)
	}

	s.logger.InfoContext(ctx, "quality report captured",
		"device", device, "reason", reasonText, "peer_status", detail.Status)
	return &report, nil
}

// lookupSession runs both queries on one exclusive connection so no
// other command can interleave between them.
func (s *CaptureService) lookupSession(ctx context.Context, device string) (*ami.PeerDetail, error) {
	var detail *ami.PeerDetail
	err := s.runner.Do(ctx, func(q ami.Querier) error {
		peers, err := q.SIPPeers(ctx)
		if err != nil {
			return err
		}
		var peer *ami.PeerEntry
		for i := range peers {
			if strings.EqualFold(peers[i].DeviceName, device) {
				peer = &peers[i]
				break
			}
		}
		if peer == nil {
			return fmt.Errorf("%w: %s", domain.ErrDeviceNotFound, device)
		}
		detail, err = q.ShowPeer(ctx, peer.Name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}
