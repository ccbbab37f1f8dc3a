// Package filestore implements the append-only report storage the
// capture service hands records to. The on-disk layout is the contract
// consumed by external tooling: one qrt-<device>.json JSON-lines file
// per device, and one prt-<device>-<timestamp>.tar.gz archive per
// problem report upload.
package filestore

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rsp2k/usecallmanager-services/internal/report_service/domain"
)

const timestampLayout = "2006-01-02 15:04:05"
const archiveStampLayout = "20060102150405"

// Store reads and writes report files under one directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a Store rooted at dir, creating it if needed.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// qualityLine is the JSON-lines wire form of one quality report entry.
type qualityLine struct {
	Timestamp string `json:"timestamp"`
	IPAddress string `json:"ip_address"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
	RTPRxStat string `json:"rtp_rx_stat"`
	RTPTxStat string `json:"rtp_tx_stat"`
}

func (s *Store) qualityPath(device string) string {
	return filepath.Join(s.dir, "qrt-"+device+".json")
}

// AppendQuality appends one report line to the device's QRT file.
func (s *Store) AppendQuality(report domain.QualityReport) error {
	if !domain.ValidDeviceName(report.Device) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidDeviceName, report.Device)
	}

	line, err := json.Marshal(qualityLine{
		Timestamp: report.Timestamp.Format(timestampLayout),
		IPAddress: report.IPAddress,
		Status:    report.Status,
		Reason:    report.Reason,
		RTPRxStat: report.RTPRxStat,
		RTPTxStat: report.RTPTxStat,
	})
	if err != nil {
		return fmt.Errorf("marshal quality report: %w", err)
	}

	f, err := os.OpenFile(s.qualityPath(report.Device), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open qrt file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append qrt entry: %w", err)
	}
	return nil
}

// QualityEntry is one stored quality report entry as served by the
// reports API.
type QualityEntry struct {
	Timestamp string `json:"timestamp"`
	IPAddress string `json:"ip_address"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
	RTPRxStat string `json:"rtp_rx_stat"`
	RTPTxStat string `json:"rtp_tx_stat"`
}

// QualityEntries reads all entries for one device, newest first.
// A device with no file yields os.ErrNotExist.
func (s *Store) QualityEntries(device string) ([]QualityEntry, error) {
	if !domain.ValidDeviceName(device) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDeviceName, device)
	}

	f, err := os.Open(s.qualityPath(device))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []QualityEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e QualityEntry
		if err := json.Unmarshal(line, &e); err != nil {
			// A torn line must not hide the rest of the file.
			s.logger.Warn("skipping unparseable qrt line", "device", device, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read qrt file: %w", err)
	}

	// Newest first for the API.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// QualityDevice summarizes one device's QRT file.
type QualityDevice struct {
	Device       string `json:"device"`
	File         string `json:"file"`
	EntryCount   int    `json:"entry_count"`
	LatestReport string `json:"latest_report,omitempty"`
	Size         int64  `json:"size"`
	Modified     string `json:"modified"`
}

// QualityDevices lists every device with stored quality reports.
func (s *Store) QualityDevices() ([]QualityDevice, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "qrt-*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	devices := make([]QualityDevice, 0, len(paths))
	for _, path := range paths {
		name := filepath.Base(path)
		device := strings.TrimSuffix(strings.TrimPrefix(name, "qrt-"), ".json")

		entries, err := s.QualityEntries(device)
		if err != nil {
			s.logger.Warn("skipping unreadable qrt file", "file", name, "error", err)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		d := QualityDevice{
			Device:     device,
			File:       name,
			EntryCount: len(entries),
			Size:       info.Size(),
			Modified:   info.ModTime().Format(time.RFC3339),
		}
		if len(entries) > 0 {
			d.LatestReport = entries[0].Timestamp
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// SaveProblemArchive stores one uploaded PRT archive, named by device
// and upload time, and returns the stored filename.
func (s *Store) SaveProblemArchive(device string, uploadedAt time.Time, content io.Reader) (string, error) {
	if !domain.ValidDeviceName(device) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidDeviceName, device)
	}

	name := fmt.Sprintf("prt-%s-%s.tar.gz", device, uploadedAt.Format(archiveStampLayout))
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("create prt file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return "", fmt.Errorf("write prt file: %w", err)
	}
	return name, nil
}

// ProblemReport describes one stored PRT archive.
type ProblemReport struct {
	Device    string `json:"device"`
	File      string `json:"file"`
	Timestamp string `json:"timestamp,omitempty"`
	Size      int64  `json:"size"`
	Modified  string `json:"modified"`
}

// ValidProblemFilename reports whether name looks like a stored PRT
// archive name. Guards the download path against traversal.
func ValidProblemFilename(name string) bool {
	if !strings.HasPrefix(name, "prt-") || !strings.HasSuffix(name, ".tar.gz") {
		return false
	}
	return name == filepath.Base(name)
}

func problemTimestamp(name string) string {
	stem := strings.TrimSuffix(name, ".tar.gz")
	parts := strings.Split(stem, "-")
	if len(parts) < 3 {
		return ""
	}
	ts, err := time.ParseInLocation(archiveStampLayout, parts[len(parts)-1], time.Local)
	if err != nil {
		return ""
	}
	return ts.Format(time.RFC3339)
}

func problemDevice(name string) string {
	stem := strings.TrimSuffix(name, ".tar.gz")
	parts := strings.Split(stem, "-")
	if len(parts) < 2 {
		return "unknown"
	}
	return parts[1]
}

// ProblemReports lists stored PRT archives, newest filename first,
// optionally filtered by device.
func (s *Store) ProblemReports(device string) ([]ProblemReport, error) {
	pattern := "prt-*.tar.gz"
	if device != "" {
		pattern = "prt-" + device + "-*.tar.gz"
	}
	paths, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	reports := make([]ProblemReport, 0, len(paths))
	for _, path := range paths {
		name := filepath.Base(path)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		reports = append(reports, ProblemReport{
			Device:    problemDevice(name),
			File:      name,
			Timestamp: problemTimestamp(name),
			Size:      info.Size(),
			Modified:  info.ModTime().Format(time.RFC3339),
		})
	}
	return reports, nil
}

// ArchiveEntry is one member of a PRT archive.
type ArchiveEntry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// ProblemArchiveContents lists the members of one stored PRT archive.
// Returns nil entries when the archive cannot be read as tar.gz.
func (s *Store) ProblemArchiveContents(name string) ([]ArchiveEntry, error) {
	if !ValidProblemFilename(name) {
		return nil, fmt.Errorf("invalid problem report filename %q", name)
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, nil
	}
	defer gz.Close()

	var entries []ArchiveEntry
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, nil
		}
		kind := "other"
		switch hdr.Typeflag {
		case tar.TypeReg:
			kind = "file"
		case tar.TypeDir:
			kind = "dir"
		}
		entries = append(entries, ArchiveEntry{Name: hdr.Name, Size: hdr.Size, Type: kind})
	}
}

// ProblemReportInfo returns one archive's metadata plus its member
// listing. The listing is nil when the file is not readable as tar.gz.
func (s *Store) ProblemReportInfo(name string) (*ProblemReport, []ArchiveEntry, error) {
	if !ValidProblemFilename(name) {
		return nil, nil, fmt.Errorf("invalid problem report filename %q", name)
	}
	info, err := os.Stat(filepath.Join(s.dir, name))
	if err != nil {
		return nil, nil, err
	}
	report := &ProblemReport{
		Device:    problemDevice(name),
		File:      name,
		Timestamp: problemTimestamp(name),
		Size:      info.Size(),
		Modified:  info.ModTime().Format(time.RFC3339),
	}
	entries, err := s.ProblemArchiveContents(name)
	if err != nil {
		return nil, nil, err
	}
	return report, entries, nil
}

// ProblemArchivePath resolves a stored archive name for download.
func (s *Store) ProblemArchivePath(name string) (string, error) {
	if !ValidProblemFilename(name) {
		return "", fmt.Errorf("invalid problem report filename %q", name)
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// Summary aggregates counts and sizes over all stored reports.
type Summary struct {
	QualityDeviceCount int    `json:"quality_device_count"`
	QualityEntryCount  int    `json:"quality_entry_count"`
	ProblemFileCount   int    `json:"problem_file_count"`
	ProblemDeviceCount int    `json:"problem_device_count"`
	ProblemTotalBytes  int64  `json:"problem_total_bytes"`
	ReportsDir         string `json:"reports_dir"`
}

// Summarize computes the reports summary.
func (s *Store) Summarize() (Summary, error) {
	sum := Summary{ReportsDir: s.dir}

	devices, err := s.QualityDevices()
	if err != nil {
		return sum, err
	}
	sum.QualityDeviceCount = len(devices)
	for _, d := range devices {
		sum.QualityEntryCount += d.EntryCount
	}

	problems, err := s.ProblemReports("")
	if err != nil {
		return sum, err
	}
	sum.ProblemFileCount = len(problems)
	seen := make(map[string]struct{})
	for _, p := range problems {
		sum.ProblemTotalBytes += p.Size
		seen[p.Device] = struct{}{}
	}
	sum.ProblemDeviceCount = len(seen)
	return sum, nil
}
