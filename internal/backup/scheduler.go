package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"cryptoJournal/internal/ports"
)

const (
	filePrefix      = "backup_"
	fileSuffix      = ".db"
	timestampLayout = "20060102_150405"
)

// Config controls where and when backups are written.
type Config struct {
	Dir    string
	Hour   int // Local time of the daily backup
	Minute int
	Retain int // Number of backup files to keep; <= 0 keeps all
}

// Scheduler writes a daily database snapshot and prunes old ones.
// It runs independently of request handling and owns no state besides the last backup time.
type Scheduler struct {
	snapshotter ports.Snapshotter
	cfg         Config
	clock       ports.Clock
	logger      ports.Logger
	after       func(time.Duration) <-chan time.Time

	mu   sync.Mutex
	last time.Time
}

// NewScheduler creates a backup scheduler.
func NewScheduler(snapshotter ports.Snapshotter, cfg Config, clock ports.Clock, logger ports.Logger) (*Scheduler, error) {
	if snapshotter == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for backup scheduler")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("backup directory must be set: %w", ports.ErrConfigurationError)
	}
	if cfg.Hour < 0 || cfg.Hour > 23 || cfg.Minute < 0 || cfg.Minute > 59 {
		return nil, fmt.Errorf("invalid backup time %02d:%02d: %w", cfg.Hour, cfg.Minute, ports.ErrConfigurationError)
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Scheduler{snapshotter: snapshotter, cfg: cfg, clock: clock, logger: logger, after: time.After}, nil
}

// NextRun returns the first hour:minute strictly after now, in now's location.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run blocks, creating one backup per day at the configured time, until ctx is cancelled.
// A failed backup is logged and retried at the next slot.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info(ctx, "Backup scheduler started", map[string]interface{}{
		"dir": s.cfg.Dir, "time": fmt.Sprintf("%02d:%02d", s.cfg.Hour, s.cfg.Minute), "retain": s.cfg.Retain,
	})
	for {
		if ctx.Err() != nil {
			s.logger.Info(ctx, "Backup scheduler stopped")
			return nil
		}
		next := NextRun(s.clock.Now(), s.cfg.Hour, s.cfg.Minute)
		wait := next.Sub(s.clock.Now())
		s.logger.Debug(ctx, "Next backup scheduled", map[string]interface{}{"at": next.Format(time.RFC3339)})

		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Backup scheduler stopped")
			return nil
		case <-s.after(wait):
		}

		if _, err := s.CreateBackup(ctx); err != nil {
			s.logger.Error(ctx, err, "Scheduled backup failed")
		}
	}
}

// CreateBackup writes a snapshot named backup_YYYYmmdd_HHMMSS.db and prunes old files.
func (s *Scheduler) CreateBackup(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	now := s.clock.Now()
	path := filepath.Join(s.cfg.Dir, filePrefix+now.Format(timestampLayout)+fileSuffix)

	if err := s.snapshotter.BackupTo(ctx, path); err != nil {
		return "", fmt.Errorf("failed to write backup %s: %w", path, err)
	}

	s.mu.Lock()
	s.last = now
	s.mu.Unlock()
	s.logger.Info(ctx, "Backup created", map[string]interface{}{"path": path})

	if err := s.prune(ctx); err != nil {
		s.logger.Warn(ctx, "Failed to prune old backups", map[string]interface{}{"error": err.Error()})
	}
	return path, nil
}

// LastBackupTime returns the time of the newest backup file in the directory.
// ok is false when no backup exists yet.
func (s *Scheduler) LastBackupTime() (t time.Time, ok bool, err error) {
	files, err := s.list()
	if err != nil {
		return time.Time{}, false, err
	}
	if len(files) == 0 {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.last, !s.last.IsZero(), nil
	}
	return files[len(files)-1].at, true, nil
}

type backupFile struct {
	path string
	at   time.Time
}

// list returns the backup files in the directory, oldest first.
func (s *Scheduler) list() ([]backupFile, error) {
	entries, err := os.ReadDir(s.cfg.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	loc := s.clock.Now().Location()
	files := make([]backupFile, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		at, err := time.ParseInLocation(timestampLayout, stamp, loc)
		if err != nil {
			continue
		}
		files = append(files, backupFile{path: filepath.Join(s.cfg.Dir, name), at: at})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].at.Before(files[j].at) })
	return files, nil
}

func (s *Scheduler) prune(ctx context.Context) error {
	if s.cfg.Retain <= 0 {
		return nil
	}
	files, err := s.list()
	if err != nil {
		return err
	}
	for len(files) > s.cfg.Retain {
		if err := os.Remove(files[0].path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", files[0].path, err)
		}
		s.logger.Debug(ctx, "Old backup removed", map[string]interface{}{"path": files[0].path})
		files = files[1:]
	}
	return nil
}
