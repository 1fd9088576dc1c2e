package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Sadisms/mm-tools/internal/worker"
)

// Platform is the slice of the chat platform the migrator needs.
type Platform interface {
	// PostExists reports whether the message is still readable; a transport
	// failure is an error, a deleted message is (false, nil).
	PostExists(ctx context.Context, postID string) (bool, error)
	UpdatePost(ctx context.Context, postID, message string, props map[string]any) error
}

type Status string

const (
	StatusMigrated       Status = "migrated"
	StatusSkippedCurrent Status = "skipped_current"
	StatusSkippedGone    Status = "skipped_gone"
	StatusFailed         Status = "failed"
	StatusAlive          Status = "alive"
)

// Outcome is one record's result, reported for operator visibility.
type Outcome struct {
	MessageID string
	Status    Status
	Err       error
}

type Migrator struct {
	records  RecordStore
	platform Platform
	logger   *slog.Logger

	workers       int
	recordTimeout time.Duration
}

type MigratorOption func(*Migrator)

func WithWorkers(n int) MigratorOption {
	return func(m *Migrator) {
		if n > 0 {
			m.workers = n
		}
	}
}

func WithRecordTimeout(d time.Duration) MigratorOption {
	return func(m *Migrator) {
		if d > 0 {
			m.recordTimeout = d
		}
	}
}

func NewMigrator(records RecordStore, platform Platform, logger *slog.Logger, opts ...MigratorOption) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Migrator{
		records:       records,
		platform:      platform,
		logger:        logger,
		workers:       4,
		recordTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run rewrites every persisted record to newBase. Records are processed
// with unordered, bounded concurrency; a single record's failure never
// aborts the batch. The returned outcomes cover every record.
func (m *Migrator) Run(ctx context.Context, newBase string) ([]Outcome, error) {
	newBase = strings.TrimRight(strings.TrimSpace(newBase), "/")
	if newBase == "" {
		return nil, fmt.Errorf("new base url is required")
	}
	records, err := m.records.List(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(records))
	worker.Run(worker.RunOptions[int]{
		Ctx:     ctx,
		Workers: m.workers,
		Jobs:    indices(len(records)),
		Handle: func(ctx context.Context, i int) {
			outcomes[i] = m.migrateOne(ctx, records[i], newBase)
		},
	})

	m.logger.Info("endpoint_migration_done",
		"new_base_url", newBase,
		"records", len(records),
		"summary", Summarize(outcomes),
	)
	return outcomes, nil
}

func (m *Migrator) migrateOne(ctx context.Context, rec Record, newBase string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, m.recordTimeout)
	defer cancel()

	if strings.Contains(rec.CallbackBaseURL, newBase) {
		return Outcome{MessageID: rec.MessageID, Status: StatusSkippedCurrent}
	}

	RewriteURLs(rec.Props, newBase)

	exists, err := m.platform.PostExists(ctx, rec.MessageID)
	if err != nil {
		m.logger.Warn("endpoint_migration_check_failed", "message_id", rec.MessageID, "error", err.Error())
		return Outcome{MessageID: rec.MessageID, Status: StatusFailed, Err: err}
	}
	if !exists {
		// The message was deleted out from under us; drop the record.
		_ = m.records.Delete(ctx, rec.MessageID)
		return Outcome{MessageID: rec.MessageID, Status: StatusSkippedGone}
	}

	if err := m.platform.UpdatePost(ctx, rec.MessageID, rec.Message, rec.Props); err != nil {
		m.logger.Warn("endpoint_migration_update_failed", "message_id", rec.MessageID, "error", err.Error())
		return Outcome{MessageID: rec.MessageID, Status: StatusFailed, Err: err}
	}

	rec.CallbackBaseURL = newBase
	if err := m.records.Put(ctx, rec); err != nil {
		m.logger.Warn("endpoint_migration_record_failed", "message_id", rec.MessageID, "error", err.Error())
		return Outcome{MessageID: rec.MessageID, Status: StatusFailed, Err: err}
	}
	return Outcome{MessageID: rec.MessageID, Status: StatusMigrated}
}

// Sweep drops records whose underlying message no longer exists on the
// platform.
func (m *Migrator) Sweep(ctx context.Context) ([]Outcome, error) {
	records, err := m.records.List(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(records))
	worker.Run(worker.RunOptions[int]{
		Ctx:     ctx,
		Workers: m.workers,
		Jobs:    indices(len(records)),
		Handle: func(ctx context.Context, i int) {
			outcomes[i] = m.sweepOne(ctx, records[i])
		},
	})
	return outcomes, nil
}

func (m *Migrator) sweepOne(ctx context.Context, rec Record) Outcome {
	ctx, cancel := context.WithTimeout(ctx, m.recordTimeout)
	defer cancel()

	exists, err := m.platform.PostExists(ctx, rec.MessageID)
	if err != nil {
		return Outcome{MessageID: rec.MessageID, Status: StatusFailed, Err: err}
	}
	if exists {
		return Outcome{MessageID: rec.MessageID, Status: StatusAlive}
	}
	if err := m.records.Delete(ctx, rec.MessageID); err != nil {
		return Outcome{MessageID: rec.MessageID, Status: StatusFailed, Err: err}
	}
	return Outcome{MessageID: rec.MessageID, Status: StatusSkippedGone}
}

// Summarize counts outcomes per status.
func Summarize(outcomes []Outcome) map[Status]int {
	out := map[Status]int{}
	for _, o := range outcomes {
		out[o.Status]++
	}
	return out
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
