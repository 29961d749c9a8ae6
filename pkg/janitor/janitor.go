package janitor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"go.uber.org/zap"
)

// Cleaner is the part of the backup store the janitor drives.
type Cleaner interface {
	CleanupOldBackups(ctx context.Context) (int, error)
	RetentionDays() int
	AutoCleanup() bool
}

// DefaultInterval is the time between two sweeps.
const DefaultInterval = 24 * time.Hour

type (
	Janitor struct {
		l        *zap.Logger
		cleaner  Cleaner
		clock    clock.Clock
		interval time.Duration
		onSweep  func(deleted int, err error)
	}
	Option func(*Janitor)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithClock(v clock.Clock) Option {
	return func(o *Janitor) {
		o.clock = v
	}
}

func WithInterval(v time.Duration) Option {
	return func(o *Janitor) {
		o.interval = v
	}
}

// WithOnSweep registers a callback invoked after every sweep.
func WithOnSweep(v func(deleted int, err error)) Option {
	return func(o *Janitor) {
		o.onSweep = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, cleaner Cleaner, opts ...Option) *Janitor {
	inst := &Janitor{
		l:        l.Named("janitor"),
		cleaner:  cleaner,
		clock:    clock.WallClock,
		interval: DefaultInterval,
	}

	for _, opt := range opts {
		opt(inst)
	}

	if inst.interval <= 0 {
		inst.l.Warn("invalid cleanup interval, using default",
			zap.Duration("interval", inst.interval),
			zap.Duration("default", DefaultInterval),
		)
		inst.interval = DefaultInterval
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (j *Janitor) Interval() time.Duration {
	return j.interval
}

// Enabled reports whether automatic cleanup should run at all. A retention
// of zero days disables it even when auto cleanup is switched on.
func (j *Janitor) Enabled() bool {
	return j.cleaner.AutoCleanup() && j.cleaner.RetentionDays() > 0
}

// Start sweeps once immediately and then every interval until ctx is done.
func (j *Janitor) Start(ctx context.Context) error {
	if !j.Enabled() {
		j.l.Info("automatic cleanup disabled",
			zap.Bool("auto_cleanup", j.cleaner.AutoCleanup()),
			zap.Int("retention_days", j.cleaner.RetentionDays()),
		)
		<-ctx.Done()
		return nil
	}

	j.l.Info("automatic cleanup enabled", zap.Duration("interval", j.interval))
	for {
		j.Sweep(ctx)
		select {
		case <-ctx.Done():
			j.l.Debug("routine canceled", zap.Error(ctx.Err()))
			return nil
		case <-j.clock.After(j.interval):
		}
	}
}

// Sweep runs a single cleanup.
func (j *Janitor) Sweep(ctx context.Context) {
	l := j.l.With(zap.String("run_id", uuid.New().String()))
	deleted, err := j.cleaner.CleanupOldBackups(ctx)
	if err != nil {
		l.Error("cleanup failed", zap.Error(err))
	} else {
		l.Info("cleanup done", zap.Int("deleted", deleted))
	}
	if j.onSweep != nil {
		j.onSweep(deleted, err)
	}
}
