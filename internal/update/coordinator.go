package update

import (
	"context"
	"sync"
	"time"

	"voxshell/internal/logging"

	"golang.org/x/sync/singleflight"
)

// Reasons reported by a manual check that did not succeed
const (
	ReasonDisabled = "disabled"
	ReasonDev      = "dev"
	ReasonError    = "error"
)

// Outcome of a single check
type Outcome string

const (
	OutcomeNone        Outcome = "none"
	OutcomeDownloading Outcome = "downloading"
	OutcomeDownloaded  Outcome = "downloaded"
)

// Result is what a check found
type Result struct {
	Outcome Outcome `json:"outcome"`
	Version string  `json:"version,omitempty"`
}

// EventKind names an updater lifecycle event
type EventKind string

const (
	EventChecking   EventKind = "checking"
	EventNone       EventKind = "not-available"
	EventAvailable  EventKind = "available"
	EventDownloaded EventKind = "downloaded"
	EventError      EventKind = "error"
)

// Event is emitted by a Checker while it works
type Event struct {
	Kind    EventKind
	Version string
	Err     error
}

// Checker is the external update feed
type Checker interface {
	Check(ctx context.Context) (Result, error)
	Subscribe(fn func(Event))
}

// CheckResult is reported to the surface for a manual check
type CheckResult struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
	Result  Result `json:"result,omitempty"`
}

// Options control the coordinator
type Options struct {
	Enabled  bool
	DevMode  bool
	Interval time.Duration
}

// Coordinator schedules update checks against a Checker
type Coordinator struct {
	checker Checker
	opts    Options

	initOnce sync.Once
	group    singleflight.Group

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCoordinator creates a coordinator. Nothing runs until Start.
func NewCoordinator(checker Checker, opts Options) *Coordinator {
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	return &Coordinator{checker: checker, opts: opts}
}

// Init subscribes the coordinator's listener to the checker. Repeated
// calls are no-ops.
func (c *Coordinator) Init() {
	c.initOnce.Do(func() {
		c.checker.Subscribe(logEvent)
	})
}

func logEvent(ev Event) {
	switch ev.Kind {
	case EventChecking:
		logging.Debug("Checking for updates")
	case EventNone:
		logging.Info("No update available")
	case EventAvailable:
		logging.Info("Update available, downloading", "version", ev.Version)
	case EventDownloaded:
		logging.Info("Update downloaded, will apply on restart", "version", ev.Version)
	case EventError:
		logging.Warn("Update check failed", "error", ev.Err)
	}
}

// Start runs one check now and then one per interval until Stop. It does
// nothing when updates are disabled or in dev posture.
func (c *Coordinator) Start(ctx context.Context) {
	if !c.opts.Enabled {
		logging.Info("Auto update disabled")
		return
	}
	if c.opts.DevMode {
		logging.Info("Auto update skipped in development")
		return
	}

	c.Init()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	go c.loop(ctx, c.done)
}

func (c *Coordinator) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer logging.Recover("update scheduler")

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	c.runCheck(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runCheck(ctx)
		}
	}
}

// Stop cancels the schedule and waits for an in-flight check to return
func (c *Coordinator) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// CheckNow runs a manual check. Concurrent calls share one check.
func (c *Coordinator) CheckNow(ctx context.Context) CheckResult {
	if !c.opts.Enabled {
		return CheckResult{Reason: ReasonDisabled}
	}
	if c.opts.DevMode {
		return CheckResult{Reason: ReasonDev}
	}

	c.Init()

	res, err := c.runCheck(ctx)
	if err != nil {
		return CheckResult{Reason: ReasonError, Error: err.Error()}
	}
	return CheckResult{Success: true, Result: res}
}

func (c *Coordinator) runCheck(ctx context.Context) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Update check panicked", "panic", r)
			err = errPanic
		}
	}()

	v, err, _ := c.group.Do("check", func() (any, error) {
		return c.checker.Check(ctx)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}
