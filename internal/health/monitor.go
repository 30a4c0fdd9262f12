package health

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/qmuntal/stateless"

	"github.com/comigor/jack-go/internal/config"
	"github.com/comigor/jack-go/internal/logger"
)

// Status is the backend availability shown in the header.
type Status string

const (
	StatusChecking Status = "checking"
	StatusOnline   Status = "online"
	StatusOffline  Status = "offline"
)

// FSM triggers
type trigger string

const (
	triggerProbe       trigger = "Probe"
	triggerProbeOK     trigger = "ProbeOK"
	triggerProbeFailed trigger = "ProbeFailed"
)

// ErrRunning is returned by Run when the monitor is already polling.
var ErrRunning = errors.New("health monitor already running")

// Prober checks the backend once. It must not block past ctx.
type Prober interface {
	CheckHealth(ctx context.Context) bool
}

// Monitor polls a Prober on a fixed interval and tracks the result in a
// small state machine:
//
//	checking --ProbeOK-->     online
//	checking --ProbeFailed--> offline
//	online|offline --Probe--> checking
type Monitor struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration

	fsm     *stateless.StateMachine
	current atomic.Value
	running atomic.Bool

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Status)
}

// NewMonitor creates a Monitor in the checking state.
func NewMonitor(p Prober, cfg config.HealthConfig) *Monitor {
	m := &Monitor{
		prober:   p,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		fsm:      stateless.NewStateMachine(StatusChecking),
		subs:     make(map[int]func(Status)),
	}
	m.current.Store(StatusChecking)

	m.fsm.Configure(StatusChecking).
		Permit(triggerProbeOK, StatusOnline).
		Permit(triggerProbeFailed, StatusOffline).
		Ignore(triggerProbe)

	m.fsm.Configure(StatusOnline).
		Permit(triggerProbe, StatusChecking).
		Ignore(triggerProbeOK).
		Permit(triggerProbeFailed, StatusOffline)

	m.fsm.Configure(StatusOffline).
		Permit(triggerProbe, StatusChecking).
		Permit(triggerProbeOK, StatusOnline).
		Ignore(triggerProbeFailed)

	m.fsm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		next := t.Destination.(Status)
		m.current.Store(next)
		logger.L.Debug("backend status", "from", t.Source, "to", next)
		m.publish(next)
	})

	return m
}

// Status returns the current backend status.
func (m *Monitor) Status() Status {
	return m.current.Load().(Status)
}

// Run probes immediately and then once per interval until ctx is done. A
// probe that finishes after ctx is cancelled is discarded.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer m.running.Store(false)

	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

// Start runs the monitor in its own goroutine. The returned stop function
// cancels polling and waits for the goroutine to exit.
func (m *Monitor) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := m.Run(ctx); errors.Is(err, ErrRunning) {
			logger.L.Warn("health monitor start ignored", "error", err)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}

// Subscribe registers fn for every status change and returns a function
// that removes it. fn runs on the monitor goroutine.
func (m *Monitor) Subscribe(fn func(Status)) (cancel func()) {
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Monitor) probe(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	m.fire(ctx, triggerProbe)

	probeCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	ok := m.prober.CheckHealth(probeCtx)

	if ctx.Err() != nil {
		logger.L.Debug("discarding health probe after stop")
		return
	}
	if ok {
		m.fire(ctx, triggerProbeOK)
	} else {
		m.fire(ctx, triggerProbeFailed)
	}
}

func (m *Monitor) fire(ctx context.Context, t trigger) {
	if err := m.fsm.FireCtx(ctx, t); err != nil {
		logger.L.Warn("health FSM fire error", "trigger", t, "error", err)
	}
}

func (m *Monitor) publish(s Status) {
	m.subMu.Lock()
	fns := make([]func(Status), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
