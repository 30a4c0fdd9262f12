package health

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comigor/jack-go/internal/config"
)

// scriptedProber returns the queued results in order, then repeats the last.
type scriptedProber struct {
	mu      sync.Mutex
	results []bool
	calls   int
	block   chan struct{}
}

func (p *scriptedProber) CheckHealth(ctx context.Context) bool {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return false
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.results) == 0 {
		return false
	}
	r := p.results[0]
	if len(p.results) > 1 {
		p.results = p.results[1:]
	}
	return r
}

type recorder struct {
	mu   sync.Mutex
	seen []Status
}

func (r *recorder) add(s Status) {
	r.mu.Lock()
	r.seen = append(r.seen, s)
	r.mu.Unlock()
}

func (r *recorder) list() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.seen...)
}

func testConfig() config.HealthConfig {
	return config.HealthConfig{Interval: 10 * time.Millisecond, Timeout: time.Second}
}

func TestMonitor_StartsChecking(t *testing.T) {
	m := NewMonitor(&scriptedProber{}, testConfig())
	require.Equal(t, StatusChecking, m.Status())
}

func TestMonitor_FailureThenRecovery(t *testing.T) {
	p := &scriptedProber{results: []bool{false, true}}
	m := NewMonitor(p, testConfig())
	rec := &recorder{}
	m.Subscribe(rec.add)

	stop := m.Start(context.Background())
	defer stop()

	require.Eventually(t, func() bool {
		seen := rec.list()
		return len(seen) >= 3
	}, time.Second, 5*time.Millisecond)
	stop()

	seen := rec.list()
	require.Equal(t, []Status{StatusOffline, StatusChecking, StatusOnline}, seen[:3])
	require.NotEqual(t, StatusChecking, m.Status())
}

func TestMonitor_FailureFromAnyState(t *testing.T) {
	for _, first := range []bool{true, false} {
		p := &scriptedProber{results: []bool{first, false}}
		m := NewMonitor(p, testConfig())

		stop := m.Start(context.Background())
		require.Eventually(t, func() bool {
			p.mu.Lock()
			calls := p.calls
			p.mu.Unlock()
			return calls >= 2 && m.Status() == StatusOffline
		}, time.Second, time.Millisecond)
		stop()
	}
}

func TestMonitor_DiscardsProbeAfterStop(t *testing.T) {
	p := &scriptedProber{results: []bool{true}, block: make(chan struct{})}
	m := NewMonitor(p, config.HealthConfig{Interval: time.Hour, Timeout: time.Hour})
	rec := &recorder{}
	m.Subscribe(rec.add)

	stop := m.Start(context.Background())
	stop()
	close(p.block)

	require.Empty(t, rec.list())
	require.Equal(t, StatusChecking, m.Status())
}

func TestMonitor_RunTwice(t *testing.T) {
	p := &scriptedProber{results: []bool{true}}
	m := NewMonitor(p, config.HealthConfig{Interval: time.Hour, Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return m.Status() == StatusOnline }, time.Second, 5*time.Millisecond)
	require.ErrorIs(t, m.Run(context.Background()), ErrRunning)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestMonitor_Unsubscribe(t *testing.T) {
	p := &scriptedProber{results: []bool{true}}
	m := NewMonitor(p, config.HealthConfig{Interval: time.Hour, Timeout: time.Second})
	rec := &recorder{}
	cancel := m.Subscribe(rec.add)
	cancel()

	stop := m.Start(context.Background())
	require.Eventually(t, func() bool { return m.Status() == StatusOnline }, time.Second, 5*time.Millisecond)
	stop()

	require.Empty(t, rec.list())
}
