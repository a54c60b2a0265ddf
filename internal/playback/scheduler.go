package playback

import (
	"sync"
	"time"
)

// Ticker is a recurring tick source handed out by a Scheduler.
type Ticker interface {
	// Reset changes the interval; the change applies from the next period.
	Reset(d time.Duration)
	// Stop cancels the ticker. It is safe to call more than once.
	Stop()
}

// Scheduler creates tick sources.
type Scheduler interface {
	Every(d time.Duration, fn func(now time.Time)) Ticker
}

// RealScheduler runs each ticker on its own goroutine backed by time.Ticker.
type RealScheduler struct{}

func (RealScheduler) Every(d time.Duration, fn func(now time.Time)) Ticker {
	t := &realTicker{t: time.NewTicker(d), done: make(chan struct{})}
	go t.run(fn)
	return t
}

type realTicker struct {
	t    *time.Ticker
	done chan struct{}
	once sync.Once
}

func (r *realTicker) run(fn func(time.Time)) {
	for {
		select {
		case <-r.done:
			return
		case now := <-r.t.C:
			fn(now)
		}
	}
}

func (r *realTicker) Reset(d time.Duration) { r.t.Reset(d) }

func (r *realTicker) Stop() {
	r.once.Do(func() {
		r.t.Stop()
		close(r.done)
	})
}

// ManualScheduler never fires on its own; Fire delivers one tick to every
// live ticker. Used for headless scenarios and tests.
type ManualScheduler struct {
	mu      sync.Mutex
	tickers []*manualTicker
	started int
}

func NewManualScheduler() *ManualScheduler { return &ManualScheduler{} }

func (m *ManualScheduler) Every(d time.Duration, fn func(now time.Time)) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{owner: m, interval: d, fn: fn}
	m.tickers = append(m.tickers, t)
	m.started++
	return t
}

// Fire ticks every live ticker once and returns how many fired.
func (m *ManualScheduler) Fire(now time.Time) int {
	live := m.live()
	for _, t := range live {
		t.fn(now)
	}
	return len(live)
}

// Active is the number of tickers not yet stopped.
func (m *ManualScheduler) Active() int { return len(m.live()) }

// Started counts every ticker ever created.
func (m *ManualScheduler) Started() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Intervals returns the current interval of each live ticker.
func (m *ManualScheduler) Intervals() []time.Duration {
	live := m.live()
	out := make([]time.Duration, len(live))
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range live {
		out[i] = t.interval
	}
	return out
}

func (m *ManualScheduler) live() []*manualTicker {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*manualTicker, 0, len(m.tickers))
	for _, t := range m.tickers {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

type manualTicker struct {
	owner    *ManualScheduler
	interval time.Duration
	stopped  bool
	fn       func(time.Time)
}

func (t *manualTicker) Reset(d time.Duration) {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	t.interval = d
}

func (t *manualTicker) Stop() {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	t.stopped = true
}
