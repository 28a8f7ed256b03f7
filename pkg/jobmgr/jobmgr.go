// Package jobmgr tracks named background jobs. Stopping a job cancels it and waits
// for it to return, so callers can rely on the job having settled.
//
//	jm := jobmgr.NewManager(func(msg string) { log.Println("JOB:", msg) })
//	_ = jm.Start(ctx, "flicker:42", func(ctx context.Context) error { ... })
//	_ = jm.Stop(ctx, "flicker:42")
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrRunning    = errors.New("job is already running")
	ErrNotRunning = errors.New("job is not running")
)

// StatusReporter receives lifecycle events such as "running:name",
// "error:name:reason" and "done:name".
type StatusReporter func(string)

type job struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Manager is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]*job
	reporter StatusReporter
}

// NewManager creates a Manager; reporter may be nil.
func NewManager(reporter StatusReporter) *Manager {
	return &Manager{
		jobs:     make(map[string]*job),
		reporter: reporter,
	}
}

// Start runs runner in its own goroutine under a context derived from parent.
// The job is forgotten once runner returns.
func (m *Manager) Start(parent context.Context, name string, runner func(ctx context.Context) error) error {
	m.mu.Lock()
	if _, exists := m.jobs[name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRunning, name)
	}
	ctx, cancel := context.WithCancel(parent)
	j := &job{name: name, cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = j
	m.mu.Unlock()

	go func() {
		defer close(j.done)
		defer cancel()
		m.report("running:" + name)

		j.err = runner(ctx)
		if j.err != nil && !errors.Is(j.err, context.Canceled) {
			m.report("error:" + name + ":" + j.err.Error())
		} else {
			m.report("done:" + name)
		}

		m.mu.Lock()
		if m.jobs[name] == j {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()
	return nil
}

// Stop cancels the named job and waits until it has returned or ctx ends.
func (m *Manager) Stop(ctx context.Context, name string) error {
	m.mu.Lock()
	j, ok := m.jobs[name]
	if ok {
		delete(m.jobs, name)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRunning, name)
	}

	j.cancel()
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopAll stops every job, waiting for each.
func (m *Manager) StopAll(ctx context.Context) error {
	var errs []error
	for _, name := range m.List() {
		if err := m.Stop(ctx, name); err != nil && !errors.Is(err, ErrNotRunning) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) Running(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[name]
	return ok
}

// List returns active job names in order.
func (m *Manager) List() []string {
	m.mu.Lock()
	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	m.mu.Unlock()
	sort.Strings(out)
	return out
}

// Status is a one-line summary for chat output.
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return fmt.Sprintf("Running jobs: %s", strings.Join(active, ", "))
}

func (m *Manager) report(s string) {
	if m.reporter != nil {
		m.reporter(s)
	}
}
