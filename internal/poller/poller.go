// Package poller runs the import operation on a timer so inbound mail
// shows up without anyone calling check-incoming.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pr-poehali-dev/email-creation-site/internal/importer"
	"github.com/pr-poehali-dev/email-creation-site/internal/store"
)

// Status is a snapshot of the poller's last run.
type Status struct {
	Running  bool
	LastSync time.Time
	LastErr  error
}

// Poller periodically imports unseen external mail for every
// registered account.
type Poller struct {
	store    store.Store
	importer *importer.Importer
	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	running bool
	status  Status
	stopCh  chan struct{}
}

// New creates a poller that runs every interval.
func New(
	st store.Store,
	imp *importer.Importer,
	logger *slog.Logger,
	interval time.Duration,
) *Poller {
	return &Poller{
		store:    st,
		importer: imp,
		logger:   logger,
		interval: interval,
	}
}

// Start launches the polling loop. It returns immediately; the loop
// stops when ctx is canceled or Stop is called. Starting a running
// poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				p.setStopped(stopCh)
				return
			case <-stopCh:
				p.setStopped(stopCh)
				return
			case <-ticker.C:
				p.runOnce(ctx)
			}
		}
	}()
}

// Stop terminates the polling loop. Stopping an idle poller is a
// no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// Status returns a snapshot of the last run.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.status
	st.Running = p.running
	return st
}

// runOnce imports unseen mail for every registered account. An error
// for one account does not stop the others; the last error is kept in
// the status.
func (p *Poller) runOnce(ctx context.Context) {
	users, err := p.store.GetRegisteredUsers(ctx)
	if err != nil {
		p.setResult(err)
		p.logger.Error("poller: listing accounts", "error", err)
		return
	}

	var lastErr error
	for _, user := range users {
		result, err := p.importer.Run(ctx, user)
		if err != nil {
			lastErr = err
			p.logger.Error("poller: import failed",
				"user_id", user.ID, "error", err)
			continue
		}
		if result.Imported > 0 {
			p.logger.Info("poller: imported mail",
				"user_id", user.ID, "count", result.Imported)
		}
	}

	p.setResult(lastErr)
}

func (p *Poller) setResult(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.LastErr = err
	if err == nil {
		p.status.LastSync = time.Now()
	}
}

// setStopped clears the running flag, but only when the exiting loop
// still owns the current stop channel. A loop draining after Stop must
// not clobber the state of a loop started in the meantime.
func (p *Poller) setStopped(stopCh chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopCh == stopCh {
		p.running = false
	}
}
