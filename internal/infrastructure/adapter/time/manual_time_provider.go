package time

import (
	"context"
	"sync"
	"time"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
)

// ManualTimeProvider is a clock that only moves when told to.
// Sleep advances the clock instead of blocking.
type ManualTimeProvider struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualTimeProvider creates a clock stopped at start
func NewManualTimeProvider(start time.Time) *ManualTimeProvider {
	return &ManualTimeProvider{now: start}
}

// Now returns the current manual time
func (p *ManualTimeProvider) Now() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.now
}

// Set moves the clock to t
func (p *ManualTimeProvider) Set(t time.Time) {
	p.mu.Lock()
	p.now = t
	p.mu.Unlock()
}

// Advance moves the clock forward by d
func (p *ManualTimeProvider) Advance(d time.Duration) time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = p.now.Add(d)
	return p.now
}

// Since returns the manual time elapsed since t
func (p *ManualTimeProvider) Since(t time.Time) core.Duration {
	return core.Duration(p.Now().Sub(t))
}

// Until returns the manual time left until t
func (p *ManualTimeProvider) Until(t time.Time) core.Duration {
	return core.Duration(t.Sub(p.Now()))
}

// Sleep advances the clock by d
func (p *ManualTimeProvider) Sleep(d core.Duration) {
	p.Advance(d.Std())
}

// WithTimeout uses a real timer; manual time does not expire contexts
func (p *ManualTimeProvider) WithTimeout(ctx context.Context, timeout core.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout.Std())
}

// ParseDuration parses a duration string
func (p *ManualTimeProvider) ParseDuration(s string) (core.Duration, error) {
	d, err := time.ParseDuration(s)
	return core.Duration(d), err
}
