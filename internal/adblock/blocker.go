package adblock

import (
	"log/slog"
	"sync"

	"github.com/mmcdole/moviemate/internal/metrics"
)

// Notifier receives the new total after each blocked request
type Notifier interface {
	NotifyBlocked(count int64)
}

// Blocker applies Rules to reported requests and keeps the count
type Blocker struct {
	counter *Counter
	logger  *slog.Logger

	mu        sync.RWMutex
	rules     Rules
	installed bool
	notifiers []Notifier
}

// NewBlocker creates a Blocker over counter. Rules take effect after Install.
func NewBlocker(rules Rules, counter *Counter, logger *slog.Logger) *Blocker {
	if logger == nil {
		logger = slog.Default()
	}
	if counter == nil {
		counter = &Counter{}
	}
	return &Blocker{
		counter: counter,
		logger:  logger,
		rules:   rules,
	}
}

// Install activates the rule set, replacing any previously installed one
func (b *Blocker) Install(rules Rules) {
	b.mu.Lock()
	b.rules = rules
	b.installed = true
	b.mu.Unlock()
	b.logger.Info("ad blocker rules installed", "domains", rules.Domains, "resourceTypes", rules.ResourceTypes)
}

// Rules returns the active rule set
func (b *Blocker) Rules() Rules {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rules
}

// Subscribe registers n to be told about every block
func (b *Blocker) Subscribe(n Notifier) {
	b.mu.Lock()
	b.notifiers = append(b.notifiers, n)
	b.mu.Unlock()
}

// Count returns the blocked-request total
func (b *Blocker) Count() int64 {
	return b.counter.Load()
}

// Check reports whether the request is blocked. A block increments the
// counter and notifies subscribers with the new total.
func (b *Blocker) Check(rawURL, resourceType string) bool {
	b.mu.RLock()
	installed, rules := b.installed, b.rules
	notifiers := b.notifiers
	b.mu.RUnlock()

	if !installed || !rules.Matches(rawURL, resourceType) {
		return false
	}

	count := b.counter.Inc()
	metrics.AdsBlocked.WithLabelValues(resourceType).Inc()
	b.logger.Debug("request blocked", "url", rawURL, "resourceType", resourceType, "count", count)

	for _, n := range notifiers {
		n.NotifyBlocked(count)
	}
	return true
}
