package adblock

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	counts []int64
}

func (r *recordingNotifier) NotifyBlocked(count int64) {
	r.mu.Lock()
	r.counts = append(r.counts, count)
	r.mu.Unlock()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRulesMatches(t *testing.T) {
	rules := NewRules(nil, nil)

	tests := []struct {
		url, resourceType string
		want              bool
	}{
		{"https://doubleclick.net/ad.js", "script", true},
		{"https://stats.g.doubleclick.net/pixel.gif", "image", true},
		{"https://ib.adnxs.com/frame", "sub_frame", true},
		{"https://www.google-analytics.com/analytics.js", "SCRIPT", true},
		{"https://doubleclick.net/ad.js", "stylesheet", false},
		{"https://notdoubleclick.net/ad.js", "script", false},
		{"https://doubleclick.net.example.com/x", "script", false},
		{"https://example.com/?ref=doubleclick.net", "image", false},
		{"::not a url", "image", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rules.Matches(tt.url, tt.resourceType), "%s %s", tt.resourceType, tt.url)
	}
}

func TestNewRulesNormalizes(t *testing.T) {
	r := NewRules([]string{" .Example.COM", "example.com", ""}, []string{"Image", "image"})
	assert.Equal(t, []string{"example.com"}, r.Domains)
	assert.Equal(t, []string{"image"}, r.ResourceTypes)
}

func TestDeclarativeShape(t *testing.T) {
	data, err := json.Marshal(NewRules(nil, nil).Declarative())
	require.NoError(t, err)

	assert.JSONEq(t, `[{
		"id": 1,
		"priority": 1,
		"action": {"type": "block"},
		"condition": {
			"urlFilter": "*",
			"resourceTypes": ["image", "sub_frame", "script"],
			"domains": ["doubleclick.net", "google-analytics.com", "adnxs.com"]
		}
	}]`, string(data))
}

func TestBlockerCountsAndNotifies(t *testing.T) {
	b := NewBlocker(NewRules(nil, nil), nil, quietLogger())
	n := &recordingNotifier{}
	b.Subscribe(n)

	assert.False(t, b.Check("https://doubleclick.net/a.js", "script"), "inactive until installed")

	b.Install(b.Rules())
	assert.True(t, b.Check("https://doubleclick.net/a.js", "script"))
	assert.False(t, b.Check("https://example.com/a.js", "script"))
	assert.True(t, b.Check("https://adnxs.com/i.png", "image"))

	assert.EqualValues(t, 2, b.Count())
	assert.Equal(t, []int64{1, 2}, n.counts)
}

func TestCounterIsMonotonicUnderConcurrency(t *testing.T) {
	b := NewBlocker(NewRules(nil, nil), nil, quietLogger())
	b.Install(b.Rules())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Check("https://doubleclick.net/a.js", "script")
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 50, b.Count())
}
