package budget

import (
	"strings"
	"sync"
	"time"

	"github.com/mnemo-lab/mnemo/pkg/utils/logging"
	"github.com/pkoukk/tiktoken-go"
)

// Cost per 1K tokens in USD
var costPerKiloToken = map[string]float64{
	"text-embedding-3-small": 0.00002,
	"text-embedding-3-large": 0.00013,
	"gemini-embedding-001":   0.00001,
	"gemini-1.5-flash":       0.00001,
}

const fallbackTokensPerWord = 1.3

// Usage is the outcome of one logged API call
type Usage struct {
	Tokens int     `json:"tokens"`
	Cost   float64 `json:"cost"`
}

type entry struct {
	at   time.Time
	cost float64
}

// Tracker accumulates embedding API spend and answers budget questions.
// Entries older than the monthly window are dropped on write.
type Tracker struct {
	mu       sync.Mutex
	entries  []entry
	encoding *tiktoken.Tiktoken
	now      func() time.Time
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// New creates a tracker backed by the cl100k_base tokenizer. When the
// encoding cannot be loaded the tracker degrades to a word-based token
// estimate instead of failing.
func New(opts ...Option) *Tracker {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logging.Default().Warn("tokenizer unavailable, estimating tokens by word count",
			"error", err.Error())
		encoding = nil
	}

	t := &Tracker{
		encoding: encoding,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CountTokens estimates the token count of text. Falls back to a word-based
// estimate when the tokenizer is unavailable.
func (t *Tracker) CountTokens(text string) int {
	if t.encoding == nil {
		words := len(strings.Fields(text))
		return int(float64(words) * fallbackTokensPerWord)
	}
	return len(t.encoding.Encode(text, nil, nil))
}

// LogEmbedding records the cost of one embedding call
func (t *Tracker) LogEmbedding(modelName, text string) Usage {
	tokens := t.CountTokens(text)
	cost := float64(tokens) / 1000 * costPerKiloToken[modelName]

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.entries = append(t.entries, entry{at: now, cost: cost})
	t.prune(now)

	return Usage{Tokens: tokens, Cost: cost}
}

// prune drops entries outside the monthly window. Caller holds mu.
func (t *Tracker) prune(now time.Time) {
	cutoff := now.Add(-31 * 24 * time.Hour)
	kept := t.entries[:0]
	for _, e := range t.entries {
		if e.at.After(cutoff) {
			kept = append(kept, e)
		}
	}
	t.entries = kept
}

// CostSince sums the spend within the trailing window
func (t *Tracker) CostSince(window time.Duration) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-window)
	var total float64
	for _, e := range t.entries {
		if e.at.After(cutoff) {
			total += e.cost
		}
	}
	return total
}

// DailyCost returns the spend of the last 24 hours
func (t *Tracker) DailyCost() float64 {
	return t.CostSince(24 * time.Hour)
}

// MonthlyCost returns the spend of the last 30 days
func (t *Tracker) MonthlyCost() float64 {
	return t.CostSince(30 * 24 * time.Hour)
}
