package summary

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/gdg-garage/outing-registration-api/internal/metrics"
	"github.com/gdg-garage/outing-registration-api/internal/models"
)

var (
	ErrBusy        = errors.New("a summary is already being generated")
	ErrUnavailable = errors.New("summary model unavailable")
)

const latestKey = "latest"

type Summarizer interface {
	Summarize(ctx context.Context, snapshot string) (Result, error)
}

// Analysis is a stored result with the moment it was produced.
type Analysis struct {
	Result
	GeneratedAt time.Time `json:"generated_at"`
	Rows        int       `json:"rows"`
}

// Analyst runs one summary at a time and remembers the last good one.
type Analyst struct {
	summarizer Summarizer
	busy       atomic.Bool
	cache      *gocache.Cache
	now        func() time.Time
}

// NewAnalyst keeps the latest result until a later run replaces it. The cache
// has no expiry and so starts no janitor goroutine.
func NewAnalyst(summarizer Summarizer) *Analyst {
	return &Analyst{
		summarizer: summarizer,
		cache:      gocache.New(gocache.NoExpiration, 0),
		now:        time.Now,
	}
}

// Run summarises regs. An overlapping call fails fast with ErrBusy.
func (a *Analyst) Run(ctx context.Context, regs []models.Registration) (Analysis, error) {
	if a.summarizer == nil {
		return Analysis{}, ErrUnavailable
	}
	if !a.busy.CompareAndSwap(false, true) {
		metrics.Summaries.WithLabelValues("busy").Inc()
		return Analysis{}, ErrBusy
	}
	defer a.busy.Store(false)

	res, err := a.summarizer.Summarize(ctx, Snapshot(regs))
	if err != nil {
		metrics.Summaries.WithLabelValues("error").Inc()
		if errors.Is(err, ErrNotConfigured) {
			return Analysis{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return Analysis{}, fmt.Errorf("summarize: %w", err)
	}

	an := Analysis{Result: res, GeneratedAt: a.now().UTC(), Rows: len(regs)}
	a.cache.Set(latestKey, an, gocache.NoExpiration)
	metrics.Summaries.WithLabelValues("ok").Inc()
	return an, nil
}

func (a *Analyst) Latest() (Analysis, bool) {
	v, ok := a.cache.Get(latestKey)
	if !ok {
		return Analysis{}, false
	}
	an, ok := v.(Analysis)
	return an, ok
}

func (a *Analyst) Busy() bool {
	return a.busy.Load()
}
