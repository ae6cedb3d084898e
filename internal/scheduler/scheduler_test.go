package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/skimeister/internal/ingest"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeRunner) Run(ctx context.Context, country string, limit int) (ingest.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, country)
	if f.fail[country] {
		return ingest.Report{Country: country}, errors.New("listing unavailable")
	}
	return ingest.Report{Country: country, Listed: limit, Scraped: limit}, nil
}

func TestRunOnceVisitsEveryCountry(t *testing.T) {
	r := &fakeRunner{fail: map[string]bool{"italien": true}}
	s := New(r, []string{"schweiz", "italien", "oesterreich"}, 5, 0, nil)

	reports := s.RunOnce(context.Background())
	require.Len(t, reports, 3)
	assert.Equal(t, []string{"schweiz", "italien", "oesterreich"}, r.calls)
	assert.Equal(t, 5, reports[0].Scraped)
	assert.Zero(t, reports[1].Scraped)
}

func TestRunOnceStopsWhenCancelled(t *testing.T) {
	r := &fakeRunner{}
	s := New(r, []string{"schweiz", "italien"}, 0, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, s.RunOnce(ctx))
	assert.Empty(t, r.calls)
}

func TestStartDisabled(t *testing.T) {
	s := New(&fakeRunner{}, []string{"schweiz"}, 0, 0, nil)
	require.NoError(t, s.Start())
	s.Stop()
}
