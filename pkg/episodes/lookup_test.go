package episodes

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/podcastr/podcastr/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu      sync.Mutex
	records map[string]Record
	gets    map[string]int
	err     error
	delay   time.Duration
}

func newFakeFetcher(rs ...Record) *fakeFetcher {
	f := &fakeFetcher{
		records: make(map[string]Record),
		gets:    make(map[string]int),
	}
	for _, r := range rs {
		f.records[r.ID] = r
	}
	return f
}

func (f *fakeFetcher) Get(ctx context.Context, id string) (Record, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Record{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets[id]++
	if f.err != nil {
		return Record{}, f.err
	}
	r, ok := f.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeFetcher) Latest(_ context.Context, limit int) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	rs := make([]Record, 0)
	for _, id := range []string{"c", "b", "a"} {
		if r, ok := f.records[id]; ok && len(rs) < limit {
			rs = append(rs, r)
		}
	}
	return rs, nil
}

func (f *fakeFetcher) setTitle(id, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := f.records[id]
	r.Title = title
	f.records[id] = r
}

func (f *fakeFetcher) getCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets[id]
}

func testRecord(id, title string) Record {
	return Record{
		ID:          id,
		Title:       title,
		PublishedAt: "2021-01-08 16:00:00",
		File:        File{URL: "https://cdn.local/" + id + ".m4a", Duration: "60"},
	}
}

func newTestLookup(t *testing.T, f Fetcher) (*Lookup, *database.Database) {
	t.Helper()
	db, err := database.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewLookup(f, db, func() time.Duration { return time.Hour }), db
}

func TestLookupMissFetchesAndCaches(t *testing.T) {
	f := newFakeFetcher(testRecord("a", "A"))
	l, db := newTestLookup(t, f)

	d, err := l.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "A", d.Title)
	assert.Equal(t, 1, f.getCount("a"))

	ce, err := db.GetEpisode("a")
	require.NoError(t, err)
	var r Record
	require.NoError(t, json.Unmarshal(ce.Data, &r))
	assert.Equal(t, "A", r.Title)

	// fresh hit doesn't touch the api
	d, err = l.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "A", d.Title)
	l.Wait()
	assert.Equal(t, 1, f.getCount("a"))
}

func TestLookupStaleServesCachedAndRevalidates(t *testing.T) {
	f := newFakeFetcher(testRecord("a", "A"))
	l, _ := newTestLookup(t, f)

	now := time.Now()
	l.now = func() time.Time { return now }

	_, err := l.Get(context.Background(), "a")
	require.NoError(t, err)

	f.setTitle("a", "A2")
	now = now.Add(2 * time.Hour)

	d, err := l.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "A", d.Title)

	l.Wait()
	assert.Equal(t, 2, f.getCount("a"))

	d, err = l.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "A2", d.Title)
}

func TestLookupStaleRemovedUpstream(t *testing.T) {
	f := newFakeFetcher(testRecord("a", "A"))
	l, db := newTestLookup(t, f)

	now := time.Now()
	l.now = func() time.Time { return now }

	_, err := l.Get(context.Background(), "a")
	require.NoError(t, err)

	delete(f.records, "a")
	now = now.Add(2 * time.Hour)

	_, err = l.Get(context.Background(), "a")
	require.NoError(t, err)
	l.Wait()

	_, err = db.GetEpisode("a")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestLookupCollapsesConcurrentFetches(t *testing.T) {
	f := newFakeFetcher(testRecord("a", "A"))
	f.delay = 50 * time.Millisecond
	l, _ := newTestLookup(t, f)

	const callers = 10

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := l.Get(context.Background(), "a")
			if err == nil && d.Title != "A" {
				err = errors.New("unexpected title " + d.Title)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	l.Wait()
	assert.Equal(t, 1, f.getCount("a"))
}

func TestLookupCancelledCallerDoesNotFailOthers(t *testing.T) {
	f := newFakeFetcher(testRecord("a", "A"))
	f.delay = 200 * time.Millisecond
	l, db := newTestLookup(t, f)

	impatient := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := l.Get(ctx, "a")
		impatient <- err
	}()

	time.Sleep(5 * time.Millisecond)

	d, err := l.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "A", d.Title)

	assert.ErrorIs(t, <-impatient, context.DeadlineExceeded)

	l.Wait()
	assert.Equal(t, 1, f.getCount("a"))

	_, err = db.GetEpisode("a")
	assert.NoError(t, err)
}

func TestLookupNotFound(t *testing.T) {
	l, _ := newTestLookup(t, newFakeFetcher())

	_, err := l.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupFetchError(t *testing.T) {
	f := newFakeFetcher()
	f.err = errors.New("connection refused")
	l, _ := newTestLookup(t, f)

	_, err := l.Get(context.Background(), "a")
	assert.Error(t, err)
}

func TestLookupLatest(t *testing.T) {
	f := newFakeFetcher(testRecord("a", "A"), testRecord("b", "B"), testRecord("c", "C"))
	l, db := newTestLookup(t, f)

	ds, err := l.Latest(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, "c", ds[0].ID)
	assert.Equal(t, "b", ds[1].ID)

	_, err = db.GetEpisode("c")
	assert.NoError(t, err)
}

func TestLookupPrerender(t *testing.T) {
	f := newFakeFetcher(testRecord("a", "A"), testRecord("b", "B"), testRecord("c", "C"))
	l, db := newTestLookup(t, f)

	ids, err := l.Prerender(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids)

	for _, id := range ids {
		_, err := db.GetEpisode(id)
		assert.NoError(t, err)
		assert.Equal(t, 1, f.getCount(id))
	}
	assert.Equal(t, 0, f.getCount("a"))
}

func TestLookupPrerenderError(t *testing.T) {
	f := newFakeFetcher()
	f.err = errors.New("connection refused")
	l, _ := newTestLookup(t, f)

	_, err := l.Prerender(context.Background(), 2)
	assert.Error(t, err)
}
