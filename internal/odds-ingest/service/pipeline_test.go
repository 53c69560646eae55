package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/election-odds-ingest/internal/odds-ingest/feed"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/lock"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/parser"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/reconcile"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/repo"
	"github.com/radieske/election-odds-ingest/internal/odds-ingest/sink"
	"github.com/radieske/election-odds-ingest/internal/shared/db"
)

type staticFeed struct {
	body  string
	err   error
	calls int
	mu    sync.Mutex
}

func (f *staticFeed) Fetch(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

// countingStore registra toda chamada ao banco
type countingStore struct {
	*repo.Store
	mu    sync.Mutex
	calls int
	fail  bool
}

func (c *countingStore) touch() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.fail {
		return errors.New("disk full")
	}
	return nil
}

func (c *countingStore) ListAll(ctx context.Context) ([]repo.Candidate, error) {
	if err := c.touch(); err != nil {
		return nil, err
	}
	return c.Store.ListAll(ctx)
}

func (c *countingStore) Update(ctx context.Context, n string, p float64) error {
	if err := c.touch(); err != nil {
		return err
	}
	return c.Store.Update(ctx, n, p)
}

func (c *countingStore) Insert(ctx context.Context, n string, p float64) error {
	if err := c.touch(); err != nil {
		return err
	}
	return c.Store.Insert(ctx, n, p)
}

type recordingSink struct {
	mu      sync.Mutex
	reports []sink.Report
	err     error
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Publish(_ context.Context, rep sink.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
	return r.err
}

type fixture struct {
	pipeline *Pipeline
	feed     *staticFeed
	store    *countingStore
	sink     *recordingSink
	errors   []string
	runs     []string
}

func newFixture(t *testing.T, body string) *fixture {
	t.Helper()
	conn, err := db.ConnectSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	base := repo.NewStore(conn, repo.SQLite)
	require.NoError(t, base.EnsureSchema(context.Background()))

	f := &fixture{
		feed:  &staticFeed{body: body},
		store: &countingStore{Store: base},
		sink:  &recordingSink{},
	}
	f.pipeline = &Pipeline{
		Feed:    f.feed,
		Parser:  parser.New(""),
		Engine:  reconcile.NewEngine(f.store, zap.NewNop()),
		Store:   f.store,
		Lock:    lock.NewLocal(),
		Sinks:   []sink.Sink{f.sink},
		Source:  "http://feed.local",
		Log:     zap.NewNop(),
		OnError: func(stage string) { f.errors = append(f.errors, stage) },
		OnRun:   func(status string, _ time.Duration) { f.runs = append(f.runs, status) },
	}
	return f
}

const feedDoc = `<BettingData attributes="x"><Time>T</Time><Trump>43.1</Trump><Biden>55.7</Biden><West>-</West></BettingData>`

func TestRunHappyPath(t *testing.T) {
	f := newFixture(t, feedDoc)

	res, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatusComplete, res.Status)
	assert.Equal(t, map[reconcile.Kind]int{reconcile.KindInserted: 2, reconcile.KindUpdated: 0, reconcile.KindFailed: 1}, res.Counts())

	require.Len(t, f.sink.reports, 1)
	assert.Equal(t, res.RunID, f.sink.reports[0].Result.RunID)
	assert.NoError(t, f.sink.reports[0].Err)
	assert.Equal(t, "http://feed.local", f.sink.reports[0].Source)
	assert.Equal(t, []string{"complete"}, f.runs)
	assert.Empty(t, f.errors)

	// segunda execução: os mesmos candidatos viram update
	res, err = f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Counts()[reconcile.KindUpdated])

	rows, err := f.store.Store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRunRejectsBadDocumentsBeforeStorage(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		want  error
		stage string
	}{
		{"malformed", `<BettingData><Trump>43.1</BettingData>`, parser.ErrParse, "parse"},
		{"missing container", `<html><body>maintenance</body></html>`, parser.ErrSchema, "schema"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.body)

			_, err := f.pipeline.Run(context.Background())
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, f.store.calls, "store untouched")
			assert.Empty(t, f.sink.reports)
			assert.Equal(t, []string{tt.stage}, f.errors)
			assert.Equal(t, []string{"failed"}, f.runs)
		})
	}
}

func TestRunFetchError(t *testing.T) {
	f := newFixture(t, "")
	f.feed.err = &feed.StatusError{StatusCode: 503, URL: "http://feed.local"}

	res, err := f.pipeline.Run(context.Background())
	assert.ErrorIs(t, err, feed.ErrFetch)
	assert.NotEmpty(t, res.RunID)
	assert.Zero(t, f.store.calls)
	assert.Equal(t, []string{"fetch"}, f.errors)
}

func TestRunStorageAbortStillNotifiesSinks(t *testing.T) {
	f := newFixture(t, feedDoc)
	f.store.fail = true

	res, err := f.pipeline.Run(context.Background())
	assert.ErrorIs(t, err, repo.ErrStorage)
	assert.Equal(t, reconcile.StatusAborted, res.Status)

	require.Len(t, f.sink.reports, 1)
	assert.Equal(t, reconcile.StatusAborted, f.sink.reports[0].Result.Status)
	assert.Error(t, f.sink.reports[0].Err)
	assert.Equal(t, []string{"storage"}, f.errors)
	assert.Equal(t, []string{"aborted"}, f.runs)
}

func TestRunSinkFailureDoesNotChangeResult(t *testing.T) {
	f := newFixture(t, feedDoc)
	f.sink.err = errors.New("kafka down")

	res, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reconcile.StatusComplete, res.Status)
	assert.Equal(t, []string{"sink_recording"}, f.errors)
}

func TestRunSerializesConcurrentRuns(t *testing.T) {
	f := newFixture(t, feedDoc)

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.pipeline.Run(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	rows, err := f.store.Store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2, "no duplicate inserts across overlapping runs")

	inserted := 0
	for _, rep := range f.sink.reports {
		inserted += rep.Result.Counts()[reconcile.KindInserted]
	}
	assert.Equal(t, 2, inserted)
}

func TestRunLockTimeout(t *testing.T) {
	f := newFixture(t, feedDoc)
	release, err := f.pipeline.Lock.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.pipeline.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, f.feed.calls)
	assert.Equal(t, []string{"lock"}, f.errors)
}

func TestPreview(t *testing.T) {
	f := newFixture(t, feedDoc)
	_, err := f.pipeline.Run(context.Background())
	require.NoError(t, err)

	snap, rows, err := f.pipeline.Preview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Trump", "Biden", "West"}, snap.Keys())
	assert.Len(t, rows, 2)
	assert.Len(t, f.sink.reports, 1, "preview writes nothing")
}

func TestPreviewParseError(t *testing.T) {
	f := newFixture(t, "garbage")
	_, _, err := f.pipeline.Preview(context.Background())
	assert.ErrorIs(t, err, parser.ErrParse)
	assert.Zero(t, f.store.calls)
}
