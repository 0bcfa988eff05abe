package downloader

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "imgsearch/pkg/errors"
	"imgsearch/pkg/google"
	"imgsearch/pkg/logger"
)

type mockFetcher struct {
	mu        sync.Mutex
	images    map[string]*google.Image
	failures  map[string]error
	calls     int32
	delay     time.Duration
	inFlight  int32
	maxFlight int32
}

func (m *mockFetcher) FetchImage(ctx context.Context, url string) (*google.Image, error) {
	atomic.AddInt32(&m.calls, 1)
	cur := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		prev := atomic.LoadInt32(&m.maxFlight)
		if cur <= prev || atomic.CompareAndSwapInt32(&m.maxFlight, prev, cur) {
			break
		}
	}

	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failures[url]; ok {
		return nil, err
	}
	if img, ok := m.images[url]; ok {
		return img, nil
	}
	return &google.Image{ContentType: "image/jpeg", Data: []byte("jpeg:" + url)}, nil
}

type savedImage struct {
	index int
	ext   string
	data  []byte
}

type mockStorage struct {
	mu    sync.Mutex
	saved map[int]savedImage
	fail  error
}

func newMockStorage() *mockStorage {
	return &mockStorage{saved: make(map[int]savedImage)}
}

func (m *mockStorage) SaveImage(r io.Reader, index int, ext string) (string, int64, error) {
	if m.fail != nil {
		return "", 0, m.fail
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	m.mu.Lock()
	m.saved[index] = savedImage{index: index, ext: ext, data: data}
	m.mu.Unlock()
	return "/out/" + ext, int64(len(data)), nil
}

func runJobs(t *testing.T, pool *WorkerPool, jobs []DownloadJob) map[int]DownloadResult {
	t.Helper()
	pool.Start()

	go func() {
		for _, job := range jobs {
			if err := pool.Submit(job); err != nil {
				break
			}
		}
		pool.Stop()
	}()

	results := make(map[int]DownloadResult)
	for result := range pool.Results() {
		results[result.Job.Position] = result
	}
	return results
}

func TestWorkerPoolDownloadsAll(t *testing.T) {
	fetcher := &mockFetcher{}
	store := newMockStorage()
	pool := NewWorkerPool(context.Background(), 3, fetcher, store, logger.NewTestLogger())

	var jobs []DownloadJob
	for i := 0; i < 10; i++ {
		jobs = append(jobs, DownloadJob{Position: i, Index: i, URL: "http://img/" + string(rune('a'+i))})
	}

	results := runJobs(t, pool, jobs)

	require.Len(t, results, 10)
	assert.Equal(t, int32(10), atomic.LoadInt32(&fetcher.calls))
	for i := 0; i < 10; i++ {
		assert.NoError(t, results[i].Err)
		assert.Equal(t, ".jpg", store.saved[i].ext)
		assert.Equal(t, int64(len(store.saved[i].data)), results[i].Bytes)
	}
}

func TestWorkerPoolBoundsConcurrency(t *testing.T) {
	fetcher := &mockFetcher{delay: 20 * time.Millisecond}
	pool := NewWorkerPool(context.Background(), 2, fetcher, newMockStorage(), logger.NewTestLogger())

	var jobs []DownloadJob
	for i := 0; i < 8; i++ {
		jobs = append(jobs, DownloadJob{Position: i, Index: i, URL: "http://img/x"})
	}
	runJobs(t, pool, jobs)

	assert.LessOrEqual(t, atomic.LoadInt32(&fetcher.maxFlight), int32(2))
}

func TestWorkerPoolDefaultsToNumCPU(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 0, &mockFetcher{}, newMockStorage(), nil)
	assert.Greater(t, pool.NumWorkers(), 0)
}

func TestWorkerPoolIsolatesFailures(t *testing.T) {
	fetcher := &mockFetcher{
		failures: map[string]error{"http://img/bad": errs.Fetch("not found", 404, nil)},
		images: map[string]*google.Image{
			"http://img/png":  {ContentType: "image/png", Data: []byte("png")},
			"http://img/html": {ContentType: "", Data: []byte("???")},
		},
	}
	store := newMockStorage()
	pool := NewWorkerPool(context.Background(), 2, fetcher, store, logger.NewTestLogger())

	results := runJobs(t, pool, []DownloadJob{
		{Position: 0, Index: 0, URL: "http://img/good"},
		{Position: 1, Index: 1, URL: "http://img/bad"},
		{Position: 2, Index: 2, URL: "http://img/png"},
		{Position: 3, Index: 3, URL: "http://img/html"},
		{Position: 4, Index: 4, URL: ""},
	})

	require.Len(t, results, 5)
	assert.NoError(t, results[0].Err)
	assert.True(t, errs.Is(results[1].Err, errs.ErrorTypeFetch))
	assert.NoError(t, results[2].Err)
	assert.Equal(t, ".png", store.saved[2].ext)
	assert.Error(t, results[3].Err, "missing content type yields no extension")
	assert.True(t, errs.Is(results[4].Err, errs.ErrorTypeFetch))

	_, wrote := store.saved[1]
	assert.False(t, wrote)
}

func TestWorkerPoolSaveFailure(t *testing.T) {
	store := newMockStorage()
	store.fail = errs.Write("disk full", errors.New("ENOSPC"))
	pool := NewWorkerPool(context.Background(), 1, &mockFetcher{}, store, logger.NewTestLogger())

	results := runJobs(t, pool, []DownloadJob{{Position: 0, Index: 0, URL: "http://img/a"}})

	require.Len(t, results, 1)
	assert.True(t, errs.Is(results[0].Err, errs.ErrorTypeWrite))
}

func TestWorkerPoolCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool := NewWorkerPool(ctx, 1, &mockFetcher{}, newMockStorage(), logger.NewTestLogger())
	err := pool.Submit(DownloadJob{URL: "http://img/a"})
	if err == nil {
		// the buffered queue may accept the job; workers then skip it
		results := runJobs(t, pool, nil)
		assert.Empty(t, results)
		return
	}
	assert.ErrorIs(t, err, context.Canceled)
}

// cancellingFetcher cancels the pool context mid-download and still returns an image
type cancellingFetcher struct {
	cancel context.CancelFunc
}

func (f *cancellingFetcher) FetchImage(ctx context.Context, url string) (*google.Image, error) {
	f.cancel()
	return &google.Image{ContentType: "image/png", Data: []byte("png")}, nil
}

func TestWorkerPoolReportsJobFinishedAfterCancel(t *testing.T) {
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		store := newMockStorage()
		pool := NewWorkerPool(ctx, 1, &cancellingFetcher{cancel: cancel}, store, logger.NewTestLogger())

		results := runJobs(t, pool, []DownloadJob{{Position: 0, Index: 0, URL: "http://img/a"}})
		cancel()

		_, written := store.saved[0]
		require.True(t, written)
		require.Len(t, results, 1, "a written image is always reported")
		assert.NoError(t, results[0].Err)
		assert.Equal(t, ".png", store.saved[0].ext)
	}
}
