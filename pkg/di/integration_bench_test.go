package di

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-pagecache/cache"
	"github.com/goliatone/go-pagecache/filter"
	"github.com/goliatone/go-pagecache/internal/demo"
	"github.com/goliatone/go-pagecache/paging"
	"github.com/goliatone/go-pagecache/repositorysource"
	"github.com/goliatone/go-pagecache/view"
)

// TestConcurrentNavigation drives many queries over one collection and checks
// that page fetches are shared through the store.
func TestConcurrentNavigation(t *testing.T) {
	container, err := NewContainer(testConfig())
	if err != nil {
		t.Fatalf("Failed to create DI container: %v", err)
	}

	repo := newMockSeriesRepository(demo.GenerateSeries(100))
	fetch := pagedFetcher(repo)
	ctx := context.Background()

	const numWorkers = 20
	const operationsPerWorker = 20

	var wg sync.WaitGroup
	errs := make(chan error, numWorkers*operationsPerWorker)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			q, err := NewQuery(container, repositorysource.CollectionKey[series](), fetch)
			if err != nil {
				errs <- err
				return
			}
			defer q.Close()

			if _, err := q.Load(ctx); err != nil {
				errs <- fmt.Errorf("worker %d initial load failed: %v", workerID, err)
				return
			}

			for j := 0; j < operationsPerWorker; j++ {
				q.GotoPage((workerID + j) % 4)
				st, err := q.Load(ctx)
				if err != nil {
					errs <- fmt.Errorf("worker %d operation %d failed: %v", workerID, j, err)
					continue
				}
				if st.Page < 0 || st.Page >= st.PageCount {
					errs <- fmt.Errorf("worker %d saw page %d of %d", workerID, st.Page, st.PageCount)
				}
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	var errorCount int
	for err := range errs {
		t.Error(err)
		errorCount++
		if errorCount > 10 {
			t.Error("... and more errors")
			break
		}
	}
	if errorCount > 0 {
		t.Fatalf("Concurrent navigation failed with %d errors", errorCount)
	}

	totalOperations := numWorkers * (operationsPerWorker + 1)
	listCalls := repo.getCallCount("List")
	if listCalls > 4 {
		t.Errorf("Expected at most one fetch per page, got %d List calls for %d loads", listCalls, totalOperations)
	}

	t.Logf("Concurrent navigation: %d loads resulted in %d List calls", totalOperations, listCalls)
}

// TestConcurrentReadWrite interleaves loads with invalidating writes.
func TestConcurrentReadWrite(t *testing.T) {
	container, err := NewContainer(testConfig())
	if err != nil {
		t.Fatalf("Failed to create DI container: %v", err)
	}

	repo := newMockSeriesRepository(demo.GenerateSeries(50))
	writer := NewInvalidatingWriter[series](container, repo)
	ctx := context.Background()

	const numReaders = 10
	const numWriters = 5
	const operationsPerWorker = 20

	var wg sync.WaitGroup
	errs := make(chan error, (numReaders+numWriters)*operationsPerWorker)

	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func(readerID int) {
			defer wg.Done()

			q, err := NewQuery(container, repositorysource.CollectionKey[series](), pagedFetcher(repo))
			if err != nil {
				errs <- err
				return
			}
			defer q.Close()

			for j := 0; j < operationsPerWorker; j++ {
				if _, err := q.Load(ctx); err != nil {
					errs <- fmt.Errorf("reader %d operation %d failed: %v", readerID, j, err)
				}
				time.Sleep(time.Millisecond)
			}
		}(i)
	}

	for i := 0; i < numWriters; i++ {
		wg.Add(1)
		go func(writerID int) {
			defer wg.Done()

			for j := 0; j < operationsPerWorker; j++ {
				s := series{ID: 1000 + writerID*operationsPerWorker + j, Title: fmt.Sprintf("Writer %d Series %d", writerID, j)}
				if _, err := writer.Create(ctx, s); err != nil {
					errs <- fmt.Errorf("writer %d operation %d failed: %v", writerID, j, err)
				}
				time.Sleep(2 * time.Millisecond)
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	var errorCount int
	for err := range errs {
		t.Error(err)
		errorCount++
		if errorCount > 5 {
			t.Error("... and more errors")
			break
		}
	}
	if errorCount > 0 {
		t.Errorf("Concurrent read-write test had %d errors", errorCount)
	}

	if got := repo.getCallCount("Create"); got != numWriters*operationsPerWorker {
		t.Errorf("Expected %d creates, got %d", numWriters*operationsPerWorker, got)
	}
}

func BenchmarkQueryLoad(b *testing.B) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		b.Fatalf("Failed to create DI container: %v", err)
	}
	ctx := context.Background()
	repo := newMockSeriesRepository(demo.GenerateSeries(1000))

	b.Run("cached_page", func(b *testing.B) {
		q, err := NewQuery(container, cache.Key("bench", "cached"), pagedFetcher(repo), paging.WithStaleTime[series](time.Hour))
		if err != nil {
			b.Fatal(err)
		}
		defer q.Close()
		if _, err := q.Load(ctx); err != nil {
			b.Fatal(err)
		}

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := q.Load(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("refetch_page", func(b *testing.B) {
		q, err := NewQuery(container, cache.Key("bench", "refetch"), pagedFetcher(repo))
		if err != nil {
			b.Fatal(err)
		}
		defer q.Close()

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := q.Refetch(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("navigate_cached_pages", func(b *testing.B) {
		q, err := NewQuery(container, cache.Key("bench", "navigate"), pagedFetcher(repo), paging.WithStaleTime[series](time.Hour))
		if err != nil {
			b.Fatal(err)
		}
		defer q.Close()
		if _, err := q.Load(ctx); err != nil {
			b.Fatal(err)
		}
		pages := q.Status().PageCount
		for p := 0; p < pages; p++ {
			q.GotoPage(p)
			if _, err := q.Load(ctx); err != nil {
				b.Fatal(err)
			}
		}

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			q.GotoPage(i % pages)
			if _, err := q.Load(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkDeriveFetchAll(b *testing.B) {
	items := demo.GenerateSeries(5000)
	status := paging.Status[series]{
		PageSize:   50,
		PageCount:  paging.PageCount(len(items), 50),
		TotalCount: len(items),
		FetchAll:   true,
		Result:     &paging.PageResult[series]{Items: items, Total: len(items)},
	}

	preds := map[string]filter.Predicate[series]{
		"none":     nil,
		"contains": filter.TitleContains("42", demo.SeriesTitle),
		"fuzzy":    filter.FuzzyTitle("s42", demo.SeriesTitle),
		"audio":    filter.IncludeAny([]string{"en"}, demo.SeriesAudioCodes),
	}

	for name, pred := range preds {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = view.Derive(status, pred)
			}
		})
	}
}
