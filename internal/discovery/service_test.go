package discovery

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/procurehq/vendorscout/internal/cache"
	"github.com/procurehq/vendorscout/internal/cache/memcache"
	"github.com/procurehq/vendorscout/internal/fetch"
	"github.com/procurehq/vendorscout/internal/pipeline"
	"github.com/procurehq/vendorscout/internal/registry"
	"github.com/procurehq/vendorscout/internal/search"
)

// countingFetcher serves the same product page for every URL and counts
// fetches, so tests can prove the cache short-circuits the pipeline.
type countingFetcher struct {
	calls atomic.Int64
}

const testPage = `<html><head>
<meta property="og:title" content="ThinkPad X1 Carbon Gen 12 Laptop">
</head><body>
<span>$1,649.99</span><span>$1,649.99</span>
<p>In stock - ships today</p>
<p>sales@cdw.com</p>
</body></html>`

func (c *countingFetcher) Fetch(_ context.Context, targetURL string) (*fetch.Result, error) {
	c.calls.Add(1)
	return &fetch.Result{
		URL:        targetURL,
		StatusCode: 200,
		Body:       []byte(testPage),
		FetchedAt:  time.Now().UTC(),
	}, nil
}

func newTestService(t *testing.T, urls []string, fetcher pipeline.PageFetcher, store cache.Store) *Service {
	t.Helper()

	reg := registry.Default()
	provider := search.ProviderFunc(func(_ context.Context, _ string, _ []string, _ int) ([]string, error) {
		return urls, nil
	})

	retriever := pipeline.NewRetriever(provider, reg, nil)
	extractor := pipeline.NewExtractor(fetcher, reg, nil, nil)
	validator := pipeline.NewValidator(reg, nil, nil)
	ranker := pipeline.NewRanker(reg)

	return New(retriever, extractor, validator, ranker, store, nil, Options{Concurrency: 2}, nil)
}

func TestHandleCachesSecondCall(t *testing.T) {
	urls := []string{
		"https://www.cdw.com/product/a",
		"https://www.cdw.com/product/b",
	}
	fetcher := &countingFetcher{}
	svc := newTestService(t, urls, fetcher, memcache.New())

	req := Request{Query: "thinkpad x1", PageSize: 10}

	first, err := svc.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("first Handle failed: %v", err)
	}
	if first.Summary.Found != 2 {
		t.Fatalf("first run found %d candidates, want 2", first.Summary.Found)
	}
	fetchesAfterFirst := fetcher.calls.Load()
	if fetchesAfterFirst == 0 {
		t.Fatal("first run did not fetch anything")
	}

	second, err := svc.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("second Handle failed: %v", err)
	}
	if fetcher.calls.Load() != fetchesAfterFirst {
		t.Errorf("second identical request fetched pages: %d calls, want %d", fetcher.calls.Load(), fetchesAfterFirst)
	}
	if len(second.Results) != len(first.Results) {
		t.Fatalf("cached response has %d results, want %d", len(second.Results), len(first.Results))
	}
	for i := range first.Results {
		if second.Results[i].PurchaseURL != first.Results[i].PurchaseURL {
			t.Errorf("result %d differs between cached and fresh response", i)
		}
	}
}

func TestHandleRefreshBypassesCache(t *testing.T) {
	urls := []string{"https://www.cdw.com/product/a"}
	fetcher := &countingFetcher{}
	svc := newTestService(t, urls, fetcher, memcache.New())

	req := Request{Query: "thinkpad x1", PageSize: 10}
	if _, err := svc.Handle(context.Background(), req); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	before := fetcher.calls.Load()

	req.Refresh = true
	if _, err := svc.Handle(context.Background(), req); err != nil {
		t.Fatalf("refresh Handle failed: %v", err)
	}
	if fetcher.calls.Load() == before {
		t.Error("refresh did not re-run the pipeline")
	}
}

func TestHandleEmptyQuery(t *testing.T) {
	svc := newTestService(t, nil, &countingFetcher{}, memcache.New())

	if _, err := svc.Handle(context.Background(), Request{}); err == nil {
		t.Error("expected an error for an empty query")
	}
}

func TestHandleZeroCandidatesIsValid(t *testing.T) {
	// Provider returns nothing; the response is an empty page, not an error.
	svc := newTestService(t, nil, &countingFetcher{}, memcache.New())

	resp, err := svc.Handle(context.Background(), Request{Query: "unobtainium", PageSize: 10})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if resp.Summary.Found != 0 || len(resp.Results) != 0 {
		t.Errorf("expected empty result set, got %+v", resp.Summary)
	}
}

func TestHandlePastEndPage(t *testing.T) {
	urls := []string{"https://www.cdw.com/product/a"}
	svc := newTestService(t, urls, &countingFetcher{}, memcache.New())

	resp, err := svc.Handle(context.Background(), Request{Query: "thinkpad", Page: 40, PageSize: 10})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("past-end page returned %d results, want 0", len(resp.Results))
	}
	if resp.Summary.Found != 1 {
		t.Errorf("Summary.Found = %d, want full set size 1", resp.Summary.Found)
	}
}

func TestHandleConcurrentIdenticalRequests(t *testing.T) {
	urls := []string{
		"https://www.cdw.com/product/a",
		"https://www.cdw.com/product/b",
		"https://www.cdw.com/product/c",
	}
	fetcher := &countingFetcher{}
	svc := newTestService(t, urls, fetcher, memcache.New())

	req := Request{Query: "thinkpad x1", PageSize: 10}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Handle(context.Background(), req); err != nil {
				t.Errorf("concurrent Handle failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// Single flight: the pipeline ran once no matter how many callers raced.
	if got := fetcher.calls.Load(); got != int64(len(urls)) {
		t.Errorf("fetch calls = %d, want %d (one pipeline run)", got, len(urls))
	}
}
