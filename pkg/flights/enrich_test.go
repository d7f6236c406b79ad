package flights

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/unklstewy/flightwall/pkg/routes"
)

// countingLookup answers from a fixed table and counts calls per callsign.
type countingLookup struct {
	mu     sync.Mutex
	routes map[string]routes.Route
	fail   map[string]error
	calls  map[string]int
}

func newCountingLookup() *countingLookup {
	return &countingLookup{
		routes: make(map[string]routes.Route),
		fail:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (l *countingLookup) Lookup(ctx context.Context, callsign string) (routes.Route, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[callsign]++
	if err, ok := l.fail[callsign]; ok {
		return routes.Route{}, err
	}
	if r, ok := l.routes[callsign]; ok {
		return r, nil
	}
	return routes.Route{}, routes.ErrNotFound
}

func (l *countingLookup) total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		n += c
	}
	return n
}

func flightsFor(callsigns ...string) []Flight {
	out := make([]Flight, len(callsigns))
	for i, cs := range callsigns {
		out[i] = Flight{Callsign: cs}
	}
	return out
}

func TestEnrichBudget(t *testing.T) {
	lookup := newCountingLookup()
	lookup.routes["AAA1"] = routes.Route{Origin: "KDTW", Destination: "KATL"}
	lookup.routes["BBB2"] = routes.Route{Origin: "KORD", Destination: "KLAX"}

	e := NewEnricher(lookup, nil, EnrichConfig{Enabled: true, MaxNewPerCycle: 2}, quietLogger())

	flights := flightsFor("AAA1", "BBB2", "CCC3", "DDD4", "EEE5")
	stats := e.Enrich(context.Background(), flights)

	if got := lookup.total(); got != 2 {
		t.Fatalf("Expected exactly 2 lookups, got %d", got)
	}
	if stats.Fetched != 2 || stats.Deferred != 3 {
		t.Errorf("Expected 2 fetched and 3 deferred, got %+v", stats)
	}
	if flights[0].Origin == nil || *flights[0].Origin != "KDTW" {
		t.Errorf("Expected AAA1 origin KDTW, got %v", flights[0].Origin)
	}
	if flights[1].Destination == nil || *flights[1].Destination != "KLAX" {
		t.Errorf("Expected BBB2 destination KLAX, got %v", flights[1].Destination)
	}
	for _, fl := range flights[2:] {
		if fl.HasRoute() {
			t.Errorf("Expected %s to stay unresolved", fl.Callsign)
		}
	}

	// Next cycle: cached routes are free, the next two uncached go out.
	flights = flightsFor("AAA1", "BBB2", "CCC3", "DDD4", "EEE5")
	stats = e.Enrich(context.Background(), flights)

	if got := lookup.total(); got != 4 {
		t.Errorf("Expected 4 lookups after second cycle, got %d", got)
	}
	if stats.Cached != 2 || stats.Fetched != 2 || stats.Deferred != 1 {
		t.Errorf("Unexpected second cycle stats: %+v", stats)
	}
	if flights[0].Origin == nil || *flights[0].Origin != "KDTW" {
		t.Errorf("Expected cached AAA1 origin KDTW, got %v", flights[0].Origin)
	}
}

func TestEnrichCacheIdempotent(t *testing.T) {
	lookup := newCountingLookup()
	lookup.routes["DAL2968"] = routes.Route{Origin: "KDTW", Destination: "KMSP"}
	e := NewEnricher(lookup, routes.NewCache(), EnrichConfig{Enabled: true, MaxNewPerCycle: 2}, quietLogger())

	for i := 0; i < 3; i++ {
		flights := flightsFor("DAL2968")
		e.Enrich(context.Background(), flights)
		if flights[0].Origin == nil || *flights[0].Origin != "KDTW" {
			t.Fatalf("Cycle %d: expected origin KDTW, got %v", i, flights[0].Origin)
		}
	}

	if lookup.calls["DAL2968"] != 1 {
		t.Errorf("Expected 1 lookup across cycles, got %d", lookup.calls["DAL2968"])
	}
}

func TestEnrichNotFoundIsCachedAndCounts(t *testing.T) {
	lookup := newCountingLookup()
	e := NewEnricher(lookup, nil, EnrichConfig{Enabled: true, MaxNewPerCycle: 1}, quietLogger())

	flights := flightsFor("GHOST1", "GHOST2")
	stats := e.Enrich(context.Background(), flights)

	if stats.Fetched != 1 || stats.Deferred != 1 {
		t.Errorf("Expected not-found to consume budget, got %+v", stats)
	}
	if flights[0].HasRoute() {
		t.Errorf("Expected no route for GHOST1")
	}

	r, ok := e.Cache().Get("GHOST1")
	if !ok {
		t.Fatal("Expected not-found marker to be cached")
	}
	if r.Resolved() {
		t.Errorf("Expected empty marker, got %+v", r)
	}

	e.Enrich(context.Background(), flightsFor("GHOST1"))
	if lookup.calls["GHOST1"] != 1 {
		t.Errorf("Expected marker to prevent a second lookup, got %d calls", lookup.calls["GHOST1"])
	}
}

func TestEnrichErrorDoesNotCountOrCache(t *testing.T) {
	lookup := newCountingLookup()
	lookup.fail["BAD1"] = errors.New("timeout")
	lookup.routes["GOOD1"] = routes.Route{Origin: "KBOS"}
	lookup.routes["GOOD2"] = routes.Route{Destination: "KSFO"}

	e := NewEnricher(lookup, nil, EnrichConfig{Enabled: true, MaxNewPerCycle: 2}, quietLogger())

	flights := flightsFor("BAD1", "GOOD1", "GOOD2")
	stats := e.Enrich(context.Background(), flights)

	if stats.Failed != 1 || stats.Fetched != 2 {
		t.Errorf("Expected 1 failed and 2 fetched, got %+v", stats)
	}
	if !flights[2].HasRoute() {
		t.Error("Expected GOOD2 to be resolved after BAD1 failed")
	}
	if flights[1].Destination != nil {
		t.Errorf("Expected GOOD1 destination to stay nil, got %s", *flights[1].Destination)
	}
	if _, ok := e.Cache().Get("BAD1"); ok {
		t.Error("Expected failed lookup not to be cached")
	}

	delete(lookup.fail, "BAD1")
	lookup.routes["BAD1"] = routes.Route{Origin: "KJFK"}

	flights = flightsFor("BAD1")
	e.Enrich(context.Background(), flights)
	if flights[0].Origin == nil || *flights[0].Origin != "KJFK" {
		t.Errorf("Expected retry to resolve BAD1, got %v", flights[0].Origin)
	}
}

func TestEnrichSkipsResolvedAndBlank(t *testing.T) {
	lookup := newCountingLookup()
	e := NewEnricher(lookup, nil, EnrichConfig{Enabled: true, MaxNewPerCycle: 5}, quietLogger())

	flights := []Flight{
		{Callsign: "HASROUTE", Origin: ptr("KDTW")},
		{Callsign: "   "},
		{Callsign: ""},
	}
	e.Enrich(context.Background(), flights)

	if got := lookup.total(); got != 0 {
		t.Errorf("Expected no lookups, got %d", got)
	}
	if *flights[0].Origin != "KDTW" {
		t.Errorf("Expected existing origin kept, got %s", *flights[0].Origin)
	}
}

func TestEnrichDisabled(t *testing.T) {
	lookup := newCountingLookup()
	cache := routes.NewCache()
	cache.Put("DAL1", routes.Route{Origin: "KDTW"})

	e := NewEnricher(lookup, cache, EnrichConfig{Enabled: false, MaxNewPerCycle: 2}, quietLogger())
	flights := flightsFor("DAL1", "UAL2")
	e.Enrich(context.Background(), flights)

	if lookup.total() != 0 {
		t.Errorf("Expected no lookups when disabled, got %d", lookup.total())
	}
	if flights[0].HasRoute() {
		t.Error("Expected no enrichment when disabled")
	}
}

func TestEnrichZeroBudgetStillUsesCache(t *testing.T) {
	lookup := newCountingLookup()
	cache := routes.NewCache()
	cache.Put("DAL1", routes.Route{Origin: "KDTW", Destination: "KATL"})

	e := NewEnricher(lookup, cache, EnrichConfig{Enabled: true, MaxNewPerCycle: 0}, quietLogger())
	flights := flightsFor("DAL1", "UAL2")
	e.Enrich(context.Background(), flights)

	if lookup.total() != 0 {
		t.Errorf("Expected no lookups with zero budget, got %d", lookup.total())
	}
	if !flights[0].HasRoute() {
		t.Error("Expected cached route applied with zero budget")
	}
}

func TestEnrichConcurrentSnapshotsShareLookup(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		w.Write([]byte(`{"response":{"flightroute":{"origin":{"icao_code":"KDTW"},"destination":{"icao_code":"KSEA"}}}}`))
	}))
	defer server.Close()

	client := routes.NewClient(routes.Config{BaseURL: server.URL, Timeout: 5 * time.Second})
	e := NewEnricher(client, nil, EnrichConfig{Enabled: true, MaxNewPerCycle: 2}, quietLogger())

	const workers = 8
	results := make([][]Flight, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			flights := flightsFor("dal100")
			e.Enrich(context.Background(), flights)
			results[i] = flights
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("Expected 1 outbound lookup, got %d", got)
	}
	for i, flights := range results {
		if flights[0].Destination == nil || *flights[0].Destination != "KSEA" {
			t.Errorf("Worker %d: expected destination KSEA, got %v", i, flights[0].Destination)
		}
		if !strings.EqualFold(flights[0].Callsign, "dal100") {
			t.Errorf("Worker %d: callsign changed to %s", i, flights[0].Callsign)
		}
	}
}
