package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sentineliq/harvester/internal/fetch"
)

const testRobotsTxt = `User-agent: *
Disallow: /private/
Allow: /
`

func newRobotsServer(t *testing.T, robotsBody string, robotsStatus int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var fetches atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fetches.Add(1)
			w.WriteHeader(robotsStatus)
			_, _ = w.Write([]byte(robotsBody))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	return server, &fetches
}

func TestRobotsCheckerAllowed(t *testing.T) {
	t.Parallel()

	server, _ := newRobotsServer(t, testRobotsTxt, http.StatusOK)
	checker := fetch.NewRobotsChecker(server.Client(), testUserAgent, 0)

	allowed, err := checker.Allowed(context.Background(), server.URL+"/articles/one")
	if err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if !allowed {
		t.Error("allowed path reported as disallowed")
	}

	allowed, err = checker.Allowed(context.Background(), server.URL+"/private/secret")
	if err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if allowed {
		t.Error("disallowed path reported as allowed")
	}
}

func TestRobotsCheckerCachesPerHost(t *testing.T) {
	t.Parallel()

	server, fetches := newRobotsServer(t, testRobotsTxt, http.StatusOK)
	checker := fetch.NewRobotsChecker(server.Client(), testUserAgent, time.Hour)

	for i := 0; i < 5; i++ {
		if _, err := checker.Allowed(context.Background(), server.URL+"/page"); err != nil {
			t.Fatalf("Allowed: %v", err)
		}
	}

	if got := fetches.Load(); got != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", got)
	}
}

func TestRobotsCheckerMissingRobotsAllowsAll(t *testing.T) {
	t.Parallel()

	server, _ := newRobotsServer(t, "not found", http.StatusNotFound)
	checker := fetch.NewRobotsChecker(server.Client(), testUserAgent, 0)

	allowed, err := checker.Allowed(context.Background(), server.URL+"/private/anything")
	if err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if !allowed {
		t.Error("missing robots.txt should allow all")
	}
}

func TestRobotsCheckerUnreachableHostAllowsAll(t *testing.T) {
	t.Parallel()

	server, _ := newRobotsServer(t, "", http.StatusOK)
	target := server.URL
	server.Close()

	checker := fetch.NewRobotsChecker(nil, testUserAgent, 0)

	allowed, err := checker.Allowed(context.Background(), target+"/page")
	if err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if !allowed {
		t.Error("unreachable robots.txt should allow all")
	}
}

func TestRobotsCheckerInvalidURL(t *testing.T) {
	t.Parallel()

	checker := fetch.NewRobotsChecker(nil, testUserAgent, 0)

	if _, err := checker.Allowed(context.Background(), "not-a-url"); err == nil {
		t.Fatal("expected error for URL without a host")
	}
}

func TestRobotsCheckerCrawlDelay(t *testing.T) {
	t.Parallel()

	const robotsWithDelay = `User-agent: *
Crawl-delay: 2
Disallow: /private/
`

	server, _ := newRobotsServer(t, robotsWithDelay, http.StatusOK)
	checker := fetch.NewRobotsChecker(server.Client(), testUserAgent, 0)

	if _, err := checker.Allowed(context.Background(), server.URL+"/page"); err != nil {
		t.Fatalf("Allowed: %v", err)
	}

	parsed, _ := http.NewRequest(http.MethodGet, server.URL, http.NoBody)

	if got := checker.CrawlDelay(parsed.URL.Host); got != 2*time.Second {
		t.Errorf("CrawlDelay = %v, want 2s", got)
	}
}

func TestRobotsCheckerCrawlDelayUnknownHost(t *testing.T) {
	t.Parallel()

	checker := fetch.NewRobotsChecker(nil, testUserAgent, 0)

	if got := checker.CrawlDelay("unknown.example.com"); got != 0 {
		t.Errorf("CrawlDelay = %v for uncached host, want 0", got)
	}
}
