package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsPath is the well-known path for robots.txt files.
const robotsPath = "/robots.txt"

// maxRobotsBytes limits how much of a robots.txt response is read.
const maxRobotsBytes = 512 * 1024

// defaultRobotsTTL is how long a parsed robots.txt stays cached per host.
const defaultRobotsTTL = time.Hour

// RobotsChecker answers whether the crawler may fetch a URL under the
// target host's robots.txt, caching parsed rules per host. An unreachable
// or non-2xx robots.txt degrades to allow-all.
type RobotsChecker struct {
	httpClient *http.Client
	userAgent  string
	ttl        time.Duration

	mu    sync.RWMutex
	hosts map[string]*robotsEntry
}

type robotsEntry struct {
	rules     *robotstxt.RobotsData
	fetchedAt time.Time
	allowAll  bool
}

// NewRobotsChecker creates a checker using the given client and agent.
func NewRobotsChecker(httpClient *http.Client, userAgent string, ttl time.Duration) *RobotsChecker {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if ttl <= 0 {
		ttl = defaultRobotsTTL
	}

	return &RobotsChecker{
		httpClient: httpClient,
		userAgent:  userAgent,
		ttl:        ttl,
		hosts:      make(map[string]*robotsEntry),
	}
}

// Allowed reports whether rawURL may be fetched under its host's robots.txt.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) (bool, error) {
	parsed, parseErr := url.Parse(rawURL)
	if parseErr != nil {
		return false, fmt.Errorf("robots: parse url: %w", parseErr)
	}

	host := strings.ToLower(parsed.Host)
	if host == "" {
		return false, fmt.Errorf("robots: no host in url %q", rawURL)
	}

	entry := r.lookup(host)
	if entry == nil {
		entry = r.refresh(ctx, host, parsed.Scheme)
	}

	if entry.allowAll {
		return true, nil
	}

	return entry.rules.TestAgent(parsed.Path, r.userAgent), nil
}

// CrawlDelay returns the crawl-delay robots.txt declares for the crawler's
// agent on the host, or zero when none is cached or declared.
func (r *RobotsChecker) CrawlDelay(host string) time.Duration {
	entry := r.lookup(strings.ToLower(host))
	if entry == nil || entry.allowAll {
		return 0
	}

	group := entry.rules.FindGroup(r.userAgent)
	if group == nil {
		return 0
	}

	return group.CrawlDelay
}

func (r *RobotsChecker) lookup(host string) *robotsEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.hosts[host]
	if !ok || time.Since(entry.fetchedAt) > r.ttl {
		return nil
	}

	return entry
}

// refresh fetches and parses the host's robots.txt, caching the outcome.
// Every failure path caches allow-all so one bad robots.txt never blocks
// a crawl or triggers repeated refetches.
func (r *RobotsChecker) refresh(ctx context.Context, host, scheme string) *robotsEntry {
	if scheme == "" {
		scheme = "https"
	}

	entry := &robotsEntry{fetchedAt: time.Now(), allowAll: true}

	body, status, fetchErr := r.fetchRobots(ctx, scheme+"://"+host+robotsPath)
	if fetchErr == nil && status >= http.StatusOK && status < http.StatusMultipleChoices {
		if rules, parseErr := robotstxt.FromBytes(body); parseErr == nil {
			entry.rules = rules
			entry.allowAll = false
		}
	}

	r.mu.Lock()
	r.hosts[host] = entry
	r.mu.Unlock()

	return entry
}

func (r *RobotsChecker) fetchRobots(ctx context.Context, robotsURL string) ([]byte, int, error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, http.NoBody)
	if reqErr != nil {
		return nil, 0, fmt.Errorf("robots: create request: %w", reqErr)
	}

	req.Header.Set("User-Agent", r.userAgent)

	resp, doErr := r.httpClient.Do(req)
	if doErr != nil {
		return nil, 0, fmt.Errorf("robots: fetch: %w", doErr)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if readErr != nil {
		return nil, resp.StatusCode, fmt.Errorf("robots: read body: %w", readErr)
	}

	return body, resp.StatusCode, nil
}
