package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sentineliq/harvester/internal/fetch"
)

const testUserAgent = "harvester-test/1.0"

func TestClientGet(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != testUserAgent {
			t.Errorf("User-Agent = %q, want %q", got, testUserAgent)
		}

		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>page body</html>"))
	}))
	defer server.Close()

	client := fetch.NewClient(server.Client(), testUserAgent, 0)

	resp, err := client.Get(context.Background(), server.URL, nil, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.Body != "<html>page body</html>" {
		t.Errorf("Body = %q", resp.Body)
	}
	if resp.ETag == nil || *resp.ETag != `"v1"` {
		t.Errorf("ETag = %v, want %q", resp.ETag, `"v1"`)
	}
	if resp.LastModified == nil {
		t.Error("LastModified not captured")
	}
	if resp.Elapsed <= 0 {
		t.Error("Elapsed not recorded")
	}
}

func TestClientGetSendsConditionalHeaders(t *testing.T) {
	t.Parallel()

	const (
		storedETag     = `"stored"`
		storedModified = "Tue, 03 Jan 2006 10:00:00 GMT"
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("If-None-Match"); got != storedETag {
			t.Errorf("If-None-Match = %q, want %q", got, storedETag)
		}
		if got := r.Header.Get("If-Modified-Since"); got != storedModified {
			t.Errorf("If-Modified-Since = %q, want %q", got, storedModified)
		}

		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	client := fetch.NewClient(server.Client(), testUserAgent, 0)

	etag := storedETag
	modified := storedModified

	resp, err := client.Get(context.Background(), server.URL, &etag, &modified)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if resp.StatusCode != http.StatusNotModified {
		t.Errorf("StatusCode = %d, want 304", resp.StatusCode)
	}
	if resp.Body != "" {
		t.Errorf("304 response carried a body: %q", resp.Body)
	}
}

func TestClientGetCapsBodySize(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1024)))
	}))
	defer server.Close()

	client := fetch.NewClient(server.Client(), testUserAgent, 100)

	resp, err := client.Get(context.Background(), server.URL, nil, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if len(resp.Body) != 100 {
		t.Errorf("body length = %d, want cap of 100", len(resp.Body))
	}
}

func TestClientGetConnectionError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	server.Close()

	client := fetch.NewClient(nil, testUserAgent, 0)

	if _, err := client.Get(context.Background(), server.URL, nil, nil); err == nil {
		t.Fatal("expected error for closed server")
	}
}

func TestClientHead(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}

		w.Header().Set("ETag", `"head-v2"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := fetch.NewClient(server.Client(), testUserAgent, 0)

	resp, err := client.Head(context.Background(), server.URL, nil, nil)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.ETag == nil || *resp.ETag != `"head-v2"` {
		t.Errorf("ETag = %v, want %q", resp.ETag, `"head-v2"`)
	}
}

func TestClientHeadNotModified(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"current"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := fetch.NewClient(server.Client(), testUserAgent, 0)

	etag := `"current"`

	resp, err := client.Head(context.Background(), server.URL, &etag, nil)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}

	if resp.StatusCode != http.StatusNotModified {
		t.Errorf("StatusCode = %d, want 304", resp.StatusCode)
	}
}
