package discovery_test

import (
	"testing"

	"github.com/sentineliq/harvester/internal/discovery"
)

const testRSSFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Example Blog</title>
	<link>https://example.com</link>
	<item>
		<title>First Post</title>
		<link>https://example.com/posts/first</link>
	</item>
	<item>
		<title>GUID Only</title>
		<guid>https://example.com/posts/guid-only</guid>
	</item>
	<item>
		<title>No Link At All</title>
		<guid isPermaLink="false">internal-id-123</guid>
	</item>
</channel>
</rss>`

const testAtomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>Example Feed</title>
	<entry>
		<title>Atom Entry</title>
		<link href="https://example.com/atom/entry"/>
		<id>urn:uuid:1</id>
	</entry>
</feed>`

func TestParseFeedRSS(t *testing.T) {
	t.Parallel()

	urls, err := discovery.ParseFeed(testRSSFeed)
	if err != nil {
		t.Fatalf("ParseFeed: %v", err)
	}

	want := []string{
		"https://example.com/posts/first",
		"https://example.com/posts/guid-only",
	}

	if len(urls) != len(want) {
		t.Fatalf("got %d urls, want %d: %v", len(urls), len(want), urls)
	}
	for i, u := range want {
		if urls[i] != u {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], u)
		}
	}
}

func TestParseFeedAtom(t *testing.T) {
	t.Parallel()

	urls, err := discovery.ParseFeed(testAtomFeed)
	if err != nil {
		t.Fatalf("ParseFeed: %v", err)
	}

	if len(urls) != 1 || urls[0] != "https://example.com/atom/entry" {
		t.Errorf("urls = %v", urls)
	}
}

func TestParseFeedInvalid(t *testing.T) {
	t.Parallel()

	if _, err := discovery.ParseFeed("not a feed at all"); err == nil {
		t.Fatal("expected error for invalid feed body")
	}
}
