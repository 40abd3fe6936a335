package feed

import (
	"bytes"
	"strings"
	"testing"
)

const rewriteRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Show</title>
    <item>
      <title>Episode A</title>
      <guid>guid-a</guid>
      <enclosure url="https://cdn.example.com/a.mp3" type="audio/mpeg" length="1"/>
    </item>
    <item>
      <title>Episode B</title>
      <guid>guid-b</guid>
      <enclosure url="https://cdn.example.com/b.mp3" type="audio/mpeg" length="1"/>
    </item>
  </channel>
</rss>`

func newTestRewriter(t *testing.T) *Rewriter {
	t.Helper()
	return NewRewriter(newTestFetcher(t), "[Ad-Free]")
}

func TestRewriteDocumentReplacesAndTags(t *testing.T) {
	rw := newTestRewriter(t)
	out, err := rw.RewriteDocument([]byte(rewriteRSS), []Replacement{
		{OriginalURL: "https://cdn.example.com/a.mp3", PublishedURL: "https://store.test/a.mp3"},
	})
	if err != nil {
		t.Fatalf("RewriteDocument: %v", err)
	}
	doc := string(out)
	if strings.Contains(doc, "https://cdn.example.com/a.mp3") {
		t.Fatal("original enclosure URL survived rewrite")
	}
	if !strings.Contains(doc, "https://store.test/a.mp3") {
		t.Fatal("published URL missing from rewritten document")
	}
	if !strings.Contains(doc, "[Ad-Free] Episode A") {
		t.Fatal("replaced episode title not tagged")
	}
	if !strings.Contains(doc, "[Ad-Free] Example Show") {
		t.Fatal("feed title not tagged")
	}
	// Episode B was not processed and must keep its original enclosure and title.
	if !strings.Contains(doc, "https://cdn.example.com/b.mp3") {
		t.Fatal("untouched episode enclosure was modified")
	}
	if strings.Contains(doc, "[Ad-Free] Episode B") {
		t.Fatal("untouched episode title was tagged")
	}
}

func TestRewriteDocumentIsIdempotent(t *testing.T) {
	rw := newTestRewriter(t)
	replacements := []Replacement{
		{OriginalURL: "https://cdn.example.com/a.mp3", PublishedURL: "https://store.test/a.mp3"},
		{OriginalURL: "https://cdn.example.com/b.mp3", PublishedURL: "https://store.test/b.mp3"},
	}
	once, err := rw.RewriteDocument([]byte(rewriteRSS), replacements)
	if err != nil {
		t.Fatalf("first rewrite: %v", err)
	}
	twice, err := rw.RewriteDocument(once, replacements)
	if err != nil {
		t.Fatalf("second rewrite: %v", err)
	}
	if !bytes.Equal(once, twice) {
		t.Fatalf("second rewrite changed the document:\nfirst:\n%s\nsecond:\n%s", once, twice)
	}
	if strings.Contains(string(twice), "[Ad-Free] [Ad-Free]") {
		t.Fatal("tag applied twice")
	}
}

func TestRewriteDocumentHandlesCDATATitles(t *testing.T) {
	body := `<?xml version="1.0"?>
<rss version="2.0"><channel><title><![CDATA[Show & Tell]]></title>
<item><title><![CDATA[Ep <1>]]></title><guid>g</guid>
<enclosure url="https://cdn.example.com/1.mp3" type="audio/mpeg" length="1"/></item>
</channel></rss>`
	rw := newTestRewriter(t)
	out, err := rw.RewriteDocument([]byte(body), []Replacement{
		{OriginalURL: "https://cdn.example.com/1.mp3", PublishedURL: "https://store.test/1.mp3"},
	})
	if err != nil {
		t.Fatalf("RewriteDocument: %v", err)
	}
	doc := string(out)
	if !strings.Contains(doc, "[Ad-Free] Ep <1>") {
		t.Fatalf("CDATA title not tagged inside its section:\n%s", doc)
	}
	if !strings.Contains(doc, "[Ad-Free] Show & Tell") {
		t.Fatalf("CDATA feed title not tagged:\n%s", doc)
	}
}

func TestRewriteScopedFallback(t *testing.T) {
	// An unquoted attribute value trips the tokenizer even in permissive
	// mode, forcing the scoped string rewrite.
	body := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Show</title><meta flag=oops></meta>
<item><title>Episode A</title><guid>guid-a</guid>
<enclosure url="https://cdn.example.com/a.mp3" type="audio/mpeg" length="1"/></item>
<item><title>Episode B</title><guid>guid-b</guid>
<enclosure url="https://cdn.example.com/b.mp3" type="audio/mpeg" length="1"/></item>
</channel></rss>`
	rw := newTestRewriter(t)
	out, err := rw.RewriteDocument([]byte(body), []Replacement{
		{OriginalURL: "https://cdn.example.com/a.mp3", PublishedURL: "https://store.test/a.mp3"},
	})
	if err != nil {
		t.Fatalf("RewriteDocument: %v", err)
	}
	doc := string(out)
	if !strings.Contains(doc, "https://store.test/a.mp3") {
		t.Fatal("scoped rewrite did not replace the enclosure URL")
	}
	if !strings.Contains(doc, "[Ad-Free] Episode A") {
		t.Fatal("scoped rewrite did not tag the replaced title")
	}
	if !strings.Contains(doc, "https://cdn.example.com/b.mp3") {
		t.Fatal("scoped rewrite touched an unprocessed episode")
	}
	if strings.Contains(doc, "[Ad-Free] Episode B") {
		t.Fatal("scoped rewrite tagged an unprocessed episode")
	}
	// Everything outside item blocks (other than the feed title) stays
	// byte-identical, including the malformed marker.
	if !strings.Contains(doc, "<meta flag=oops>") {
		t.Fatal("scoped rewrite modified content outside item blocks")
	}
}

func TestTagIdempotent(t *testing.T) {
	rw := newTestRewriter(t)
	if got := rw.Tag("Episode"); got != "[Ad-Free] Episode" {
		t.Fatalf("Tag = %q", got)
	}
	if got := rw.Tag("[Ad-Free] Episode"); got != "[Ad-Free] Episode" {
		t.Fatalf("Tag re-applied: %q", got)
	}
	if !rw.Tagged("  [Ad-Free] Episode") {
		t.Fatal("Tagged should ignore leading whitespace")
	}
	if rw.Tagged("Episode") {
		t.Fatal("Tagged false positive")
	}
}
