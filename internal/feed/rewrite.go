package feed

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/duarteocarmo/limpa/internal/services"
)

// Replacement maps a processed episode's original enclosure URL to its
// published ad-free URL.
type Replacement struct {
	OriginalURL  string
	PublishedURL string
}

// Rewriter rewrites origin feed documents for republication. The primary
// strategy parses the document as a tree and mutates matched nodes; a scoped
// pattern substitution takes over only when structural parsing fails. The two
// strategies are never mixed within one output.
type Rewriter struct {
	fetcher *Fetcher
	tag     string
}

// NewRewriter constructs a rewriter stamping titles with the given ad-free tag.
func NewRewriter(fetcher *Fetcher, tag string) *Rewriter {
	return &Rewriter{fetcher: fetcher, tag: strings.TrimSpace(tag)}
}

// Rewrite re-fetches the origin feed fresh and applies all replacements.
// Episodes outside the replacement set are left byte-identical.
func (r *Rewriter) Rewrite(ctx context.Context, url string, replacements []Replacement) ([]byte, error) {
	raw, err := r.fetcher.fetchRaw(ctx, url)
	if err != nil {
		return nil, services.Wrap(services.ErrFeed, "rewrite", "fetch", url, err)
	}
	return r.RewriteDocument(raw, replacements)
}

// RewriteDocument applies replacements to an already-fetched feed document.
func (r *Rewriter) RewriteDocument(raw []byte, replacements []Replacement) ([]byte, error) {
	byOriginal := make(map[string]string, len(replacements))
	for _, rep := range replacements {
		if rep.OriginalURL != "" && rep.PublishedURL != "" {
			byOriginal[rep.OriginalURL] = rep.PublishedURL
		}
	}

	if out, err := r.rewriteStructured(raw, byOriginal); err == nil {
		return out, nil
	}
	return r.rewriteScoped(raw, byOriginal)
}

// TitleTagged reports whether a title already carries the ad-free tag.
func TitleTagged(tag, title string) bool {
	tag = strings.TrimSpace(tag)
	return tag == "" || strings.HasPrefix(strings.TrimSpace(title), tag)
}

// TagTitle prefixes a title with the ad-free tag, idempotently.
func TagTitle(tag, title string) string {
	if TitleTagged(tag, title) {
		return title
	}
	return strings.TrimSpace(tag) + " " + strings.TrimSpace(title)
}

// Tagged reports whether a title already carries the ad-free tag.
func (r *Rewriter) Tagged(title string) bool {
	return TitleTagged(r.tag, title)
}

// Tag prefixes a title with the ad-free tag, idempotently.
func (r *Rewriter) Tag(title string) string {
	return TagTitle(r.tag, title)
}

func (r *Rewriter) rewriteStructured(raw []byte, byOriginal map[string]string) ([]byte, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("parse feed document: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("parse feed document: no root element")
	}

	items := doc.FindElements("//item")
	items = append(items, doc.FindElements("//entry")...)
	for _, item := range items {
		if replaceEnclosures(item, byOriginal) {
			r.tagTitleElement(item.SelectElement("title"))
		}
	}

	if feedTitle := findFeedTitle(doc); feedTitle != nil {
		r.tagTitleElement(feedTitle)
	}

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize feed document: %w", err)
	}
	return out, nil
}

// replaceEnclosures rewrites enclosure URLs within one item element and
// reports whether anything matched.
func replaceEnclosures(item *etree.Element, byOriginal map[string]string) bool {
	replaced := false
	for _, child := range item.ChildElements() {
		switch child.Tag {
		case "enclosure":
			if attr := child.SelectAttr("url"); attr != nil {
				if published, ok := byOriginal[strings.TrimSpace(attr.Value)]; ok {
					attr.Value = published
					replaced = true
				}
			}
		case "link":
			if rel := child.SelectAttrValue("rel", ""); rel != "enclosure" {
				continue
			}
			if attr := child.SelectAttr("href"); attr != nil {
				if published, ok := byOriginal[strings.TrimSpace(attr.Value)]; ok {
					attr.Value = published
					replaced = true
				}
			}
		}
	}
	return replaced
}

func (r *Rewriter) tagTitleElement(title *etree.Element) {
	if title == nil || r.tag == "" {
		return
	}
	text := title.Text()
	if r.Tagged(text) {
		return
	}
	if cd, ok := firstChild(title).(*etree.CharData); ok && cd.IsCData() {
		title.SetCData(r.Tag(text))
		return
	}
	title.SetText(r.Tag(text))
}

func firstChild(e *etree.Element) etree.Token {
	if len(e.Child) == 0 {
		return nil
	}
	return e.Child[0]
}

func findFeedTitle(doc *etree.Document) *etree.Element {
	if channelTitle := doc.FindElement("//channel/title"); channelTitle != nil {
		return channelTitle
	}
	root := doc.Root()
	if root != nil && root.Tag == "feed" {
		return root.SelectElement("title")
	}
	return nil
}

var (
	itemBlockRe  = regexp.MustCompile(`(?s)<item[\s>].*?</item>`)
	entryBlockRe = regexp.MustCompile(`(?s)<entry[\s>].*?</entry>`)
	titleRe      = regexp.MustCompile(`(?s)(<title[^>]*>)(.*?)(</title>)`)
)

// rewriteScoped is the fallback strategy: plain substitution bounded to one
// episode's element so a duplicate URL substring elsewhere cannot corrupt an
// unrelated episode.
func (r *Rewriter) rewriteScoped(raw []byte, byOriginal map[string]string) ([]byte, error) {
	doc := string(raw)

	rewriteBlock := func(block string) string {
		replaced := false
		for original, published := range byOriginal {
			if strings.Contains(block, original) {
				block = strings.ReplaceAll(block, original, published)
				replaced = true
			}
		}
		if replaced {
			block = r.tagTitleText(block)
		}
		return block
	}
	doc = itemBlockRe.ReplaceAllStringFunc(doc, rewriteBlock)
	doc = entryBlockRe.ReplaceAllStringFunc(doc, rewriteBlock)

	// Feed-level title: the first title before any episode block.
	firstItem := len(doc)
	if loc := itemBlockRe.FindStringIndex(doc); loc != nil {
		firstItem = loc[0]
	}
	if loc := entryBlockRe.FindStringIndex(doc); loc != nil && loc[0] < firstItem {
		firstItem = loc[0]
	}
	head := r.tagTitleText(doc[:firstItem])
	return []byte(head + doc[firstItem:]), nil
}

// tagTitleText tags the first title element in the fragment, tolerating CDATA.
func (r *Rewriter) tagTitleText(fragment string) string {
	if r.tag == "" {
		return fragment
	}
	done := false
	return titleRe.ReplaceAllStringFunc(fragment, func(match string) string {
		if done {
			return match
		}
		done = true
		parts := titleRe.FindStringSubmatch(match)
		open, content, closing := parts[1], parts[2], parts[3]
		inner := content
		cdata := strings.HasPrefix(strings.TrimSpace(inner), "<![CDATA[")
		if cdata {
			inner = strings.TrimSpace(inner)
			inner = strings.TrimPrefix(inner, "<![CDATA[")
			inner = strings.TrimSuffix(inner, "]]>")
		}
		if r.Tagged(inner) {
			return match
		}
		tagged := r.Tag(inner)
		if cdata {
			return open + "<![CDATA[" + tagged + "]]>" + closing
		}
		return open + tagged + closing
	})
}
