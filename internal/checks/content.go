// Package checks implements the ANALYSIS/INTELLIGENCE profile checks whose
// internal logic spec.md leaves unspecified: content fetch, header
// analysis, SEO signal extraction, and language detection. The core only
// guarantees these run in dependency order with the right inputs; what they
// compute is this package's business, not the orchestrator's.
package checks

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// PageContent is the content check's output: the parsed page body, reused
// by headers/seo/language so each of them does not refetch it.
type PageContent struct {
	StatusCode    int
	Headers       http.Header
	Title         string
	MetaTags      map[string]string
	Headings      []string // h1..h3 text, in document order
	H1Count       int
	BodyText      string
	ContentLength int
	FetchDuration time.Duration
	Error         error
}

// FetchContent issues a GET against targetURL and parses the returned HTML.
// Errors are reported on the result rather than returned, matching the
// other probes' "always a Result" convention.
func FetchContent(ctx context.Context, targetURL string) PageContent {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return PageContent{Error: err}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return PageContent{Error: err, FetchDuration: time.Since(start)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20)) // cap at 2 MiB
	if err != nil {
		return PageContent{StatusCode: resp.StatusCode, Headers: resp.Header, Error: err}
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return PageContent{StatusCode: resp.StatusCode, Headers: resp.Header, Error: err}
	}

	return PageContent{
		StatusCode:    resp.StatusCode,
		Headers:       resp.Header,
		Title:         extractTitle(doc),
		MetaTags:      extractMetaTags(doc),
		Headings:      extractHeadings(doc),
		H1Count:       countH1(doc),
		BodyText:      extractText(doc),
		ContentLength: len(body),
		FetchDuration: time.Since(start),
	}
}

func extractTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

func extractMetaTags(doc *html.Node) map[string]string {
	tags := make(map[string]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var name, content string
			for _, attr := range n.Attr {
				switch strings.ToLower(attr.Key) {
				case "name", "property":
					name = strings.ToLower(attr.Val)
				case "content":
					content = attr.Val
				}
			}
			if name != "" {
				tags[name] = content
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return tags
}

func extractHeadings(doc *html.Node) []string {
	var headings []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "h1" || n.Data == "h2" || n.Data == "h3") && n.FirstChild != nil {
			headings = append(headings, strings.TrimSpace(n.FirstChild.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return headings
}

func countH1(doc *html.Node) int {
	count := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "h1" {
			count++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return count
}

func extractText(doc *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(b.String())
}
