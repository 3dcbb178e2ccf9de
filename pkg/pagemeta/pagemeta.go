// Package pagemeta fetches a web page and extracts the text signals used for
// description and keyword generation: title, meta tags, headings and a slice
// of body text.
package pagemeta

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	maxBodyChars = 2000
)

var ErrFetchFailed = errors.New("pagemeta: fetch failed")

// Content is the extracted page text. Fields may be empty when the page does
// not provide them.
type Content struct {
	Title           string
	MetaDescription string
	MetaKeywords    string
	H1              []string
	H2              []string
	BodyText        string
}

// Summary flattens the content into a prompt-friendly block.
func (c *Content) Summary() string {
	var b strings.Builder
	if c.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", c.Title)
	}
	if c.MetaDescription != "" {
		fmt.Fprintf(&b, "Description: %s\n", c.MetaDescription)
	}
	if c.MetaKeywords != "" {
		fmt.Fprintf(&b, "Keywords: %s\n", c.MetaKeywords)
	}
	if len(c.H1) > 0 {
		fmt.Fprintf(&b, "Headings: %s\n", strings.Join(c.H1, "; "))
	}
	if len(c.H2) > 0 {
		fmt.Fprintf(&b, "Subheadings: %s\n", strings.Join(c.H2, "; "))
	}
	if c.BodyText != "" {
		fmt.Fprintf(&b, "Content: %s\n", c.BodyText)
	}
	return b.String()
}

// Fetcher downloads pages with a desktop user agent and a bounded timeout.
type Fetcher struct {
	timeout time.Duration
	http    *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{timeout: timeout, http: &http.Client{}}
}

// Fetch downloads and parses the page at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Content, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return Extract(doc), nil
}

// Extract walks a parsed document and collects the text signals.
func Extract(doc *html.Node) *Content {
	c := &Content{}
	var body strings.Builder
	inBody := false

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "svg", "nav", "footer":
				return
			case "title":
				if c.Title == "" {
					c.Title = nodeText(n)
				}
			case "meta":
				name := strings.ToLower(attr(n, "name"))
				switch name {
				case "description":
					c.MetaDescription = attr(n, "content")
				case "keywords":
					c.MetaKeywords = attr(n, "content")
				}
				if c.MetaDescription == "" && attr(n, "property") == "og:description" {
					c.MetaDescription = attr(n, "content")
				}
			case "h1":
				if t := nodeText(n); t != "" {
					c.H1 = append(c.H1, t)
				}
			case "h2":
				if t := nodeText(n); t != "" {
					c.H2 = append(c.H2, t)
				}
			case "body":
				inBody = true
			}
		}
		if n.Type == html.TextNode && inBody && body.Len() < maxBodyChars {
			if t := strings.TrimSpace(n.Data); t != "" {
				body.WriteString(t)
				body.WriteByte(' ')
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	text := strings.TrimSpace(body.String())
	if len(text) > maxBodyChars {
		text = text[:maxBodyChars]
	}
	c.BodyText = text
	return c
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
