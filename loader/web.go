package loader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/poiesic/docqa/core"
)

// userAgent mirrors a desktop browser; some sites refuse the Go default.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// LoadURL fetches a web page and extracts its visible text.
func (l *Loader) LoadURL(ctx context.Context, pageURL string) (*core.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", pageURL, resp.StatusCode)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	text := extractHTMLText(root)
	cleaned := CleanText(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%s: %w", pageURL, ErrNoTextExtracted)
	}

	doc := &core.Document{
		Content:  cleaned,
		Source:   pageURL,
		Filename: urlFilename(pageURL),
		FileType: core.FileTypeWeb,
	}
	doc.Id = core.IDFromContent(doc.Source + "\x00" + doc.Content)
	return doc, nil
}

// skippedElements are subtrees that never contain visible prose.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"head":     true,
	"iframe":   true,
	"svg":      true,
}

// blockElements end a visual line; a newline is emitted after each so the
// chunker still sees paragraph structure.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"li": true, "ul": true, "ol": true, "table": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"br": true, "blockquote": true, "pre": true,
}

// extractHTMLText walks the parsed tree collecting text nodes, skipping
// non-content subtrees.
func extractHTMLText(root *html.Node) string {
	var sb strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if trimmed := strings.TrimSpace(n.Data); trimmed != "" {
				sb.WriteString(trimmed)
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			sb.WriteByte('\n')
		}
	}
	walk(root)

	return sb.String()
}

// urlFilename derives a display name from the last path segment of a URL.
func urlFilename(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "webpage"
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	name := segments[len(segments)-1]
	if name == "" {
		return u.Hostname()
	}
	return name
}
