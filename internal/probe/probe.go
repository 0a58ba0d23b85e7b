// Package probe fetches a web endpoint the build actor reported and
// condenses the page into evidence the verify actor can reason about.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	htmldom "golang.org/x/net/html"
)

const (
	fetchTimeout  = 15 * time.Second
	maxBodyBytes  = 2 << 20
	maxTextSample = 2000
	maxLinks      = 30
)

// Report is the condensed view of one fetched page.
type Report struct {
	URL        string   `json:"url"`
	StatusCode int      `json:"status_code"`
	Title      string   `json:"title"`
	TextSample string   `json:"text_sample"`
	Links      []string `json:"links,omitempty"`
	Forms      int      `json:"forms"`
}

func Fetch(ctx context.Context, rawURL string) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("probe: bad url %q: %w", rawURL, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe: fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("probe: parse %s: %w", rawURL, err)
	}

	report := &Report{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Title:      strings.TrimSpace(doc.Find("title").First().Text()),
		Forms:      doc.Find("form").Length(),
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") {
			return true
		}
		report.Links = append(report.Links, absolute(rawURL, href))
		return len(report.Links) < maxLinks
	})

	if len(doc.Selection.Nodes) > 0 {
		report.TextSample = visibleText(doc.Selection.Nodes[0], maxTextSample)
	}
	return report, nil
}

// Summary renders the report as a compact prompt block.
func (r *Report) Summary() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("URL: %s\n", r.URL))
	sb.WriteString(fmt.Sprintf("HTTP status: %d\n", r.StatusCode))
	sb.WriteString(fmt.Sprintf("Title: %s\n", r.Title))
	sb.WriteString(fmt.Sprintf("Forms on page: %d\n", r.Forms))
	if len(r.Links) > 0 {
		sb.WriteString(fmt.Sprintf("Links (%d): %s\n", len(r.Links), strings.Join(r.Links, ", ")))
	}
	if r.TextSample != "" {
		sb.WriteString("Visible text:\n" + r.TextSample + "\n")
	}
	return sb.String()
}

func absolute(base, href string) string {
	u, err := url.Parse(href)
	if err != nil || href == "" {
		return href
	}
	if u.IsAbs() {
		return u.String()
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	return bu.ResolveReference(u).String()
}

// visibleText walks the DOM collecting text nodes, skipping script and
// style subtrees, until the budget is spent.
func visibleText(root *htmldom.Node, budget int) string {
	var sb strings.Builder
	var walk func(n *htmldom.Node)
	walk = func(n *htmldom.Node) {
		if sb.Len() >= budget {
			return
		}
		if n.Type == htmldom.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == htmldom.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	out := sb.String()
	if len(out) > budget {
		out = out[:budget] + "..."
	}
	return out
}
