package page

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/raysh454/phishguard/internal/webclient"
)

// Document is a parsed page the interceptor runs against.
type Document struct {
	URL  string
	Root *html.Node
}

// Link is one anchor on a page.
type Link struct {
	Href     string
	Resolved string
	Text     string
	Node     *html.Node
}

// ParseDocument parses the HTML in r as the page at pageURL.
func ParseDocument(pageURL string, r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Document{URL: pageURL, Root: root}, nil
}

// LoadDocument fetches pageURL with wc and parses it. Redirects move the
// document URL to the final location.
func LoadDocument(ctx context.Context, wc webclient.WebClient, pageURL string) (*Document, error) {
	resp, err := wc.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("load page: %s returned %d", pageURL, resp.StatusCode)
	}
	final := resp.FinalURL
	if final == "" {
		final = pageURL
	}
	return ParseDocument(final, bytes.NewReader(resp.Body))
}

func (d *Document) selection() *goquery.Selection {
	return goquery.NewDocumentFromNode(d.Root).Selection
}

// Body returns the body element, creating none; nil when absent.
func (d *Document) Body() *html.Node {
	body := d.selection().Find("body")
	if body.Length() == 0 {
		return nil
	}
	return body.Get(0)
}

// Links lists every anchor with an href, in document order.
func (d *Document) Links() []Link {
	base, _ := url.Parse(d.URL)
	var out []Link
	d.selection().Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		l := Link{
			Href:     href,
			Resolved: href,
			Text:     strings.Join(strings.Fields(s.Text()), " "),
			Node:     s.Get(0),
		}
		if base != nil {
			if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
				l.Resolved = base.ResolveReference(ref).String()
			}
		}
		out = append(out, l)
	})
	return out
}

// FindLink returns the first link whose href, resolved URL or text matches
// match exactly, falling back to a substring match on the resolved URL.
func (d *Document) FindLink(match string) (Link, bool) {
	links := d.Links()
	for _, l := range links {
		if l.Href == match || l.Resolved == match || l.Text == match {
			return l, true
		}
	}
	for _, l := range links {
		if strings.Contains(l.Resolved, match) {
			return l, true
		}
	}
	return Link{}, false
}

// AppendLink adds an anchor to the end of the body, as a script would after
// the page loaded. It returns the anchor's text node, a typical click target.
func (d *Document) AppendLink(href, text string) *html.Node {
	body := d.Body()
	if body == nil {
		return nil
	}
	a := &html.Node{
		Type:     html.ElementNode,
		Data:     "a",
		DataAtom: atom.A,
		Attr:     []html.Attribute{{Key: "href", Val: href}},
	}
	span := &html.Node{Type: html.ElementNode, Data: "span", DataAtom: atom.Span}
	txt := &html.Node{Type: html.TextNode, Data: text}
	span.AppendChild(txt)
	a.AppendChild(span)
	body.AppendChild(a)
	return txt
}

// Overlays counts mounted overlays.
func (d *Document) Overlays() int {
	return d.selection().Find("#" + OverlayID).Length()
}

// OverlayText returns the visible text of the mounted overlay.
func (d *Document) OverlayText() string {
	return strings.Join(strings.Fields(d.selection().Find("#"+OverlayID).Text()), " ")
}
