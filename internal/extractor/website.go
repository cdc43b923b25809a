package extractor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// contentSelectors are tried in order before falling back to body.
var contentSelectors = []string{"main", "article", "#content", ".content", "#main", ".main"}

type websiteFetcher struct {
	client    *resty.Client
	maxLength int
}

func newWebsiteFetcher(timeout time.Duration, maxLength int) *websiteFetcher {
	return &websiteFetcher{
		client:    resty.New().SetTimeout(timeout).SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)),
		maxLength: maxLength,
	}
}

// fetch pulls the page, strips markup and boilerplate, and truncates to the
// configured content length. Truncation is not an error.
func (w *websiteFetcher) fetch(ctx context.Context, url string) (string, error) {
	resp, err := w.client.R().SetContext(ctx).Get(url)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return "", fmt.Errorf("%w: %s", ErrFetchTimeout, url)
		}
		return "", fmt.Errorf("%w: fetch %s: %v", ErrExtractionFailed, url, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return "", fmt.Errorf("%w: fetch %s: status %d", ErrExtractionFailed, url, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return "", fmt.Errorf("%w: parse %s: %v", ErrExtractionFailed, url, err)
	}

	doc.Find("script, style, header, footer, nav, noscript, iframe, head").Remove()

	root := doc.Selection
	for _, sel := range contentSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			root = found.First()
			break
		}
	}

	text := whitespaceRe.ReplaceAllString(root.Text(), " ")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: no meaningful text at %s", ErrExtractionFailed, url)
	}

	if len(text) > w.maxLength {
		log.Printf("Truncating website content: %d chars (max %d)", len(text), w.maxLength)
		text = truncateUTF8(text, w.maxLength)
	}

	return text, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
