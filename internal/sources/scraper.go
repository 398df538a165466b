package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/foundersignal/pipeline/internal/logger"
	"github.com/foundersignal/pipeline/internal/retryutil"
)

const (
	scrapeTimeout    = 10 * time.Second
	scrapeContentCap = 5000
	scrapeQueryDelay = 2 * time.Second
	newsResultLimit  = 10
)

// ScrapedPage is the normalized result of one ad-hoc page scrape.
type ScrapedPage struct {
	URL       string
	Title     string
	Content   string
	Metadata  map[string]string
	ScrapedAt time.Time
}

// WebScraper performs ad-hoc scraping for enrichment: news searches, funding
// announcements, job postings and reachability probes.
type WebScraper struct {
	client        *http.Client
	newsSearchURL string
	userAgent     string
	logger        logger.Logger
}

// NewWebScraper creates a web scraper.
func NewWebScraper(client *http.Client, log logger.Logger) *WebScraper {
	if client == nil {
		client = &http.Client{Timeout: scrapeTimeout}
	}
	return &WebScraper{
		client:        client,
		newsSearchURL: "https://news.google.com/search",
		userAgent:     "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		logger:        log,
	}
}

func (w *WebScraper) newCollector() *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(w.userAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(scrapeTimeout)
	return c
}

// ScrapePage fetches one page and extracts its title, main content and
// standard metadata.
func (w *WebScraper) ScrapePage(ctx context.Context, pageURL string) (*ScrapedPage, error) {
	page := &ScrapedPage{
		URL:       pageURL,
		Metadata:  make(map[string]string),
		ScrapedAt: time.Now(),
	}

	c := w.newCollector()
	c.OnHTML("html", func(e *colly.HTMLElement) {
		doc := e.DOM
		page.Title = strings.TrimSpace(doc.Find("title").First().Text())
		if page.Title == "" {
			page.Title = strings.TrimSpace(doc.Find("h1").First().Text())
		}
		page.Content = extractMainContent(doc)
		for name, selector := range map[string]string{
			"description":    `meta[name="description"]`,
			"og_title":       `meta[property="og:title"]`,
			"og_description": `meta[property="og:description"]`,
			"published_time": `meta[property="article:published_time"]`,
		} {
			if val, ok := doc.Find(selector).Attr("content"); ok {
				page.Metadata[name] = val
			}
		}
	})

	var visitErr error
	c.OnError(func(_ *colly.Response, err error) {
		visitErr = err
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", pageURL, err)
	}
	c.Wait()
	if visitErr != nil {
		return nil, fmt.Errorf("failed to scrape %s: %w", pageURL, visitErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return page, nil
}

// ScrapeWithRetry wraps ScrapePage in bounded exponential backoff.
func (w *WebScraper) ScrapeWithRetry(ctx context.Context, pageURL string) (*ScrapedPage, error) {
	var page *ScrapedPage
	err := retryutil.DoWithDefaults(ctx, func() error {
		var scrapeErr error
		page, scrapeErr = w.ScrapePage(ctx, pageURL)
		return scrapeErr
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// SearchNews scrapes a news search result page for the query and returns up
// to newsResultLimit headline entries. A positive days value restricts the
// search to that lookback window via the when: query operator.
func (w *WebScraper) SearchNews(ctx context.Context, query string, days int) ([]ScrapedPage, error) {
	if days > 0 {
		query = fmt.Sprintf("%s when:%dd", query, days)
	}
	searchURL := fmt.Sprintf("%s?q=%s", w.newsSearchURL, url.QueryEscape(query))

	var results []ScrapedPage
	c := w.newCollector()
	c.OnHTML("article", func(e *colly.HTMLElement) {
		if len(results) >= newsResultLimit {
			return
		}
		title := strings.TrimSpace(e.DOM.Find("a").First().Text())
		link := e.ChildAttr("a", "href")
		if title == "" || link == "" {
			return
		}
		results = append(results, ScrapedPage{
			URL:       e.Request.AbsoluteURL(link),
			Title:     title,
			Metadata:  map[string]string{"search_query": query},
			ScrapedAt: time.Now(),
		})
	})

	var visitErr error
	c.OnError(func(_ *colly.Response, err error) {
		visitErr = err
	})

	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to search news: %w", err)
	}
	c.Wait()
	if visitErr != nil {
		return nil, fmt.Errorf("news search failed: %w", visitErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ScrapeFundingAnnouncements runs a fixed set of funding queries for the
// company and dedupes the results. Individual query failures are swallowed.
func (w *WebScraper) ScrapeFundingAnnouncements(ctx context.Context, companyName string) ([]ScrapedPage, error) {
	queries := []string{
		fmt.Sprintf("%q raised funding", companyName),
		fmt.Sprintf("%q series a", companyName),
		fmt.Sprintf("%q seed round", companyName),
		fmt.Sprintf("%q investment", companyName),
	}

	var all []ScrapedPage
	for i, query := range queries {
		results, err := w.SearchNews(ctx, query, 90)
		if err != nil {
			w.logger.Debug("funding announcement search failed",
				logger.String("query", query), logger.Error(err))
		} else {
			all = append(all, results...)
		}
		if i < len(queries)-1 {
			select {
			case <-ctx.Done():
				return dedupePages(all), ctx.Err()
			case <-time.After(scrapeQueryDelay):
			}
		}
	}
	return dedupePages(all), nil
}

// ScrapeJobPostings probes for open roles as a growth signal and returns the
// number of postings found.
func (w *WebScraper) ScrapeJobPostings(ctx context.Context, companyName string) (int, error) {
	results, err := w.SearchNews(ctx, fmt.Sprintf("%q hiring jobs", companyName), 30)
	if err != nil {
		return 0, err
	}
	return len(results), nil
}

// CheckReachability reports whether the URL answers a HEAD request with a
// non-5xx status inside the scrape timeout.
func (w *WebScraper) CheckReachability(ctx context.Context, rawURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, scrapeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, http.NoBody)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

func extractMainContent(doc *goquery.Selection) string {
	doc.Find("script, style, nav, header, footer, aside").Remove()

	for _, selector := range []string{
		"article", ".content", ".post-content", ".entry-content",
		".article-content", "main", ".main-content",
	} {
		content := strings.TrimSpace(doc.Find(selector).Text())
		if len(content) > 100 {
			return truncate(content, scrapeContentCap)
		}
	}
	return truncate(strings.TrimSpace(doc.Find("body").Text()), scrapeContentCap)
}

func dedupePages(pages []ScrapedPage) []ScrapedPage {
	seen := make(map[string]struct{}, len(pages))
	out := pages[:0]
	for _, page := range pages {
		key := page.Title + "-" + page.URL
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, page)
	}
	return out
}
