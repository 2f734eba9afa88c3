package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/pratamalabs/sahamflow/internal/domain"
)

// ArticleSink persists crawled articles. Save reports whether the article
// was new (duplicates by URL are ignored).
type ArticleSink interface {
	Save(article domain.Article) (bool, error)
}

// Summary reports one crawl pass over the configured feeds
type Summary struct {
	NewArticles       int `json:"new_articles"`
	SuccessfulSources int `json:"successful_sources"`
	TotalSources      int `json:"total_sources"`
}

// Crawler fetches RSS feeds and persists new articles
type Crawler struct {
	client *resty.Client
	sink   ArticleSink
	feeds  []string
	log    zerolog.Logger
}

// New creates a crawler over the given RSS feed URLs
func New(feeds []string, timeout time.Duration, sink ArticleSink, log zerolog.Logger) *Crawler {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; sahamflow/1.0)")

	return &Crawler{
		client: client,
		sink:   sink,
		feeds:  feeds,
		log:    log.With().Str("component", "crawler").Logger(),
	}
}

// Crawl fetches every feed; a failing source is logged and skipped, never
// aborts the pass.
func (c *Crawler) Crawl(ctx context.Context) (Summary, error) {
	summary := Summary{TotalSources: len(c.feeds)}

	for _, feed := range c.feeds {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		added, err := c.crawlFeed(ctx, feed)
		if err != nil {
			c.log.Warn().Err(err).Str("feed", feed).Msg("Feed crawl failed")
			continue
		}

		summary.SuccessfulSources++
		summary.NewArticles += added
	}

	c.log.Info().
		Int("new_articles", summary.NewArticles).
		Int("sources_ok", summary.SuccessfulSources).
		Int("sources_total", summary.TotalSources).
		Msg("Crawl complete")

	return summary, nil
}

func (c *Crawler) crawlFeed(ctx context.Context, feedURL string) (int, error) {
	resp, err := c.client.R().SetContext(ctx).Get(feedURL)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch feed: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("feed returned HTTP %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return 0, fmt.Errorf("failed to parse feed: %w", err)
	}

	source := sourceName(feedURL)
	added := 0

	doc.Find("item").Each(func(i int, item *goquery.Selection) {
		title := strings.TrimSpace(item.Find("title").Text())
		if title == "" {
			return
		}

		article := domain.Article{
			Source:      source,
			Title:       title,
			URL:         itemLink(item),
			Summary:     strings.TrimSpace(item.Find("description").Text()),
			PublishedAt: parsePubDate(item.Find("pubdate").Text()),
			FetchedAt:   time.Now(),
		}
		if article.URL == "" {
			return
		}

		inserted, err := c.sink.Save(article)
		if err != nil {
			c.log.Warn().Err(err).Str("url", article.URL).Msg("Failed to persist article")
			return
		}
		if inserted {
			added++
		}
	})

	return added, nil
}

// itemLink extracts the <link> URL from an RSS item. The HTML parser treats
// <link> as a void element, so its URL ends up as a trailing text node.
func itemLink(item *goquery.Selection) string {
	link := item.Find("link")
	if link.Length() == 0 {
		return strings.TrimSpace(item.Find("guid").Text())
	}

	node := link.Get(0)
	if node.NextSibling != nil {
		if url := strings.TrimSpace(node.NextSibling.Data); strings.HasPrefix(url, "http") {
			return url
		}
	}

	if text := strings.TrimSpace(link.Text()); text != "" {
		return text
	}

	return strings.TrimSpace(item.Find("guid").Text())
}

func parsePubDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now()
}

func sourceName(feedURL string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(feedURL, "https://"), "http://")
	if idx := strings.Index(trimmed, "/"); idx > 0 {
		return trimmed[:idx]
	}
	return trimmed
}
