package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratamalabs/sahamflow/internal/domain"
	"github.com/pratamalabs/sahamflow/pkg/logger"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Berita Saham</title>
<item>
<title>BBCA catat laba bersih rekor</title>
<link>https://news.example.com/bbca-laba</link>
<description>Laba bersih kuartal pertama naik signifikan.</description>
<pubDate>Mon, 02 Mar 2026 08:30:00 +0700</pubDate>
</item>
<item>
<title>TLKM menang tender infrastruktur</title>
<link>https://news.example.com/tlkm-tender</link>
<description>Kontrak baru senilai triliunan rupiah.</description>
<pubDate>Mon, 02 Mar 2026 07:00:00 +0700</pubDate>
</item>
<item>
<title></title>
<link>https://news.example.com/untitled</link>
</item>
</channel>
</rss>`

type memorySink struct {
	saved  []domain.Article
	byURL  map[string]bool
	failOn string
}

func newMemorySink() *memorySink {
	return &memorySink{byURL: make(map[string]bool)}
}

func (s *memorySink) Save(article domain.Article) (bool, error) {
	if s.failOn != "" && article.URL == s.failOn {
		return false, assert.AnError
	}
	if s.byURL[article.URL] {
		return false, nil
	}
	s.byURL[article.URL] = true
	s.saved = append(s.saved, article)
	return true, nil
}

func testCrawler(feeds []string, sink ArticleSink) *Crawler {
	return New(feeds, 5*time.Second, sink, logger.New(logger.Config{Level: "error", Pretty: false}))
}

func TestCrawlParsesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	sink := newMemorySink()
	c := testCrawler([]string{srv.URL + "/rss"}, sink)

	summary, err := c.Crawl(context.Background())
	require.NoError(t, err)

	// The untitled item is dropped.
	assert.Equal(t, Summary{NewArticles: 2, SuccessfulSources: 1, TotalSources: 1}, summary)
	require.Len(t, sink.saved, 2)

	first := sink.saved[0]
	assert.Equal(t, "BBCA catat laba bersih rekor", first.Title)
	assert.Equal(t, "https://news.example.com/bbca-laba", first.URL)
	assert.Equal(t, "Laba bersih kuartal pertama naik signifikan.", first.Summary)
	assert.Equal(t, 2026, first.PublishedAt.Year())
	assert.Equal(t, time.March, first.PublishedAt.Month())
}

func TestCrawlSkipsDuplicates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	sink := newMemorySink()
	c := testCrawler([]string{srv.URL}, sink)

	_, err := c.Crawl(context.Background())
	require.NoError(t, err)

	// Second pass finds nothing new.
	summary, err := c.Crawl(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.NewArticles)
	assert.Equal(t, 1, summary.SuccessfulSources)
}

func TestCrawlContinuesPastFailedSource(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer bad.Close()

	sink := newMemorySink()
	c := testCrawler([]string{bad.URL, good.URL}, sink)

	summary, err := c.Crawl(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{NewArticles: 2, SuccessfulSources: 1, TotalSources: 2}, summary)
}

func TestParsePubDateFallsBackToNow(t *testing.T) {
	before := time.Now()
	got := parsePubDate("not a date")
	assert.False(t, got.Before(before))
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "www.cnbcindonesia.com", sourceName("https://www.cnbcindonesia.com/market/rss"))
	assert.Equal(t, "kontan.co.id", sourceName("http://kontan.co.id/rss"))
	assert.Equal(t, "example.com", sourceName("example.com"))
}
