// Package feed mirrors the TRMNL announcements/blog RSS feed into local
// storage so items keep their read/unread state across refreshes.
package feed

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkwatch/inkwatch/internal/models"
)

var (
	// ErrRequest wraps transport-level failures fetching the feed.
	ErrRequest = errors.New("error fetching feed")
	// ErrStatus wraps non-200 responses from the feed host.
	ErrStatus = errors.New("error status from feed host")
)

const fetchTimeout = 30 * time.Second

// ItemStore is the slice of the feed repository the fetcher needs.
type ItemStore interface {
	UpsertFeedItems(ctx context.Context, items []models.FeedItem) error
}

// Fetcher downloads and parses the syndicated feed.
type Fetcher struct {
	url        string
	store      ItemStore
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewFetcher creates a fetcher for the given feed URL.
func NewFetcher(url string, store ItemStore, logger *logrus.Logger) *Fetcher {
	return &Fetcher{
		url:        url,
		store:      store,
		httpClient: http.DefaultClient,
		logger:     logger,
	}
}

// rss covers the subset of RSS 2.0 the TRMNL feed uses.
type rss struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	GUID        string `xml:"guid"`
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// Refresh downloads the feed and upserts its items. Read flags of already
// stored items are untouched.
func (f *Fetcher) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: got %d", ErrStatus, resp.StatusCode)
	}

	var doc rss
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("failed to parse feed: %v", err)
	}

	items := make([]models.FeedItem, 0, len(doc.Channel.Items))
	for _, it := range doc.Channel.Items {
		guid := it.GUID
		if guid == "" {
			guid = it.Link
		}
		if guid == "" {
			continue
		}
		items = append(items, models.FeedItem{
			GUID:        guid,
			Title:       it.Title,
			Link:        it.Link,
			Summary:     it.Description,
			PublishedAt: parsePubDate(it.PubDate),
		})
	}
	if len(items) == 0 {
		return nil
	}

	if err := f.store.UpsertFeedItems(ctx, items); err != nil {
		return fmt.Errorf("failed to store feed items: %w", err)
	}

	f.logger.WithFields(logrus.Fields{
		"items": len(items),
	}).Info("Refreshed feed")
	return nil
}

// parsePubDate tries the date layouts seen in the wild for this feed. An
// unparseable date degrades to the zero time rather than dropping the item.
func parsePubDate(s string) time.Time {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
