package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwatch/inkwatch/internal/models"
)

type fakeStore struct {
	upserts [][]models.FeedItem
}

func (f *fakeStore) UpsertFeedItems(ctx context.Context, items []models.FeedItem) error {
	f.upserts = append(f.upserts, items)
	return nil
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>TRMNL Blog</title>
    <item>
      <guid>https://usetrmnl.com/blog/firmware-1-5</guid>
      <title>Firmware 1.5 released</title>
      <link>https://usetrmnl.com/blog/firmware-1-5</link>
      <description>Battery reporting improvements.</description>
      <pubDate>Mon, 02 Jun 2025 09:00:00 +0000</pubDate>
    </item>
    <item>
      <title>No GUID, link fallback</title>
      <link>https://usetrmnl.com/blog/no-guid</link>
      <description>Second entry.</description>
      <pubDate>Tue, 03 Jun 2025 09:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

func TestRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	store := &fakeStore{}
	f := NewFetcher(srv.URL, store, logrus.New())

	require.NoError(t, f.Refresh(context.Background()))
	require.Len(t, store.upserts, 1)

	items := store.upserts[0]
	require.Len(t, items, 2)

	assert.Equal(t, "https://usetrmnl.com/blog/firmware-1-5", items[0].GUID)
	assert.Equal(t, "Firmware 1.5 released", items[0].Title)
	assert.Equal(t, "Battery reporting improvements.", items[0].Summary)
	assert.Equal(t,
		time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		items[0].PublishedAt.UTC(),
	)

	// GUID falls back to the link when absent.
	assert.Equal(t, "https://usetrmnl.com/blog/no-guid", items[1].GUID)
}

func TestRefreshErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, &fakeStore{}, logrus.New())
	err := f.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)
}

func TestParsePubDate(t *testing.T) {
	assert.Equal(t,
		time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		parsePubDate("Mon, 02 Jun 2025 09:00:00 +0000").UTC(),
	)
	assert.True(t, parsePubDate("not a date").IsZero())
}
