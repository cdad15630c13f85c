package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Comedy Hour</title>
    <link>https://example.com/show</link>
    <description>A funny show</description>
    <item>
      <title>Episode One</title>
      <link>https://example.com/ep1</link>
      <description>The first episode</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
      <enclosure url="https://media.example.com/ep1.mp3" length="123456" type="audio/mpeg"/>
    </item>
    <item>
      <title>Text Only Announcement</title>
      <link>https://example.com/announcement</link>
      <description>No audio here</description>
      <pubDate>Tue, 03 Jan 2006 15:04:05 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestFetchEpisodes_DropsEntriesWithoutAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feedFixture))
	}))
	defer srv.Close()

	resolver := NewResolver()
	episodes, err := resolver.FetchEpisodes(context.Background(), srv.URL)
	require.NoError(t, err)

	require.Len(t, episodes, 1)
	ep := episodes[0]
	assert.Equal(t, "Episode One", ep.Title)
	assert.Equal(t, "https://media.example.com/ep1.mp3", ep.AudioURL)
	assert.Equal(t, "The first episode", ep.Description)
	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", ep.PubDate)
	assert.Equal(t, "https://example.com/ep1", ep.Link)
}

func TestFetchEpisodes_EmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`))
	}))
	defer srv.Close()

	resolver := NewResolver()
	episodes, err := resolver.FetchEpisodes(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, episodes)
}

func TestFetchEpisodes_ParseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	}))
	defer srv.Close()

	resolver := NewResolver()
	_, err := resolver.FetchEpisodes(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchEpisodes_NetworkFailure(t *testing.T) {
	resolver := NewResolver()
	_, err := resolver.FetchEpisodes(context.Background(), "http://127.0.0.1:1/feed.xml")
	assert.Error(t, err)
}
