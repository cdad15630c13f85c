// Package feed fetches and parses podcast syndication feeds into a normalized
// episode list.
package feed

import (
	"context"
	"net/http"
	"time"

	"podlib/internal/middleware"
	"podlib/internal/models"

	"github.com/mmcdole/gofeed"
)

// Resolver turns a feed URL into playable episodes. Every call re-fetches and
// re-parses; feeds are never cached or persisted.
type Resolver struct {
	parser *gofeed.Parser
}

// NewResolver returns a Resolver with a bounded HTTP client.
func NewResolver() *Resolver {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: 15 * time.Second}
	return &Resolver{parser: p}
}

// FetchEpisodes fetches the feed and maps each entry to an episode. Entries
// without a playable enclosure URL are dropped.
func (r *Resolver) FetchEpisodes(ctx context.Context, feedURL string) ([]models.Episode, error) {
	parsed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		middleware.UpstreamRequests.WithLabelValues("feed", "error").Inc()
		return nil, err
	}
	middleware.UpstreamRequests.WithLabelValues("feed", "ok").Inc()

	episodes := make([]models.Episode, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		audioURL := enclosureURL(item)
		if audioURL == "" {
			continue
		}
		episodes = append(episodes, models.Episode{
			Title:       item.Title,
			AudioURL:    audioURL,
			Description: item.Description,
			PubDate:     item.Published,
			Link:        item.Link,
		})
	}
	return episodes, nil
}

func enclosureURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}
