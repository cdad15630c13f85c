package models

// Episode is a playable feed entry. Episodes are derived from a feed fetch on
// every request and never persisted.
type Episode struct {
	Title       string `json:"title"`
	AudioURL    string `json:"audioUrl"`
	Description string `json:"description"`
	PubDate     string `json:"pubDate"`
	Link        string `json:"link"`
}
