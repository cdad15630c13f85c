package models

import (
	"encoding/json"
	"time"
)

// Favorite kinds distinguishing a liked show from a liked individual episode.
const (
	FavoritePodcast = "podcast"
	FavoriteEpisode = "episode"
)

// ImageRef is a single artwork entry in the canonical podcast shape.
type ImageRef struct {
	URL string `json:"url"`
}

// PodcastID is a directory identifier. Numeric directory IDs (iTunes
// collection IDs) marshal unquoted, non-numeric IDs (episode favorites)
// marshal as strings, and both forms are accepted on input.
type PodcastID string

func (id PodcastID) String() string { return string(id) }

// MarshalJSON emits the ID as a bare number when it is a valid JSON number
// literal, otherwise as a quoted string.
func (id PodcastID) MarshalJSON() ([]byte, error) {
	if isNumberLiteral(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *PodcastID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = PodcastID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = PodcastID(n)
	return nil
}

// isNumberLiteral reports whether s is a bare JSON number. json.Valid alone
// would also accept true/false/null, so the first byte is checked too.
func isNumberLiteral(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	return json.Valid([]byte(s))
}

// PodcastRef is the canonical podcast shape exchanged with clients. Search
// results, like requests and liked listings all use this form.
type PodcastRef struct {
	ID            PodcastID         `json:"id"`
	Name          string            `json:"name"`
	Images        []ImageRef        `json:"images"`
	Publisher     string            `json:"publisher,omitempty"`
	Description   string            `json:"description,omitempty"`
	ExternalURLs  map[string]string `json:"external_urls,omitempty"`
	TotalEpisodes int               `json:"total_episodes,omitempty"`
	FeedURL       string            `json:"feedUrl,omitempty"`
	FavoriteType  string            `json:"favoriteType,omitempty"`
}

// LikedPodcast is a row in a user's liked set. The composite unique index
// gives the array its set semantics; the autoincrement primary key preserves
// insertion order for listing.
type LikedPodcast struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_user_podcast" json:"-"`
	PodcastID     string    `gorm:"not null;uniqueIndex:idx_user_podcast" json:"-"`
	Name          string    `json:"-"`
	ArtworkURL    string    `json:"-"`
	Publisher     string    `json:"-"`
	Description   string    `json:"-"`
	AppleURL      string    `json:"-"`
	TotalEpisodes int       `json:"-"`
	FeedURL       string    `json:"-"`
	FavoriteType  string    `gorm:"default:podcast" json:"-"`
	CreatedAt     time.Time `json:"-"`
}

// MarshalJSON renders a liked row in the canonical podcast shape so clients
// see the same object they originally sent to /api/like.
func (p LikedPodcast) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToRef())
}

// UnmarshalJSON accepts the canonical podcast shape, so liked rows cached as
// refs round-trip back into rows. Row-only fields (UserID, CreatedAt) are not
// part of the wire shape and reset to zero values.
func (p *LikedPodcast) UnmarshalJSON(data []byte) error {
	var ref PodcastRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return err
	}
	*p = LikedPodcastFromRef(0, ref)
	return nil
}

// ToRef converts a stored liked row back into the canonical wire shape.
func (p *LikedPodcast) ToRef() PodcastRef {
	ref := PodcastRef{
		ID:            PodcastID(p.PodcastID),
		Name:          p.Name,
		Publisher:     p.Publisher,
		Description:   p.Description,
		TotalEpisodes: p.TotalEpisodes,
		FeedURL:       p.FeedURL,
		FavoriteType:  p.FavoriteType,
	}
	if p.ArtworkURL != "" {
		ref.Images = []ImageRef{{URL: p.ArtworkURL}}
	}
	if p.AppleURL != "" {
		ref.ExternalURLs = map[string]string{"apple": p.AppleURL}
	}
	return ref
}

// LikedPodcastFromRef flattens an incoming podcast shape into a storable row.
func LikedPodcastFromRef(userID uint, ref PodcastRef) LikedPodcast {
	row := LikedPodcast{
		UserID:        userID,
		PodcastID:     ref.ID.String(),
		Name:          ref.Name,
		Publisher:     ref.Publisher,
		Description:   ref.Description,
		TotalEpisodes: ref.TotalEpisodes,
		FeedURL:       ref.FeedURL,
		FavoriteType:  ref.FavoriteType,
	}
	if row.FavoriteType == "" {
		row.FavoriteType = FavoritePodcast
	}
	if len(ref.Images) > 0 {
		row.ArtworkURL = ref.Images[0].URL
	}
	if ref.ExternalURLs != nil {
		row.AppleURL = ref.ExternalURLs["apple"]
	}
	return row
}
