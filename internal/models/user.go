// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered listener account.
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"not null" json:"name"`
	Email            string         `gorm:"unique;not null" json:"email"`
	Password         string         `gorm:"not null" json:"-"`
	ProfileImage     []byte         `gorm:"type:bytea" json:"-"`
	ProfileImageType string         `json:"-"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	LikedPodcasts    []LikedPodcast `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"liked_podcasts,omitempty"`
}

// ProfileResponse is the public projection of a user returned by GET /api/profile.
type ProfileResponse struct {
	Name          string       `json:"name"`
	Email         string       `json:"email"`
	LikedPodcasts []PodcastRef `json:"likedPodcasts"`
	CreatedAt     time.Time    `json:"createdAt"`
}
