// Package models holds the catalog and comment entities shared by the
// server, the API client and the player.
package models

import "time"

// User is the public profile of an account.
type User struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// Video is one entry of the feed catalog.
//
// URL is a short-lived download URL for the stored blob; it is minted when
// the catalog is read and is not persisted.
type Video struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Description  string    `json:"description"`
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	LikeCount    int       `json:"likeCount"`
	CommentCount int       `json:"commentCount"`
	ShareCount   int       `json:"shareCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Comment is a single comment on a video.
type Comment struct {
	ID        string     `json:"id"`
	VideoID   string     `json:"videoId"`
	UserID    string     `json:"userId"`
	Username  string     `json:"username"`
	AvatarURL *string    `json:"avatarUrl,omitempty"`
	Text      string     `json:"text"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	LikeCount int        `json:"likeCount"`
}

// VideoStats are the engagement counters of a video.
type VideoStats struct {
	LikeCount    int `json:"likeCount"`
	CommentCount int `json:"commentCount"`
	ShareCount   int `json:"shareCount"`
}
