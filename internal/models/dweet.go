package models

import "time"

type Dweet struct {
	ID           string    `json:"id"`
	AuthorID     string    `json:"authorId"`
	Text         string    `json:"text"`
	ReplyTo      *string   `json:"replyTo"`      // nil for top-level dweets
	RepliesCount int       `json:"repliesCount"` // derived, maintained by exact recount
	Edited       bool      `json:"edited"`
	Created      time.Time `json:"createdAt"`
	Updated      time.Time `json:"updatedAt"`
}

// DweetView is the read projection returned by the API: the raw author id is
// resolved to a display projection and both engagement sets are attached.
type DweetView struct {
	ID           string    `json:"id"`
	Author       UserView  `json:"author"`
	Text         string    `json:"text"`
	ReplyTo      *string   `json:"replyTo"`
	RepliesCount int       `json:"repliesCount"`
	Edited       bool      `json:"edited"`
	Likes        []string  `json:"likes"`    // ids of users who liked
	Redweets     []string  `json:"redweets"` // ids of users who redweeted
	Created      time.Time `json:"createdAt"`
	Updated      time.Time `json:"updatedAt"`
}
