package domain

import "time"

// Tweet's owner is set once at creation from the authenticated caller and is
// never transferable.
type Tweet struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AnnotatedTweet is a listing row: the tweet plus the owner's public
// username, never the full user record.
type AnnotatedTweet struct {
	Tweet
	Username string `json:"username"`
}
