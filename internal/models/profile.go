package models

import "time"

// Profile is a user's engagement ledger: presentation metadata plus the
// outbound social edges (follows, liked/redweeted dweet ids).
type Profile struct {
	UserID          string    `json:"userId"`
	Bio             string    `json:"bio"`
	Location        string    `json:"location"`
	Website         string    `json:"website"`
	BackgroundImage string    `json:"backgroundImage"`
	Following       []string  `json:"following"` // user ids the owner follows
	Followers       []string  `json:"followers"`
	Likes           []string  `json:"likes"`    // dweet ids
	Redweets        []string  `json:"redweets"` // dweet ids
	Created         time.Time `json:"createdAt"`
	Updated         time.Time `json:"updatedAt"`
}
