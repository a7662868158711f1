package models

import "time"

type Session struct {
	Token   string    `json:"token"`
	UserID  string    `json:"userId"`
	Expires time.Time `json:"expires"`
	Created time.Time `json:"createdAt"`
}
