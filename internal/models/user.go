package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"` // unique handle
	Email    string    `json:"email"`    // unique
	Password []byte    `json:"-"`        // bcrypt hash
	Avatar   string    `json:"avatar"`
	Role     string    `json:"role"`
	Created  time.Time `json:"createdAt"`
}

// UserView is the small display projection embedded in dweet views.
type UserView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) View() UserView {
	return UserView{ID: u.ID, Name: u.Name, Username: u.Username, Avatar: u.Avatar}
}
