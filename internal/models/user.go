package models

import "time"

type User struct {
	ID        int64     `json:"id"`
	Forename  string    `json:"forename"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"-"`

	Groups []Group `json:"groups,omitempty"`
}

type UserRequest struct {
	Forename string `json:"forename"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
