package models

type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type GroupRequest struct {
	Name string `json:"name"`
}

type GroupMember struct {
	UserID   int64  `json:"user_id"`
	Forename string `json:"forename"`
}
