package types

import "time"

type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GroupResponse is the wire shape of a group. Ids are strings on the wire.
type GroupResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	EntryCode string           `json:"entry_code"`
	Leader    string           `json:"leader"`
	Members   []MemberResponse `json:"members"`
}

type MemberResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type NoteResponse struct {
	ID        uint      `json:"id"`
	By        string    `json:"by"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TaskResponse struct {
	ID        uint   `json:"id"`
	By        string `json:"by"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	TaskItems []any  `json:"task_items"`
}
