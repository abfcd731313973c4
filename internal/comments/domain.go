// Package comments implements post comments: public listing per post plus
// authenticated CRUD with ownership-scoped edits.
package comments

import "time"

// Author is the user projection embedded in comment responses.
type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Comment is the public projection of a comment record.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"postId"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
