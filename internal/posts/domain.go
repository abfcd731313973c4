// Package posts implements the blog post lifecycle: CRUD, like toggling and
// the public read surface.
package posts

import "time"

// Author is the user projection embedded in post responses.
type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// CategoryRef is the category projection embedded in post responses.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Post is the public projection of a blog post.
type Post struct {
	ID        int64       `json:"id"`
	Title     string      `json:"title"`
	Slug      string      `json:"slug"`
	Content   string      `json:"content"`
	PostImage string      `json:"postImage,omitempty"`
	Author    Author      `json:"author"`
	Category  CategoryRef `json:"category"`
	Likes     int         `json:"likes"`
	Comments  int         `json:"comments"`
	IsLiked   bool        `json:"isLiked"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
