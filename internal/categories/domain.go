// Package categories implements the post category taxonomy.
package categories

import "time"

// Category is the public projection of a category record.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Posts     int       `json:"posts"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
