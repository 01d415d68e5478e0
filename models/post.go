package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a blog entry owned by exactly one user. AuthorID never changes
// after creation; deleted posts are kept with IsDeleted set.
type Post struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Content     string     `json:"content" db:"content"`
	AuthorID    uuid.UUID  `json:"author_id" db:"author_id"`
	Views       int        `json:"views" db:"views"`
	Likes       int        `json:"likes" db:"likes"`
	IsPublished bool       `json:"is_published" db:"is_published"`
	IsDeleted   bool       `json:"-" db:"is_deleted"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
}

// TableName returns the table name for the Post model
func (Post) TableName() string {
	return "posts"
}

// NewPost creates an unpublished post authored by authorID
func NewPost(title, content string, authorID uuid.UUID) *Post {
	now := time.Now().UTC()
	return &Post{
		ID:        uuid.New(),
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OwnerID returns the author, used by ownership checks
func (p *Post) OwnerID() uuid.UUID {
	return p.AuthorID
}

// Publish marks the post published at the given time
func (p *Post) Publish(at time.Time) {
	at = at.UTC()
	p.IsPublished = true
	p.PublishedAt = &at
	p.UpdatedAt = at
}

// PostDetail is a single post as returned by the read endpoint
type PostDetail struct {
	*Post
	AuthorUsername string `json:"author_username"`
}

// DashboardStats holds admin dashboard counters
type DashboardStats struct {
	TotalUsers     int `json:"total_users"`
	ActiveUsers    int `json:"active_users"`
	TotalPosts     int `json:"total_posts"`
	PublishedPosts int `json:"published_posts"`
}
