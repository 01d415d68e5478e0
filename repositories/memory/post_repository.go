package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/upb/blog-api/models"
	"github.com/upb/blog-api/repositories"
)

// PostRepository is a map-backed repositories.PostRepository.
type PostRepository struct {
	store *Store
}

func copyPost(p *models.Post) *models.Post {
	c := *p
	if p.PublishedAt != nil {
		at := *p.PublishedAt
		c.PublishedAt = &at
	}
	return &c
}

func matches(p *models.Post, filter repositories.PostFilter) bool {
	if p.IsDeleted {
		return false
	}
	if filter.AuthorID != nil && p.AuthorID != *filter.AuthorID {
		return false
	}
	if filter.IsPublished != nil && p.IsPublished != *filter.IsPublished {
		return false
	}
	return true
}

func (r *PostRepository) Create(_ context.Context, post *models.Post) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[post.ID.String()]; ok {
		return &repositories.DuplicateError{Field: "id"}
	}
	s.posts[post.ID.String()] = copyPost(post)
	return nil
}

// liveLocked returns the stored post when it exists and is not soft-deleted.
func (s *Store) liveLocked(id uuid.UUID) (*models.Post, bool) {
	p, ok := s.posts[id.String()]
	if !ok || p.IsDeleted {
		return nil, false
	}
	return p, true
}

func (r *PostRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.liveLocked(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyPost(p), nil
}

// List returns live posts newest first.
func (r *PostRepository) List(_ context.Context, filter repositories.PostFilter, limit, offset int) ([]*models.Post, error) {
	s := r.store
	s.mu.RLock()
	var out []*models.Post
	for _, p := range s.posts {
		if matches(p, filter) {
			out = append(out, copyPost(p))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return window(out, limit, offset), nil
}

func (r *PostRepository) Update(_ context.Context, post *models.Post) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.liveLocked(post.ID)
	if !ok {
		return repositories.ErrNotFound
	}
	updated := copyPost(post)
	p.Title = updated.Title
	p.Content = updated.Content
	p.IsPublished = updated.IsPublished
	p.PublishedAt = updated.PublishedAt
	p.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *PostRepository) IncrementViews(_ context.Context, id uuid.UUID) (int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.liveLocked(id)
	if !ok {
		return 0, repositories.ErrNotFound
	}
	p.Views++
	return p.Views, nil
}

func (r *PostRepository) SoftDelete(_ context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.liveLocked(id)
	if !ok {
		return repositories.ErrNotFound
	}
	p.IsDeleted = true
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *PostRepository) Delete(_ context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id.String()]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.posts, id.String())
	return nil
}

func (r *PostRepository) Count(_ context.Context, filter repositories.PostFilter) (int, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.posts {
		if matches(p, filter) {
			n++
		}
	}
	return n, nil
}

func (r *PostRepository) WithTx(repositories.Transaction) repositories.PostRepository {
	return r
}
