package tasks

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SearchIndexer refreshes the search index entry for a post.
type SearchIndexer interface {
	IndexPost(ctx context.Context, postID uuid.UUID) error
}

// Notifier tells an author's followers about a new post.
type Notifier interface {
	NotifyFollowers(ctx context.Context, authorID, postID uuid.UUID) error
}

// LogIndexer is a SearchIndexer that only logs.
type LogIndexer struct {
	Logger *zap.Logger
}

func (l LogIndexer) IndexPost(_ context.Context, postID uuid.UUID) error {
	l.Logger.Info("updating search index", zap.String("post_id", postID.String()))
	return nil
}

// LogNotifier is a Notifier that only logs.
type LogNotifier struct {
	Logger *zap.Logger
}

func (l LogNotifier) NotifyFollowers(_ context.Context, authorID, postID uuid.UUID) error {
	l.Logger.Info("notifying followers",
		zap.String("author_id", authorID.String()),
		zap.String("post_id", postID.String()))
	return nil
}

// IndexHandler adapts a SearchIndexer to the search.index task.
func IndexHandler(indexer SearchIndexer) Handler {
	return func(ctx context.Context, task Task) error {
		return indexer.IndexPost(ctx, task.PostID)
	}
}

// NotifyHandler adapts a Notifier to the followers.notify task.
func NotifyHandler(notifier Notifier) Handler {
	return func(ctx context.Context, task Task) error {
		return notifier.NotifyFollowers(ctx, task.AuthorID, task.PostID)
	}
}

// RegisterDefaults binds both post tasks to the given implementations.
func RegisterDefaults(d *Dispatcher, indexer SearchIndexer, notifier Notifier) {
	d.Register(SearchIndex, IndexHandler(indexer))
	d.Register(NotifyFollowers, NotifyHandler(notifier))
}
