package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// User tests
func TestNewUser(t *testing.T) {
	user := NewUser("alice", "alice@x.com", "digest", "Alice")

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@x.com", user.Email)
	assert.Equal(t, "Alice", user.FullName)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsAdmin)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestUser_TableName(t *testing.T) {
	assert.Equal(t, "users", User{}.TableName())
}

func TestUser_JSONOmitsPasswordHash(t *testing.T) {
	user := NewUser("alice", "alice@x.com", "$2a$10$secretdigest", "Alice")

	data, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secretdigest")
	assert.NotContains(t, string(data), "password")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "alice", decoded["username"])
	assert.Equal(t, true, decoded["is_active"])
	assert.Equal(t, false, decoded["is_admin"])
}

// Post tests
func TestNewPost(t *testing.T) {
	authorID := uuid.New()
	post := NewPost("Hello world", "Some long content", authorID)

	assert.NotEqual(t, uuid.Nil, post.ID)
	assert.Equal(t, authorID, post.AuthorID)
	assert.Equal(t, authorID, post.OwnerID())
	assert.False(t, post.IsPublished)
	assert.False(t, post.IsDeleted)
	assert.Nil(t, post.PublishedAt)
	assert.Zero(t, post.Views)
}

func TestPost_Publish(t *testing.T) {
	post := NewPost("Hello world", "Some long content", uuid.New())
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	post.Publish(at)

	assert.True(t, post.IsPublished)
	require.NotNil(t, post.PublishedAt)
	assert.Equal(t, at, *post.PublishedAt)
	assert.Equal(t, at, post.UpdatedAt)
}

func TestPostDetail_JSONFlattensPost(t *testing.T) {
	post := NewPost("Hello world", "Some long content", uuid.New())
	post.IsDeleted = true
	detail := PostDetail{Post: post, AuthorUsername: "alice"}

	data, err := json.Marshal(detail)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Hello world", decoded["title"])
	assert.Equal(t, "alice", decoded["author_username"])
	assert.NotContains(t, decoded, "is_deleted")
	assert.NotContains(t, decoded, "published_at")
}
