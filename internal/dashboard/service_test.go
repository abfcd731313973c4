package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	users, posts, comments, categories int64
	err                                error
}

func (m *mockRepo) CountUsers(context.Context) (int64, error)      { return m.users, m.err }
func (m *mockRepo) CountPosts(context.Context) (int64, error)      { return m.posts, m.err }
func (m *mockRepo) CountComments(context.Context) (int64, error)   { return m.comments, m.err }
func (m *mockRepo) CountCategories(context.Context) (int64, error) { return m.categories, m.err }

func TestStatsAggregates(t *testing.T) {
	svc := NewService(&mockRepo{users: 4, posts: 12, comments: 31, categories: 3})

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Users)
	assert.Equal(t, int64(12), stats.Posts)
	assert.Equal(t, int64(31), stats.Comments)
	assert.Equal(t, int64(3), stats.Categories)
}

func TestStatsPropagatesError(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(&mockRepo{err: boom})

	_, err := svc.Stats(context.Background())

	assert.ErrorIs(t, err, boom)
}
