package posts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillpress/quillpress/internal/shared"
)

type like struct {
	postID int64
	userID int64
}

type mockRepo struct {
	posts      map[int64]*Post
	owners     map[int64]int64
	categories map[int64]string
	likes      map[like]bool
	nextID     int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		posts:      map[int64]*Post{},
		owners:     map[int64]int64{},
		categories: map[int64]string{},
		likes:      map[like]bool{},
		nextID:     1,
	}
}

func (m *mockRepo) Search(_ context.Context, opts shared.ListOptions, viewerID int64) ([]Post, int, error) {
	var out []Post
	for id, p := range m.posts {
		copied := *p
		copied.IsLiked = m.likes[like{postID: id, userID: viewerID}]
		out = append(out, copied)
	}
	return out, len(out), nil
}

func (m *mockRepo) Get(_ context.Context, id, viewerID int64) (*Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *p
	copied.IsLiked = m.likes[like{postID: id, userID: viewerID}]
	return &copied, nil
}

func (m *mockRepo) CategoryExists(_ context.Context, id int64) (bool, error) {
	_, ok := m.categories[id]
	return ok, nil
}

func (m *mockRepo) Create(_ context.Context, params CreateParams) (*Post, error) {
	id := m.nextID
	m.nextID++
	p := &Post{
		ID:       id,
		Title:    params.Title,
		Slug:     params.Slug,
		Content:  params.Content,
		Author:   Author{ID: params.UserID},
		Category: CategoryRef{ID: params.CategoryID, Name: m.categories[params.CategoryID]},
	}
	m.posts[id] = p
	m.owners[id] = params.UserID
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, params UpdateParams, viewerID int64) (*Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	if params.Title != nil {
		p.Title = *params.Title
	}
	if params.Slug != nil {
		p.Slug = *params.Slug
	}
	if params.Content != nil {
		p.Content = *params.Content
	}
	if params.CategoryID != nil {
		p.Category = CategoryRef{ID: *params.CategoryID, Name: m.categories[*params.CategoryID]}
	}
	copied := *p
	copied.IsLiked = m.likes[like{postID: id, userID: viewerID}]
	return &copied, nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.posts[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.posts, id)
	delete(m.owners, id)
	return nil
}

func (m *mockRepo) ToggleLike(_ context.Context, postID, userID int64) (bool, error) {
	key := like{postID: postID, userID: userID}
	if m.likes[key] {
		delete(m.likes, key)
		return false, nil
	}
	m.likes[key] = true
	return true, nil
}

func (m *mockRepo) OwnerID(_ context.Context, id int64) (int64, error) {
	ownerID, ok := m.owners[id]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return ownerID, nil
}

func TestCreateGeneratesSlug(t *testing.T) {
	repo := newMockRepo()
	repo.categories[1] = "tech"
	svc := NewService(repo)

	post, err := svc.Create(context.Background(), 7, CreateInput{
		CategoryID: 1,
		Title:      "Épic Post Title!",
		Content:    "body",
	})

	require.NoError(t, err)
	assert.Equal(t, "epic-post-title", post.Slug)
	assert.Equal(t, int64(7), post.Author.ID)
}

func TestCreateUnknownCategory(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.Create(context.Background(), 7, CreateInput{CategoryID: 9, Title: "t", Content: "c"})

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 404, appErr.Code)
	assert.Equal(t, "Category not found", appErr.Message)
}

func TestUpdateTitleRegeneratesSlug(t *testing.T) {
	repo := newMockRepo()
	repo.categories[1] = "tech"
	svc := NewService(repo)
	post, err := svc.Create(context.Background(), 7, CreateInput{CategoryID: 1, Title: "Old Title", Content: "c"})
	require.NoError(t, err)

	renamed := "Brand New Title"
	updated, err := svc.Update(context.Background(), post.ID, 7, UpdateInput{Title: &renamed})

	require.NoError(t, err)
	assert.Equal(t, "brand-new-title", updated.Slug)
}

func TestUpdateKeepsCallerLikeState(t *testing.T) {
	repo := newMockRepo()
	repo.categories[1] = "tech"
	svc := NewService(repo)
	post, err := svc.Create(context.Background(), 7, CreateInput{CategoryID: 1, Title: "t", Content: "c"})
	require.NoError(t, err)
	_, err = svc.ToggleLike(context.Background(), post.ID, 9)
	require.NoError(t, err)

	body := "edited"
	updated, err := svc.Update(context.Background(), post.ID, 9, UpdateInput{Content: &body})

	require.NoError(t, err)
	assert.True(t, updated.IsLiked)
}

func TestToggleLikeFlips(t *testing.T) {
	repo := newMockRepo()
	repo.categories[1] = "tech"
	svc := NewService(repo)
	post, err := svc.Create(context.Background(), 7, CreateInput{CategoryID: 1, Title: "t", Content: "c"})
	require.NoError(t, err)

	liked, err := svc.ToggleLike(context.Background(), post.ID, 9)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.ToggleLike(context.Background(), post.ID, 9)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestToggleLikeUnknownPost(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.ToggleLike(context.Background(), 42, 9)

	var appErr *shared.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 404, appErr.Code)
	assert.Equal(t, "Post not found", appErr.Message)
}

func TestGetMarksViewerLike(t *testing.T) {
	repo := newMockRepo()
	repo.categories[1] = "tech"
	svc := NewService(repo)
	post, err := svc.Create(context.Background(), 7, CreateInput{CategoryID: 1, Title: "t", Content: "c"})
	require.NoError(t, err)
	_, err = svc.ToggleLike(context.Background(), post.ID, 9)
	require.NoError(t, err)

	seen, err := svc.Get(context.Background(), post.ID, 9)
	require.NoError(t, err)
	assert.True(t, seen.IsLiked)

	anon, err := svc.Get(context.Background(), post.ID, 0)
	require.NoError(t, err)
	assert.False(t, anon.IsLiked)
}
