package gormstore

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/infrastructure/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testStore struct {
	sql  *sqlstore.DB
	gorm *gorm.DB
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	db, err := sqlstore.Open(sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	gdb, err := Open(db)
	require.NoError(t, err)

	return &testStore{sql: db, gorm: gdb}
}

func (s *testStore) author(t *testing.T) int64 {
	t.Helper()

	user := domain.NewUser("author", "author@example.com", "hash")
	require.NoError(t, sqlstore.NewUserRepository(s.sql).Create(context.Background(), user))
	return user.ID
}

func TestBlogPostRepository(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewBlogPostRepository(store.gorm)
	authorID := store.author(t)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		post := &domain.BlogPost{
			Title:     fmt.Sprintf("Post %d", i),
			Slug:      fmt.Sprintf("post-%d", i),
			Content:   "body",
			AuthorID:  authorID,
			Published: i != 5,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.Create(ctx, post))
		assert.NotZero(t, post.ID)
	}

	t.Run("first page newest first", func(t *testing.T) {
		posts, total, err := repo.ListPublished(ctx, 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 11, total)
		require.Len(t, posts, 10)
		assert.Equal(t, "post-11", posts[0].Slug)
	})

	t.Run("second page", func(t *testing.T) {
		posts, _, err := repo.ListPublished(ctx, 2, 10)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "post-0", posts[0].Slug)
	})

	t.Run("pages past the end are empty", func(t *testing.T) {
		for _, page := range []int{3, math.MaxInt} {
			posts, total, err := repo.ListPublished(ctx, page, 10)
			require.NoError(t, err, page)
			assert.EqualValues(t, 11, total)
			assert.Empty(t, posts, page)
		}
	})

	t.Run("recent", func(t *testing.T) {
		posts, err := repo.Recent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, "post-11", posts[0].Slug)
	})

	t.Run("find published by slug", func(t *testing.T) {
		post, err := repo.FindPublishedBySlug(ctx, "post-3")
		require.NoError(t, err)
		assert.Equal(t, "Post 3", post.Title)

		_, err = repo.FindPublishedBySlug(ctx, "post-5")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = repo.FindPublishedBySlug(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("exists by slug", func(t *testing.T) {
		exists, err := repo.ExistsBySlug(ctx, "post-5")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsBySlug(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestProjectRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(newTestStore(t).gorm)

	projects := []*domain.Project{
		{Title: "Third", Description: "c", SortOrder: 3, Featured: true},
		{Title: "First", Description: "a", SortOrder: 1, Featured: true},
		{Title: "Second", Description: "b", SortOrder: 2},
	}
	for _, p := range projects {
		require.NoError(t, repo.Create(ctx, p))
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"First", "Second", "Third"}, []string{all[0].Title, all[1].Title, all[2].Title})

	featured, err := repo.Featured(ctx, 6)
	require.NoError(t, err)
	require.Len(t, featured, 2)
	assert.Equal(t, "First", featured[0].Title)

	exists, err := repo.ExistsByTitle(ctx, "Second")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestContactRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewContactRepository(newTestStore(t).gorm)

	contact := &domain.Contact{Name: "Bob", Email: "bob@example.com", Subject: "Hi", Message: "Hello there"}
	require.NoError(t, repo.Create(ctx, contact))
	assert.NotZero(t, contact.ID)
	assert.False(t, contact.CreatedAt.IsZero())

	require.NoError(t, repo.SetRead(ctx, contact.ID, true))

	contacts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.True(t, contacts[0].IsRead)

	assert.ErrorIs(t, repo.SetRead(ctx, 999, true), domain.ErrNotFound)
}
