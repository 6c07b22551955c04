package repository

import (
	"context"
	"testing"

	"heartbridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_ListAndDelete(t *testing.T) {
	repo := NewCommentRepository(newMemoryStore())
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		articleID := "a1"
		if i%5 == 0 {
			articleID = "a2"
		}
		_, err := repo.Create(ctx, newComment(i, articleID, "u1"))
		require.NoError(t, err)
	}

	page, err := repo.ListByArticle(ctx, "a1", ListOptions{Limit: 20})
	require.NoError(t, err)
	assert.Len(t, page.Items, 20)
	assert.True(t, page.Full(20))
	for _, c := range page.Items {
		assert.Equal(t, "a1", c.ArticleID)
	}

	mine, err := repo.ListByAuthor(ctx, "u1", ListOptions{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 25)
	assert.False(t, mine.Full(50))

	n, err := repo.DeleteByArticle(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	rest, err := repo.ListByArticle(ctx, "a2", ListOptions{Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, rest.Items)
	assert.Nil(t, rest.Last)
}

func TestCommentRepository_Likes(t *testing.T) {
	repo := NewCommentRepository(newMemoryStore())
	ctx := context.Background()

	id, err := repo.Create(ctx, newComment(1, "a1", "u1"))
	require.NoError(t, err)

	require.NoError(t, repo.SetLikes(ctx, id, 3))
	require.NoError(t, repo.IncrementLikes(ctx, id, 2))

	c, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(5), c.Likes)

	err = repo.IncrementLikes(ctx, "missing", 1)
	assert.True(t, models.IsNotFound(err))
	assert.Equal(t, models.MsgCommentNotFound, models.DisplayMessage(err, ""))

	err = repo.SetLikes(ctx, "missing", 1)
	assert.True(t, models.IsNotFound(err))
}
