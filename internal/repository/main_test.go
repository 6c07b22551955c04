package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"heartbridge/internal/cache"
	"heartbridge/internal/docstore"
	"heartbridge/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var baseTime = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func setupCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = cache.Close() })
	return mr
}

func newArticle(i int, role models.Role, authorID string) *models.Article {
	return &models.Article{
		AuthorID:   authorID,
		AuthorRole: role,
		Title:      fmt.Sprintf("第 %d 篇：和孩子聊手機", i),
		Content:    strings.Repeat("我們昨天聊了很久。", 4),
		Tags:       []string{"溝通"},
		CreatedAt:  baseTime.Add(time.Duration(i) * time.Minute),
		UpdatedAt:  baseTime.Add(time.Duration(i) * time.Minute),
	}
}

func newComment(i int, articleID, authorID string) *models.Comment {
	return &models.Comment{
		ArticleID:  articleID,
		AuthorID:   authorID,
		AuthorName: "小明",
		AuthorRole: models.RoleTeen,
		Content:    fmt.Sprintf("留言 %d", i),
		CreatedAt:  baseTime.Add(time.Duration(i) * time.Second),
		UpdatedAt:  baseTime.Add(time.Duration(i) * time.Second),
	}
}

func newMemoryStore() *docstore.Memory {
	return docstore.NewMemory()
}
