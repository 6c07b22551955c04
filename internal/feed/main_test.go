package feed

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"heartbridge/internal/auth"
	"heartbridge/internal/docstore"
	"heartbridge/internal/models"
	"heartbridge/internal/repository"

	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type viewer struct {
	identity *auth.Identity
	profile  *models.User
}

func (v viewer) Identity() *auth.Identity { return v.identity }
func (v viewer) Profile() *models.User    { return v.profile }

func member(uid string, role models.Role) viewer {
	return viewer{
		identity: &auth.Identity{UID: uid, Email: uid + "@example.com"},
		profile:  &models.User{UID: uid, DisplayName: "暱稱 " + uid, Role: role},
	}
}

var signedOut = viewer{}

func articleInput(i int) models.ArticleInput {
	return models.ArticleInput{
		Title:   fmt.Sprintf("第 %d 篇：手機使用時間", i),
		Content: strings.Repeat("我們需要好好談一談。", 3),
		Tags:    []string{"溝通", " 溝通 "},
	}
}

// seedArticles stores n articles, one minute apart, alternating roles.
func seedArticles(t *testing.T, repo repository.ArticleRepository, n int, authorID string) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		role := models.RoleParent
		if i%2 == 1 {
			role = models.RoleTeen
		}
		created := baseTime.Add(time.Duration(i) * time.Minute)
		id, err := repo.Create(context.Background(), &models.Article{
			AuthorID:   authorID,
			AuthorRole: role,
			Title:      fmt.Sprintf("第 %d 篇：手機使用時間", i),
			Content:    strings.Repeat("我們需要好好談一談。", 3),
			CreatedAt:  created,
			UpdatedAt:  created,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func seedComments(t *testing.T, repo repository.CommentRepository, n int, articleID, authorID string) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		created := baseTime.Add(time.Duration(i) * time.Second)
		id, err := repo.Create(context.Background(), &models.Comment{
			ArticleID:  articleID,
			AuthorID:   authorID,
			AuthorName: "小明",
			AuthorRole: models.RoleTeen,
			Content:    fmt.Sprintf("留言 %d", i),
			CreatedAt:  created,
			UpdatedAt:  created,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func newStore() *docstore.Memory {
	return docstore.NewMemory()
}
