package models

import (
	"time"

	"heartbridge/internal/docstore"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Favorite records a member bookmarking an article.
type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ArticleID string    `json:"article_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FavoriteFromDocument decodes and validates a stored favorite.
func FavoriteFromDocument(doc docstore.Document) (*Favorite, error) {
	r := newFieldReader(CollectionFavorites, doc)
	f := &Favorite{
		ID:        doc.ID,
		UserID:    r.str("userId", true),
		ArticleID: r.str("articleId", true),
		CreatedAt: r.time("createAt", true),
	}
	err := validation.ValidateStruct(f,
		validation.Field(&f.UserID, validation.Required),
		validation.Field(&f.ArticleID, validation.Required),
	)
	if err := r.finish(err); err != nil {
		return nil, err
	}
	return f, nil
}

// Fields encodes the favorite for storage.
func (f *Favorite) Fields() docstore.Fields {
	return docstore.Fields{
		"userId":    f.UserID,
		"articleId": f.ArticleID,
		"createAt":  f.CreatedAt,
	}
}
