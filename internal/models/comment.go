package models

import (
	"time"

	"heartbridge/internal/docstore"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Comment is a reply on an article.
type Comment struct {
	ID         string    `json:"id"`
	ArticleID  string    `json:"article_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	AuthorRole Role      `json:"author_role"`
	Content    string    `json:"content"`
	Likes      int64     `json:"likes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CommentFromDocument decodes and validates a stored comment.
func CommentFromDocument(doc docstore.Document) (*Comment, error) {
	r := newFieldReader(CollectionComments, doc)
	c := &Comment{
		ID:         doc.ID,
		ArticleID:  r.str("articleId", true),
		AuthorID:   r.str("authorId", true),
		AuthorName: r.str("authorName", false),
		AuthorRole: Role(r.str("authorRole", true)),
		Content:    r.str("content", true),
		Likes:      r.integer("likes"),
		CreatedAt:  r.time("createAt", true),
		UpdatedAt:  r.time("updateAt", false),
	}
	err := validation.ValidateStruct(c,
		validation.Field(&c.ArticleID, validation.Required),
		validation.Field(&c.AuthorID, validation.Required),
		validation.Field(&c.AuthorRole, validation.Required, validation.In(RoleParent, RoleTeen)),
		validation.Field(&c.Content, validation.Required, validation.By(trimmedRuneLength(CommentContentMin, CommentContentMax))),
		validation.Field(&c.Likes, validation.Min(int64(0))),
	)
	if err := r.finish(err); err != nil {
		return nil, err
	}
	return c, nil
}

// Fields encodes the comment for storage.
func (c *Comment) Fields() docstore.Fields {
	return docstore.Fields{
		"articleId":  c.ArticleID,
		"authorId":   c.AuthorID,
		"authorName": c.AuthorName,
		"authorRole": string(c.AuthorRole),
		"content":    c.Content,
		"likes":      c.Likes,
		"createAt":   c.CreatedAt,
		"updateAt":   c.UpdatedAt,
	}
}
