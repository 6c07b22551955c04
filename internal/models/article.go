package models

import (
	"time"

	"heartbridge/internal/docstore"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Field limits shared by decoding and form validation.
const (
	ArticleTitleMin      = 5
	ArticleTitleMax      = 200
	ArticleContentMin    = 20
	ArticleContentMax    = 10000
	CommentContentMin    = 1
	CommentContentMax    = 2000
	MaxTags              = 10
	MaxTagLength         = 50
	MaxInterests         = 10
	MaxInterestLength    = 30
	DisplayNameMaxLength = 50
)

// EditHistory records an article's previous title, content and tags.
type EditHistory struct {
	EditedAt        time.Time `json:"edited_at"`
	PreviousTitle   string    `json:"previous_title"`
	PreviousContent string    `json:"previous_content"`
	PreviousTags    []string  `json:"previous_tags"`
}

// Article is an anonymous post. Only the author's role is shown to readers.
type Article struct {
	ID           string        `json:"id"`
	AuthorID     string        `json:"author_id"`
	AuthorRole   Role          `json:"author_role"`
	Title        string        `json:"title"`
	Content      string        `json:"content"`
	Tags         []string      `json:"tags"`
	Likes        int64         `json:"likes"`
	CommentCount int64         `json:"comment_count"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	EditHistory  []EditHistory `json:"edit_history,omitempty"`
}

// ArticleFromDocument decodes and validates a stored article.
func ArticleFromDocument(doc docstore.Document) (*Article, error) {
	r := newFieldReader(CollectionArticles, doc)
	a := &Article{
		ID:           doc.ID,
		AuthorID:     r.str("authorId", true),
		AuthorRole:   Role(r.str("authorName", true)),
		Title:        r.str("title", true),
		Content:      r.str("content", true),
		Tags:         r.strings("tags"),
		Likes:        r.integer("likes"),
		CommentCount: r.integer("commentCount"),
		CreatedAt:    r.time("createAt", true),
		UpdatedAt:    r.time("updateAt", false),
	}
	for _, m := range r.objects("editHistory") {
		e := r.nested("editHistory", m)
		key := "editeAt"
		if _, ok := m[key]; !ok {
			key = "editedAt"
		}
		a.EditHistory = append(a.EditHistory, EditHistory{
			EditedAt:        e.time(key, true),
			PreviousTitle:   e.str("previousTitle", false),
			PreviousContent: e.str("previousContent", false),
			PreviousTags:    e.strings("previousTags"),
		})
	}
	if a.CommentCount < 0 {
		a.CommentCount = 0
	}

	err := validation.ValidateStruct(a,
		validation.Field(&a.AuthorID, validation.Required),
		validation.Field(&a.AuthorRole, validation.Required, validation.In(RoleParent, RoleTeen)),
		validation.Field(&a.Title, validation.Required, validation.By(trimmedRuneLength(ArticleTitleMin, ArticleTitleMax))),
		validation.Field(&a.Content, validation.Required, validation.By(trimmedRuneLength(ArticleContentMin, ArticleContentMax))),
		validation.Field(&a.Tags, validation.Length(0, MaxTags), validation.Each(validation.RuneLength(1, MaxTagLength))),
		validation.Field(&a.Likes, validation.Min(int64(0))),
	)
	if err := r.finish(err); err != nil {
		return nil, err
	}
	return a, nil
}

// Fields encodes the article for storage.
func (a *Article) Fields() docstore.Fields {
	f := docstore.Fields{
		"authorId":     a.AuthorID,
		"authorName":   string(a.AuthorRole),
		"title":        a.Title,
		"content":      a.Content,
		"tags":         append([]string{}, a.Tags...),
		"likes":        a.Likes,
		"commentCount": a.CommentCount,
		"createAt":     a.CreatedAt,
		"updateAt":     a.UpdatedAt,
	}
	if len(a.EditHistory) > 0 {
		f["editHistory"] = EditHistoryFields(a.EditHistory)
	}
	return f
}

// EditHistoryFields encodes an edit history list for storage.
func EditHistoryFields(history []EditHistory) []any {
	out := make([]any, 0, len(history))
	for _, e := range history {
		out = append(out, map[string]any{
			"editeAt":         e.EditedAt,
			"previousTitle":   e.PreviousTitle,
			"previousContent": e.PreviousContent,
			"previousTags":    append([]string{}, e.PreviousTags...),
		})
	}
	return out
}

// ArticlePatch is a partial article update. Nil fields are left untouched.
type ArticlePatch struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ArticlePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Tags == nil
}

// Fields encodes the changed fields plus a fresh update timestamp.
func (p ArticlePatch) Fields(now time.Time) docstore.Fields {
	f := docstore.Fields{"updateAt": now}
	if p.Title != nil {
		f["title"] = *p.Title
	}
	if p.Content != nil {
		f["content"] = *p.Content
	}
	if p.Tags != nil {
		f["tags"] = append([]string{}, (*p.Tags)...)
	}
	return f
}

// Apply merges the patch into a copy of a.
func (p ArticlePatch) Apply(a Article, now time.Time) Article {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Content != nil {
		a.Content = *p.Content
	}
	if p.Tags != nil {
		a.Tags = append([]string{}, (*p.Tags)...)
	}
	a.UpdatedAt = now
	return a
}

// Edit applies the patch to a and records a's previous title, content and
// tags in the edit history. It returns the edited article and the fields to
// store, history included.
func (p ArticlePatch) Edit(a Article, now time.Time) (Article, docstore.Fields) {
	edited := p.Apply(a, now)
	edited.EditHistory = append(append([]EditHistory(nil), a.EditHistory...), EditHistory{
		EditedAt:        now,
		PreviousTitle:   a.Title,
		PreviousContent: a.Content,
		PreviousTags:    append([]string{}, a.Tags...),
	})
	fields := p.Fields(now)
	fields[FieldEditHistory] = EditHistoryFields(edited.EditHistory)
	return edited, fields
}
