// Package models contains data structures for the application's domain models.
package models

// Role is a member's self-declared role.
type Role string

const (
	RoleParent Role = "parent"
	RoleTeen   Role = "teen"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleParent || r == RoleTeen
}

// Theme is the UI theme preference.
type Theme string

const (
	ThemeNeutral Theme = "neutral"
	ThemeParent  Theme = "parent"
	ThemeTeen    Theme = "teen"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	switch t {
	case ThemeNeutral, ThemeParent, ThemeTeen:
		return true
	}
	return false
}

// ThemeForRole returns the theme a signed-in member with role r sees.
func ThemeForRole(r Role) Theme {
	switch r {
	case RoleParent:
		return ThemeParent
	case RoleTeen:
		return ThemeTeen
	}
	return ThemeNeutral
}

// Collection names in the document store.
const (
	CollectionUsers       = "users"
	CollectionArticles    = "articles"
	CollectionComments    = "comments"
	CollectionFavorites   = "favorites"
	CollectionCredentials = "credentials"
)

// Age range buckets offered at registration.
var AgeRanges = []string{"13-15", "16-18", "19-25", "26-35", "36-50", "50+"}

// Stored field names used in queries and partial updates.
const (
	FieldCreatedAt    = "createAt"
	FieldUpdatedAt    = "updateAt"
	FieldAuthorID     = "authorId"
	FieldAuthorName   = "authorName"
	FieldAuthorRole   = "authorRole"
	FieldArticleID    = "articleId"
	FieldUserID       = "userId"
	FieldLikes        = "likes"
	FieldCommentCount = "commentCount"
	FieldEditHistory  = "editHistory"
)
