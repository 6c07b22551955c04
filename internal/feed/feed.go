// Package feed implements the client-side article and comment lists: paged
// reads newest first, author writes, and the loading and error state a view
// renders.
//
// Every fetch is tagged with a generation. Reset and every newer fetch
// advance it, and a response carrying an older generation is dropped
// instead of overwriting the view.
package feed

import (
	"sync"

	"heartbridge/internal/auth"
	"heartbridge/internal/docstore"
	"heartbridge/internal/models"
	"heartbridge/internal/observability"
	"heartbridge/internal/repository"
)

// Default page sizes.
const (
	DefaultArticlePageSize = 10
	DefaultCommentPageSize = 20
)

// Messages shown when a store call fails without an application error.
const (
	MsgFetchArticlesFailed     = "獲取文章失敗"
	MsgFetchUserArticlesFailed = "提取文章失敗"
	MsgLoadMoreFailed          = "加載失敗"
	MsgCreateArticleFailed     = "建立文章失敗"
	MsgUpdateArticleFailed     = "更新文章失敗"
	MsgDeleteArticleFailed     = "刪除文章失敗"
	MsgFetchCommentsFailed     = "獲取留言失敗"
	MsgCreateCommentFailed     = "建立留言失敗"
	MsgUpdateCommentFailed     = "更新留言失敗"
	MsgDeleteCommentFailed     = "刪除留言失敗"
	MsgLikeFailed              = "點讚失敗"
)

// Viewer reports who is using the feed. session.Manager implements it.
type Viewer interface {
	Identity() *auth.Identity
	Profile() *models.User
}

// Filters narrows FetchArticles.
type Filters struct {
	Role models.Role
}

// list is the state shared by every feed. Q is the query the loaded items
// answer; it changes only together with the generation.
type list[T, Q any] struct {
	mu         sync.Mutex
	items      []T
	query      Q
	loading    bool
	err        string
	hasMore    bool
	cursor     *docstore.Document
	generation uint64
}

func newList[T, Q any]() *list[T, Q] {
	return &list[T, Q]{hasMore: true}
}

// begin starts a first-page fetch for q and returns its generation. The
// old cursor belongs to the old query, so LoadMore waits for the new page.
func (l *list[T, Q]) begin(q Q) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	l.query = q
	l.cursor = nil
	l.loading = true
	l.err = ""
	return l.generation
}

// more starts a next-page fetch. It returns the cursor and query of the
// loaded pages with the new generation, or false when there is nothing
// left.
func (l *list[T, Q]) more() (*docstore.Document, Q, uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.hasMore || l.cursor == nil {
		var zero Q
		return nil, zero, 0, false
	}
	l.generation++
	l.loading = true
	return l.cursor, l.query, l.generation, true
}

// current reports whether gen is still the newest fetch. Callers hold mu.
func (l *list[T, Q]) current(gen uint64) bool {
	if gen != l.generation {
		observability.GlobalLogger.Debug("discarding stale feed response",
			"generation", gen,
			"current", l.generation,
		)
		return false
	}
	return true
}

func (l *list[T, Q]) apply(gen uint64, page repository.Page[T], pageSize int, appendItems bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.current(gen) {
		return
	}
	if appendItems {
		l.items = append(l.items, page.Items...)
	} else {
		l.items = page.Items
	}
	if page.Last != nil {
		l.cursor = page.Last
	}
	l.hasMore = page.Full(pageSize)
	l.loading = false
}

func (l *list[T, Q]) fail(gen uint64, err error, fallback string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.current(gen) {
		return
	}
	l.err = models.DisplayMessage(err, fallback)
	l.loading = false
}

func (l *list[T, Q]) setErr(err error, fallback string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = models.DisplayMessage(err, fallback)
}

func (l *list[T, Q]) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	l.items = nil
	l.loading = false
	l.err = ""
	l.hasMore = true
	l.cursor = nil
	var zero Q
	l.query = zero
}

// update rewrites the first item matching match.
func (l *list[T, Q]) update(match func(*T) bool, fn func(*T)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if match(&l.items[i]) {
			fn(&l.items[i])
			return
		}
	}
}

func (l *list[T, Q]) find(match func(*T) bool) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, item := range l.items {
		if match(&item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (l *list[T, Q]) remove(match func(*T) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.items[:0:0]
	for _, item := range l.items {
		if !match(&item) {
			kept = append(kept, item)
		}
	}
	l.items = kept
}

func (l *list[T, Q]) snapshot() ([]T, bool, string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.items...), l.loading, l.err, l.hasMore
}

// requireIdentity returns the signed-in identity or the unauthenticated
// error.
func requireIdentity(v Viewer) (*auth.Identity, error) {
	if v == nil {
		return nil, models.NewUnauthenticatedError()
	}
	id := v.Identity()
	if id == nil {
		return nil, models.NewUnauthenticatedError()
	}
	return id, nil
}

// requireProfile is requireIdentity for writes that also stamp the author's
// profile. A signed-in member without a profile gets MsgProfileRequired.
func requireProfile(v Viewer) (*auth.Identity, *models.User, error) {
	id, err := requireIdentity(v)
	if err != nil {
		return nil, nil, err
	}
	profile := v.Profile()
	if profile == nil {
		return nil, nil, models.NewForbiddenError(models.MsgProfileRequired)
	}
	return id, profile, nil
}
