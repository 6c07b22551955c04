package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%s"
	ArticleKeyPrefix   = "article:%s"
	RevokedKeyPrefix   = "blacklist:%s"
	PrefsKeyPrefix     = "prefs:%s"
	RateLimitKeyPrefix = "rl:%s:%s"
)

const (
	UserTTL    = 5 * time.Minute
	ArticleTTL = 10 * time.Minute
)

func UserKey(uid string) string {
	return fmt.Sprintf(UserKeyPrefix, uid)
}

func ArticleKey(articleID string) string {
	return fmt.Sprintf(ArticleKeyPrefix, articleID)
}

// RevokedTokenKey marks a revoked bearer token id.
func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedKeyPrefix, jti)
}

// PrefsKey is the hash holding one member's stored preferences.
func PrefsKey(uid string) string {
	return fmt.Sprintf(PrefsKeyPrefix, uid)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, uid string) {
	Invalidate(ctx, UserKey(uid))
}

func InvalidateArticle(ctx context.Context, articleID string) {
	Invalidate(ctx, ArticleKey(articleID))
}

// RateLimitKey counts requests by one caller against one limited action.
func RateLimitKey(action, caller string) string {
	return fmt.Sprintf(RateLimitKeyPrefix, action, caller)
}
