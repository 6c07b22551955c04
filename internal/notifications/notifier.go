// Package notifications publishes domain events to Redis channels and
// relays them to subscribers.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"heartbridge/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Event types.
const (
	EventArticleCreated  = "article.created"
	EventArticleUpdated  = "article.updated"
	EventArticleDeleted  = "article.deleted"
	EventArticleLiked    = "article.liked"
	EventCommentCreated  = "comment.created"
	EventCommentUpdated  = "comment.updated"
	EventCommentDeleted  = "comment.deleted"
	EventCommentLiked    = "comment.liked"
	EventFavoriteAdded   = "favorite.added"
	EventFavoriteRemoved = "favorite.removed"
	EventProfileComplete = "profile.completed"
)

const (
	userChannelPrefix    = "events:user:"
	articleChannelPrefix = "events:article:"
	broadcastChannel     = "events:broadcast"
)

// Event is a change another member may want to hear about.
type Event struct {
	Type      string `json:"type"`
	ActorID   string `json:"actor_id"`
	ArticleID string `json:"article_id,omitempty"`
	CommentID string `json:"comment_id,omitempty"`
	// RecipientID is the member the event concerns, such as an article's
	// author when someone comments on it.
	RecipientID string    `json:"recipient_id,omitempty"`
	At          time.Time `json:"at"`
}

// Publisher is what services need to emit events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends e to the broadcast channel, its article channel and, when it
// names a recipient other than the actor, that member's channel.
func (n *Notifier) Publish(ctx context.Context, e Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	channels := []string{broadcastChannel}
	if e.ArticleID != "" {
		channels = append(channels, ArticleChannel(e.ArticleID))
	}
	if e.RecipientID != "" && e.RecipientID != e.ActorID {
		channels = append(channels, UserChannel(e.RecipientID))
	}

	pipe := n.rdb.Pipeline()
	for _, ch := range channels {
		pipe.Publish(ctx, ch, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		observability.RedisErrors.WithLabelValues("publish").Inc()
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	observability.DomainEvents.WithLabelValues(e.Type).Inc()
	return nil
}

// Subscribe calls onEvent for every event on the given channels until ctx
// ends. Undecodable payloads are logged and skipped.
func (n *Notifier) Subscribe(ctx context.Context, onEvent func(channel string, e Event), channels ...string) error {
	if n.rdb == nil {
		return nil
	}
	if len(channels) == 0 {
		channels = []string{broadcastChannel}
	}
	sub := n.rdb.Subscribe(ctx, channels...)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					observability.GlobalLogger.Warn("skipping undecodable event",
						"channel", msg.Channel,
						"error", err,
					)
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in event subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onEvent(msg.Channel, e)
				}()
			}
		}
	}()

	return nil
}

// BroadcastChannel carries every event.
func BroadcastChannel() string {
	return broadcastChannel
}

// UserChannel derives the Redis channel name for a member.
func UserChannel(uid string) string {
	return userChannelPrefix + uid
}

// ArticleChannel derives the Redis channel name for an article.
func ArticleChannel(articleID string) string {
	return articleChannelPrefix + articleID
}
