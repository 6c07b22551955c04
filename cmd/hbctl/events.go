package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"heartbridge/internal/notifications"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// streamFrame mirrors the frames the API server sends on /api/ws.
type streamFrame struct {
	Type     string               `json:"type"`
	Channel  string               `json:"channel"`
	Channels []string             `json:"channels"`
	Event    *notifications.Event `json:"event"`
	Error    string               `json:"error"`
}

func newEventsCmd(a *app) *cobra.Command {
	var articleID, server string
	var mine bool
	var count int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream live events until interrupted",
		Long: "Stream live events from Redis, or from an API server with --server. " +
			"Without flags every event is shown; --article and --mine narrow the stream.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			seen := 0
			onEvent := func(channel string, e notifications.Event) {
				a.printEvent(channel, e)
				seen++
				if count > 0 && seen >= count {
					cancel()
				}
			}

			if server != "" {
				return a.streamFromServer(ctx, server, articleID, mine, onEvent)
			}
			return a.streamFromRedis(ctx, articleID, mine, onEvent)
		},
	}
	cmd.Flags().StringVar(&articleID, "article", "", "only events on this article")
	cmd.Flags().BoolVar(&mine, "mine", false, "only events addressed to the signed-in member")
	cmd.Flags().StringVar(&server, "server", "", "API server base URL, e.g. http://localhost:8080")
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many events")
	return cmd
}

func (a *app) printEvent(channel string, e notifications.Event) {
	fmt.Fprintf(a.out, "%s  %-18s actor=%s", e.At.Local().Format(time.TimeOnly), e.Type, e.ActorID)
	if e.ArticleID != "" {
		fmt.Fprintf(a.out, " article=%s", e.ArticleID)
	}
	if e.CommentID != "" {
		fmt.Fprintf(a.out, " comment=%s", e.CommentID)
	}
	fmt.Fprintf(a.out, " (%s)\n", channel)
}

func (a *app) streamFromRedis(ctx context.Context, articleID string, mine bool, onEvent func(string, notifications.Event)) error {
	rt, err := a.runtime(ctx, true)
	if err != nil {
		return err
	}
	if rt.Redis == nil {
		return errors.New("events need Redis; set REDIS_URL or pass --server")
	}
	if err := a.start(ctx, false); err != nil {
		return err
	}

	var channels []string
	if articleID != "" {
		channels = append(channels, notifications.ArticleChannel(articleID))
	}
	if mine {
		id, err := a.requireSignIn()
		if err != nil {
			return err
		}
		channels = append(channels, notifications.UserChannel(id.UID))
	}
	if len(channels) == 0 {
		channels = append(channels, notifications.BroadcastChannel())
	}

	if err := notifications.NewNotifier(rt.Redis).Subscribe(ctx, onEvent, channels...); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Listening on %d channel(s), Ctrl+C to stop.\n", len(channels))
	<-ctx.Done()
	return nil
}

// streamURL turns an API base URL into the event stream URL.
func streamURL(base, token, articleID string, mine bool) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/ws"
	q := url.Values{}
	q.Set("token", token)
	if articleID != "" {
		q.Set("article", articleID)
	}
	if mine {
		q.Set("mine", "true")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// streamFromServer signs a token for the stored member and reads the API
// server's event stream.
func (a *app) streamFromServer(ctx context.Context, server, articleID string, mine bool, onEvent func(string, notifications.Event)) error {
	if err := a.start(ctx, false); err != nil {
		return err
	}
	id, err := a.requireSignIn()
	if err != nil {
		return err
	}
	token, err := a.rt.TokenIssuer().Issue(*id)
	if err != nil {
		return fmt.Errorf("sign stream token: %w", err)
	}
	endpoint, err := streamURL(server, token, articleID, mine)
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return fmt.Errorf("connect to %s: %s", server, resp.Status)
		}
		return fmt.Errorf("connect to %s: %w", server, err)
	}
	defer func() { _ = conn.Close() }()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var f streamFrame
		if err := conn.ReadJSON(&f); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read event stream: %w", err)
		}
		switch f.Type {
		case "subscribed":
			fmt.Fprintf(a.out, "Listening on %d channel(s) at %s, Ctrl+C to stop.\n", len(f.Channels), server)
		case "error":
			return errors.New(f.Error)
		case "event":
			if f.Event != nil {
				onEvent(f.Channel, *f.Event)
			}
		}
	}
}
