package server

import (
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"heartbridge/internal/models"
	"heartbridge/internal/notifications"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	gws "github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listen serves app on a loopback port and returns the event stream URL.
func listen(t *testing.T, app *fiber.App) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "ws://" + ln.Addr().String() + "/api/ws"
}

func dialEvents(t *testing.T, endpoint string, query url.Values) *gws.Conn {
	t.Helper()
	conn, resp, err := gws.DefaultDialer.Dial(endpoint+"?"+query.Encode(), nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *gws.Conn) EventFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f EventFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestEventStream_RejectsBeforeUpgrade(t *testing.T) {
	app := newTestApp(t, "")
	token := signUp(t, app, "mom@example.com", models.RoleParent, "小美媽媽")

	var body models.ErrorResponse
	status := call(t, app, http.MethodGet, "/api/ws", "", nil, &body)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, models.CodeUnauthorized, body.Code)

	status = call(t, app, http.MethodGet, "/api/ws?token=not-a-token", "", nil, &body)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status = call(t, app, http.MethodGet, "/api/ws", token, nil, &body)
	assert.Equal(t, fiber.StatusUpgradeRequired, status)
	assert.Equal(t, models.CodeValidation, body.Code)
}

func TestEventStream_HandshakeNeedsToken(t *testing.T) {
	endpoint := listen(t, newTestApp(t, ""))

	_, resp, err := gws.DefaultDialer.Dial(endpoint, nil)
	require.ErrorIs(t, err, gws.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestEventStream_RelaysArticleAndMemberEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	app := newTestAppWithRedis(t, "", rdb)
	endpoint := listen(t, app)

	parent := signUp(t, app, "mom@example.com", models.RoleParent, "小美媽媽")
	teen := signUp(t, app, "kid@example.com", models.RoleTeen, "小明")

	var article models.Article
	status := call(t, app, http.MethodPost, "/api/articles", parent, fiber.Map{
		"title":   "睡前手機該怎麼管",
		"content": "孩子每天睡前都要滑手機，我們該怎麼好好溝通，才不會每晚都吵架呢？",
	}, &article)
	require.Equal(t, fiber.StatusCreated, status)

	conn := dialEvents(t, endpoint, url.Values{
		"token":   {parent},
		"article": {article.ID},
		"mine":    {"true"},
	})
	ready := readFrame(t, conn)
	require.Equal(t, FrameSubscribed, ready.Type)
	assert.Equal(t, []string{
		notifications.ArticleChannel(article.ID),
		notifications.UserChannel(article.AuthorID),
	}, ready.Channels)

	var comment models.Comment
	status = call(t, app, http.MethodPost, "/api/articles/"+article.ID+"/comments", teen,
		fiber.Map{"content": "可以一起訂個時間嗎？"}, &comment)
	require.Equal(t, fiber.StatusCreated, status)

	seen := map[string]bool{}
	for range 2 {
		f := readFrame(t, conn)
		require.Equal(t, FrameEvent, f.Type)
		require.NotNil(t, f.Event)
		assert.Equal(t, notifications.EventCommentCreated, f.Event.Type)
		assert.Equal(t, article.ID, f.Event.ArticleID)
		assert.Equal(t, comment.ID, f.Event.CommentID)
		assert.Equal(t, comment.AuthorID, f.Event.ActorID)
		seen[f.Channel] = true
	}
	assert.Equal(t, map[string]bool{
		notifications.ArticleChannel(article.ID):    true,
		notifications.UserChannel(article.AuthorID): true,
	}, seen)
}

func TestEventStream_WithoutRedisSendsError(t *testing.T) {
	app := newTestApp(t, "")
	endpoint := listen(t, app)
	token := signUp(t, app, "kid@example.com", models.RoleTeen, "小明")

	conn := dialEvents(t, endpoint, url.Values{"token": {token}})
	f := readFrame(t, conn)
	assert.Equal(t, FrameError, f.Type)
	assert.Equal(t, MsgEventsUnavailable, f.Error)
}

func TestEventChannels(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{notifications.BroadcastChannel()}, eventChannels("u1", "", false))
	assert.Equal(t, []string{notifications.ArticleChannel("a1")}, eventChannels("u1", "a1", false))
	assert.Equal(t, []string{notifications.UserChannel("u1")}, eventChannels("u1", "", true))
	assert.Equal(t, []string{notifications.BroadcastChannel()}, eventChannels("", "", true))
}
