package main

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"heartbridge/internal/auth"
	"heartbridge/internal/bootstrap"
	"heartbridge/internal/config"
	"heartbridge/internal/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type cli struct {
	t         *testing.T
	rt        *bootstrap.Runtime
	prefsPath string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	store := docstore.NewMemory()
	return &cli{
		t: t,
		rt: &bootstrap.Runtime{
			Config: &config.Config{},
			Store:  store,
			Auth:   auth.NewLocalBackend(store, nil).WithCost(bcrypt.MinCost),
		},
		prefsPath: filepath.Join(t.TempDir(), "hbctl.yml"),
	}
}

// run executes one hbctl invocation with a fresh app, as a separate process
// would.
func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	var out bytes.Buffer
	a := newApp(&out)
	a.openRuntime = func(context.Context, bool) (*bootstrap.Runtime, error) { return c.rt, nil }
	a.ownsRuntime = false
	defer a.close()

	root := newRootCmd(a)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--prefs", c.prefsPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

var (
	publishedID = regexp.MustCompile(`Published article (\S+)\.`)
	postedID    = regexp.MustCompile(`Posted comment (\S+)\.`)
)

func TestHbctl_MemberFlow(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("register", "mom@example.com", "Passw0rd1", "--role", "parent")
	assert.Contains(t, out, "Registered mom@example.com")

	out = c.mustRun("whoami")
	assert.Contains(t, out, "Signed in as mom@example.com")
	assert.Contains(t, out, "Profile not completed yet.")

	out = c.mustRun("profile", "complete",
		"--name", "王媽媽",
		"--age-range", "36-50",
		"--birth", "1980-05-01",
		"--interests", "閱讀, 料理",
	)
	assert.Contains(t, out, "王媽媽 · 家長 · 36-50 歲")
	assert.Contains(t, out, "Theme: parent")

	out = c.mustRun("articles", "new",
		"--title", "手機使用時間",
		"--content", "想聽聽大家怎麼和孩子約定手機的使用時間呢？",
		"--tags", "3C,家庭",
	)
	m := publishedID.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	articleID := m[1]

	out = c.mustRun("articles", "list", "--role", "parent")
	assert.Contains(t, out, articleID)
	assert.Contains(t, out, "手機使用時間")

	out = c.mustRun("articles", "list", "--role", "teen")
	assert.Contains(t, out, "No articles.")

	out = c.mustRun("comments", "add", articleID, "我們家是", "一天一小時")
	m = postedID.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	commentID := m[1]

	c.mustRun("comments", "like", commentID)

	out = c.mustRun("articles", "show", articleID)
	assert.Contains(t, out, "#3c #家庭")
	assert.Contains(t, out, "我們家是 一天一小時")
	assert.Contains(t, out, "♥ 0")

	out = c.mustRun("comments", "mine")
	assert.Contains(t, out, commentID)

	c.mustRun("articles", "edit", articleID, "--title", "孩子的手機使用時間")
	out = c.mustRun("articles", "mine")
	assert.Contains(t, out, "孩子的手機使用時間")

	out = c.mustRun("comments", "delete", commentID)
	assert.Contains(t, out, "Deleted comment")
	out = c.mustRun("articles", "delete", articleID)
	assert.Contains(t, out, "Deleted article")
	out = c.mustRun("articles", "mine")
	assert.Contains(t, out, "No articles.")
}

func TestHbctl_Theme(t *testing.T) {
	c := newCLI(t)

	assert.Equal(t, "neutral\n", c.mustRun("theme", "get"))
	assert.Equal(t, "teen\n", c.mustRun("theme", "set", "teen"))
	assert.Equal(t, "teen\n", c.mustRun("theme", "get"))

	_, err := c.run("theme", "set", "purple")
	require.Error(t, err)

	// Signing out resets the theme.
	c.mustRun("logout")
	assert.Equal(t, "neutral\n", c.mustRun("theme", "get"))
}

func TestHbctl_Errors(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("register", "kid@example.com", "weak")
	require.Error(t, err)
	assert.NotEqual(t, err.Error(), "")

	_, err = c.run("articles", "mine")
	require.Error(t, err)
	assert.Contains(t, displayError(err), "not signed in")

	c.mustRun("register", "kid@example.com", "Passw0rd1")
	_, err = c.run("articles", "new", "--title", "我的第一篇文章", "--content", "這是一段超過二十個字的內容，用來測試沒有個人資料時的行為。")
	require.Error(t, err, "posting needs a completed profile")
	assert.Equal(t, "請先完成個人資料", displayError(err))

	c.mustRun("logout")
	out := c.mustRun("whoami")
	assert.Contains(t, out, "Not signed in.")

	_, err = c.run("login", "kid@example.com", "Wrong0pass")
	require.Error(t, err)

	out = c.mustRun("login", "kid@example.com", "Passw0rd1")
	assert.Contains(t, out, "Signed in as kid@example.com")

	_, err = c.run("articles", "edit", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to change")
}
