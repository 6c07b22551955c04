package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"heartbridge/internal/auth"
	"heartbridge/internal/bootstrap"
	"heartbridge/internal/config"
	"heartbridge/internal/feed"
	"heartbridge/internal/models"
	"heartbridge/internal/prefs"
	"heartbridge/internal/repository"
	"heartbridge/internal/session"
	"heartbridge/internal/theme"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// app holds the state shared by every hbctl command.
type app struct {
	out       io.Writer
	prefsPath string
	pageSize  int

	// openRuntime is replaced in tests with an in-memory runtime.
	openRuntime func(ctx context.Context, needRedis bool) (*bootstrap.Runtime, error)
	ownsRuntime bool

	rt      *bootstrap.Runtime
	prefs   prefs.Store
	client  *auth.Client
	session *session.Manager
	themes  *theme.Manager
}

func newApp(out io.Writer) *app {
	return &app{
		out:         out,
		openRuntime: loadRuntime,
		ownsRuntime: true,
	}
}

func loadRuntime(ctx context.Context, needRedis bool) (*bootstrap.Runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipRedis: !needRedis})
}

func defaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".hbctl.yml"
	}
	return filepath.Join(dir, "heartbridge", "hbctl.yml")
}

func (a *app) runtime(ctx context.Context, needRedis bool) (*bootstrap.Runtime, error) {
	if a.rt != nil {
		return a.rt, nil
	}
	rt, err := a.openRuntime(ctx, needRedis)
	if err != nil {
		return nil, err
	}
	a.rt = rt
	return rt, nil
}

func (a *app) openPrefs() (prefs.Store, error) {
	if a.prefs != nil {
		return a.prefs, nil
	}
	if err := os.MkdirAll(filepath.Dir(a.prefsPath), 0o700); err != nil {
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}
	store, err := prefs.OpenFile(a.prefsPath)
	if err != nil {
		return nil, err
	}
	a.prefs = store
	return store, nil
}

// start restores the persisted identity and loads its profile. With
// followTheme the theme switches to match the member, as it does after a
// sign-in in the web client.
func (a *app) start(ctx context.Context, followTheme bool) error {
	if a.session != nil {
		return nil
	}
	rt, err := a.runtime(ctx, false)
	if err != nil {
		return err
	}
	store, err := a.openPrefs()
	if err != nil {
		return err
	}

	a.client = auth.NewClient(rt.Auth)
	id, err := loadIdentity(ctx, store)
	if err != nil {
		return err
	}
	if id != nil {
		a.client.Restore(ctx, id)
	}

	a.themes = theme.NewManager(store)
	if err := a.themes.Load(ctx); err != nil {
		return err
	}
	var themes *theme.Manager
	if followTheme {
		themes = a.themes
	}
	a.session = session.NewManager(a.client, repository.NewUserRepository(rt.Store), themes, store)
	a.session.Start(ctx)
	return nil
}

func (a *app) close() {
	if a.session != nil {
		a.session.Close()
	}
	if a.rt != nil && a.ownsRuntime {
		_ = a.rt.Close()
	}
}

func (a *app) articleFeed() *feed.ArticleFeed {
	return feed.NewArticleFeed(repository.NewArticleRepository(a.rt.Store), a.session, a.pageSize)
}

func (a *app) commentThread() *feed.CommentThread {
	return feed.NewCommentThread(repository.NewCommentRepository(a.rt.Store), a.session, a.pageSize, feed.WithAtomicLikes())
}

// requireSignIn fails when no identity is stored.
func (a *app) requireSignIn() (*auth.Identity, error) {
	id := a.session.Identity()
	if id == nil {
		return nil, errors.New("not signed in; run hbctl login first")
	}
	return id, nil
}

func loadIdentity(ctx context.Context, store prefs.Store) (*auth.Identity, error) {
	raw, ok, err := store.Get(ctx, prefs.KeyIdentity)
	if err != nil || !ok {
		return nil, err
	}
	var id auth.Identity
	if err := yaml.Unmarshal([]byte(raw), &id); err != nil {
		return nil, fmt.Errorf("parse stored identity: %w", err)
	}
	if id.UID == "" {
		return nil, nil
	}
	return &id, nil
}

// saveIdentity persists the client's current identity, or forgets it when
// signed out.
func (a *app) saveIdentity(ctx context.Context) error {
	id := a.client.Current()
	if id == nil {
		return a.prefs.Remove(ctx, prefs.KeyIdentity)
	}
	raw, err := yaml.Marshal(id)
	if err != nil {
		return err
	}
	return a.prefs.Set(ctx, prefs.KeyIdentity, string(raw))
}

// displayError prefers the user-facing message of application errors.
func displayError(err error) string {
	return models.DisplayMessage(err, err.Error())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "hbctl",
		Short:         "Terminal client for HeartBridge",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.prefsPath, "prefs", defaultPrefsPath(), "preferences file holding the session")
	root.PersistentFlags().IntVar(&a.pageSize, "page-size", feed.DefaultArticlePageSize, "items fetched per page")

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newProfileCmd(a),
		newArticlesCmd(a),
		newCommentsCmd(a),
		newThemeCmd(a),
		newEventsCmd(a),
	)
	return root
}
