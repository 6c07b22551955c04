package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"heartbridge/internal/auth"
	"heartbridge/internal/docstore"
	"heartbridge/internal/models"
	"heartbridge/internal/prefs"
	"heartbridge/internal/repository"
	"heartbridge/internal/theme"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var joined = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	client  *auth.Client
	users   repository.UserRepository
	themes  *theme.Manager
	prefs   *prefs.Memory
	session *Manager
}

func newFixture(t *testing.T, users repository.UserRepository) *fixture {
	t.Helper()
	store := docstore.NewMemory()
	if users == nil {
		users = repository.NewUserRepository(store)
	}
	f := &fixture{
		client: auth.NewClient(auth.NewLocalBackend(store, nil)),
		users:  users,
		prefs:  prefs.NewMemory(),
	}
	f.themes = theme.NewManager(f.prefs)
	f.session = NewManager(f.client, f.users, f.themes, f.prefs)
	f.session.now = func() time.Time { return joined }
	t.Cleanup(f.session.Close)
	return f
}

func saveProfile(t *testing.T, users repository.UserRepository, uid string, role models.Role) {
	t.Helper()
	require.NoError(t, users.Save(context.Background(), &models.User{
		UID:         uid,
		Email:       uid + "@example.com",
		DisplayName: "Member " + uid,
		Role:        role,
		AgeRange:    "36-50",
		CreatedAt:   joined,
		UpdatedAt:   joined,
	}))
}

func TestManager_LoadingUntilFirstNotification(t *testing.T) {
	f := newFixture(t, nil)
	assert.True(t, f.session.Loading())

	f.session.Start(context.Background())
	assert.False(t, f.session.Loading())
	assert.Nil(t, f.session.Identity())
	assert.Nil(t, f.session.Profile())
	assert.Equal(t, models.ThemeNeutral, f.themes.Current())
}

func TestManager_FollowsAuthChanges(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	saveProfile(t, f.users, "u-parent", models.RoleParent)
	f.session.Start(ctx)

	f.client.Restore(ctx, &auth.Identity{UID: "u-parent", Email: "u-parent@example.com"})
	require.NotNil(t, f.session.Profile())
	assert.Equal(t, models.RoleParent, f.session.Profile().Role)
	assert.Equal(t, models.ThemeParent, f.themes.Current())

	// Identity without a profile keeps the identity and the current theme
	f.client.Restore(ctx, &auth.Identity{UID: "u-new", Email: "new@example.com"})
	assert.Equal(t, "u-new", f.session.Identity().UID)
	assert.Nil(t, f.session.Profile())
	assert.Equal(t, models.ThemeParent, f.themes.Current())

	require.NoError(t, f.client.SignOut(ctx))
	assert.Nil(t, f.session.Identity())
	assert.Equal(t, models.ThemeNeutral, f.themes.Current())
}

type failingUsers struct {
	repository.UserRepository
}

func (failingUsers) GetByID(context.Context, string) (*models.User, error) {
	return nil, models.NewInternalError(errors.New("store unavailable"))
}

func TestManager_LoadFailureEmptiesProfile(t *testing.T) {
	f := newFixture(t, failingUsers{})
	ctx := context.Background()
	f.session.Start(ctx)

	f.client.Restore(ctx, &auth.Identity{UID: "u1"})
	assert.Equal(t, "u1", f.session.Identity().UID)
	assert.Nil(t, f.session.Profile())
	assert.False(t, f.session.Loading())
}

type blockingUsers struct {
	repository.UserRepository
	blockUID string
	started  chan struct{}
	release  chan struct{}
}

func (b *blockingUsers) GetByID(ctx context.Context, uid string) (*models.User, error) {
	if uid == b.blockUID {
		close(b.started)
		<-b.release
	}
	return b.UserRepository.GetByID(ctx, uid)
}

func TestManager_DiscardsStaleProfileLoad(t *testing.T) {
	store := docstore.NewMemory()
	backing := repository.NewUserRepository(store)
	saveProfile(t, backing, "slow", models.RoleTeen)
	saveProfile(t, backing, "fast", models.RoleParent)

	users := &blockingUsers{
		UserRepository: backing,
		blockUID:       "slow",
		started:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	f := newFixture(t, users)
	ctx := context.Background()
	f.session.Start(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.client.Restore(ctx, &auth.Identity{UID: "slow"})
	}()
	<-users.started

	f.client.Restore(ctx, &auth.Identity{UID: "fast"})
	close(users.release)
	<-done

	require.NotNil(t, f.session.Profile())
	assert.Equal(t, "fast", f.session.Profile().UID)
	assert.Equal(t, models.ThemeParent, f.themes.Current())
}

func TestManager_SignOut(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	saveProfile(t, f.users, "u1", models.RoleTeen)
	f.session.Start(ctx)
	f.client.Restore(ctx, &auth.Identity{UID: "u1"})
	require.Equal(t, models.ThemeTeen, f.themes.Current())

	require.NoError(t, f.session.SignOut(ctx))
	assert.Nil(t, f.session.Identity())
	assert.Nil(t, f.session.Profile())
	assert.Nil(t, f.client.Current())
	assert.Equal(t, models.ThemeNeutral, f.themes.Current())
}

func TestManager_CloseDetaches(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.session.Start(ctx)
	f.session.Close()

	f.client.Restore(ctx, &auth.Identity{UID: "u1"})
	assert.Nil(t, f.session.Identity())
}

func validProfile() models.ProfileInput {
	return models.ProfileInput{
		DisplayName: "  小明媽媽 ",
		AgeRange:    "36-50",
		BirthYear:   1985,
		BirthMonth:  4,
		BirthDay:    12,
		Interests:   []string{"閱讀", " "},
	}
}

func TestManager_CompleteProfile(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.session.Start(ctx)

	_, err := f.session.CompleteProfile(ctx, validProfile())
	require.Error(t, err)
	assert.Equal(t, models.CodeUnauthorized, models.ErrorCode(err))

	require.NoError(t, f.session.SelectRole(ctx, models.RoleParent))
	f.client.Restore(ctx, &auth.Identity{UID: "u1", Email: "mom@example.com"})
	assert.Nil(t, f.session.Profile())

	user, err := f.session.CompleteProfile(ctx, validProfile())
	require.NoError(t, err)
	assert.Equal(t, models.RoleParent, user.Role)
	assert.Equal(t, "小明媽媽", user.DisplayName)
	assert.Equal(t, []string{"閱讀"}, user.Interests)
	assert.Equal(t, joined, user.CreatedAt)

	_, ok, err := f.prefs.Get(ctx, prefs.KeyRegistrationRole)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NotNil(t, f.session.Profile())
	assert.Equal(t, "mom@example.com", f.session.Profile().Email)
	assert.Equal(t, models.ThemeParent, f.themes.Current())
}

func TestManager_CompleteProfileDefaultsToTeen(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.session.Start(ctx)
	f.client.Restore(ctx, &auth.Identity{UID: "u2", Email: "kid@example.com"})

	user, err := f.session.CompleteProfile(ctx, validProfile())
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeen, user.Role)
}

func TestManager_CompleteProfileValidates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.session.Start(ctx)
	f.client.Restore(ctx, &auth.Identity{UID: "u3", Email: "kid@example.com"})

	in := validProfile()
	in.AgeRange = "99"
	_, err := f.session.CompleteProfile(ctx, in)
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))

	assert.Error(t, f.session.SelectRole(ctx, "grandparent"))
}
