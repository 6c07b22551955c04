package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"heartbridge/internal/docstore"
	"heartbridge/internal/models"
	"heartbridge/internal/observability"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	credentialNamespace = uuid.MustParse("3d0c7a8e-2b8f-4f5e-8d61-0c9e5b7a4f21")
	idpNamespace        = uuid.MustParse("b6e1d9c4-7a3f-4b2e-9c58-1f0a6d2e8b37")
)

// LocalBackend keeps password credentials in the document store and accepts
// HS256 ID tokens signed by configured third-party providers.
type LocalBackend struct {
	store      docstore.Store
	idpSecrets map[string]string
	cost       int
	now        func() time.Time
	logger     *observability.RepoLogger
}

// NewLocalBackend returns a backend over store. idpSecrets maps provider
// names to their token signing secrets.
func NewLocalBackend(store docstore.Store, idpSecrets map[string]string) *LocalBackend {
	return &LocalBackend{
		store:      store,
		idpSecrets: idpSecrets,
		cost:       bcrypt.DefaultCost,
		now:        time.Now,
		logger:     observability.NewRepoLogger(models.CollectionCredentials),
	}
}

// WithCost sets the bcrypt cost used for new passwords.
func (b *LocalBackend) WithCost(cost int) *LocalBackend {
	b.cost = cost
	return b
}

// LocalUID is the uid LocalBackend assigns to a password account.
func LocalUID(email string) string {
	return uuid.NewSHA1(credentialNamespace, []byte(normalizeEmail(email))).String()
}

// ProviderUID is the uid LocalBackend assigns to a third-party subject.
func ProviderUID(provider, subject string) string {
	return uuid.NewSHA1(idpNamespace, []byte(provider+"/"+subject)).String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount implements Backend.
func (b *LocalBackend) CreateAccount(ctx context.Context, email, password string) (*Identity, error) {
	email = normalizeEmail(email)
	uid := LocalUID(email)

	_, err := b.store.Get(ctx, models.CollectionCredentials, uid)
	switch {
	case err == nil:
		return nil, emailInUse()
	case !errors.Is(err, docstore.ErrNotFound):
		return nil, models.NewInternalError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("hash password: %w", err))
	}
	err = b.store.Set(ctx, models.CollectionCredentials, uid, docstore.Fields{
		"uid":          uid,
		"email":        email,
		"passwordHash": string(hash),
		"createAt":     b.now(),
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	b.logger.LogCreate(ctx, map[string]any{"uid": uid})
	return &Identity{UID: uid, Email: email, Provider: ProviderPassword}, nil
}

// SignInWithPassword implements Backend.
func (b *LocalBackend) SignInWithPassword(ctx context.Context, email, password string) (*Identity, error) {
	email = normalizeEmail(email)
	uid := LocalUID(email)

	doc, err := b.store.Get(ctx, models.CollectionCredentials, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, invalidCredentials()
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	hash, _ := doc.Fields["passwordHash"].(string)
	if hash == "" {
		b.logger.LogMalformed(ctx, uid, errors.New("credential has no password hash"))
		return nil, invalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, invalidCredentials()
	}
	return &Identity{UID: uid, Email: email, Provider: ProviderPassword}, nil
}

// SignInWithIDToken implements Backend.
func (b *LocalBackend) SignInWithIDToken(_ context.Context, provider, idToken string) (*Identity, error) {
	secret, ok := b.idpSecrets[provider]
	if !ok || secret == "" {
		return nil, unknownProvider(provider)
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(b.now))
	if err != nil {
		return nil, invalidIDToken(err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, invalidIDToken(errors.New("missing subject"))
	}
	email, _ := claims["email"].(string)
	return &Identity{UID: ProviderUID(provider, sub), Email: normalizeEmail(email), Provider: provider}, nil
}
