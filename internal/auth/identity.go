// Package auth provides the authentication backends, the client-side auth
// session that notifies subscribers of sign-in changes, and the API bearer
// token issuer.
package auth

import (
	"context"
	"errors"

	"heartbridge/internal/models"
)

// Sign-in providers recorded on an Identity.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Identity is an authenticated account.
type Identity struct {
	UID      string `json:"uid" yaml:"uid"`
	Email    string `json:"email" yaml:"email"`
	Provider string `json:"provider" yaml:"provider"`
}

// Backend authenticates accounts against an identity provider.
type Backend interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Identity, error)
	// SignInWithIDToken exchanges a third-party ID token (Google and the like)
	// for an identity.
	SignInWithIDToken(ctx context.Context, provider, idToken string) (*Identity, error)
	CreateAccount(ctx context.Context, email, password string) (*Identity, error)
}

// User-facing auth messages.
const (
	MsgInvalidCredentials = "登入失敗，請檢查郵件和密碼"
	MsgEmailInUse         = "此電子郵件已被註冊"
	MsgUnknownProvider    = "不支援的登入方式"
	MsgInvalidIDToken     = "第三方登入失敗"
	MsgTokenRevoked       = "Token has been revoked"
)

// Sentinel causes carried inside the AppErrors this package returns.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrUnknownProvider    = errors.New("unknown identity provider")
	ErrInvalidIDToken     = errors.New("invalid id token")
	ErrTokenRevoked       = errors.New("token revoked")
)

func invalidCredentials() error {
	return &models.AppError{Code: models.CodeUnauthorized, Message: MsgInvalidCredentials, Err: ErrInvalidCredentials}
}

func emailInUse() error {
	return &models.AppError{Code: models.CodeValidation, Message: MsgEmailInUse, Err: ErrEmailInUse}
}

func unknownProvider(provider string) error {
	return &models.AppError{Code: models.CodeValidation, Message: MsgUnknownProvider, Err: errors.Join(ErrUnknownProvider, errors.New(provider))}
}

func invalidIDToken(cause error) error {
	return &models.AppError{Code: models.CodeUnauthorized, Message: MsgInvalidIDToken, Err: errors.Join(ErrInvalidIDToken, cause)}
}
