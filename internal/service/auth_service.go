package service

import (
	"context"

	"heartbridge/internal/auth"
	"heartbridge/internal/models"
	"heartbridge/internal/observability"
	"heartbridge/internal/repository"
	"heartbridge/internal/validation"
)

type AuthService struct {
	backend  auth.Backend
	tokens   *auth.TokenIssuer
	userRepo repository.UserRepository
}

// AuthResult is returned by every successful sign-in. Profile is nil until
// the member completes registration.
type AuthResult struct {
	Token    string        `json:"token"`
	Identity auth.Identity `json:"identity"`
	Profile  *models.User  `json:"profile"`
}

func NewAuthService(backend auth.Backend, tokens *auth.TokenIssuer, userRepo repository.UserRepository) *AuthService {
	return &AuthService{backend: backend, tokens: tokens, userRepo: userRepo}
}

// Register creates a password account. The new member still has to
// complete their profile.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	if err := validation.ValidateRegistration(email, password); err != nil {
		return nil, err
	}
	id, err := s.backend.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.signedIn(ctx, id)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if err := validation.ValidateCredentials(email, password); err != nil {
		return nil, err
	}
	id, err := s.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.signedIn(ctx, id)
}

// LoginWithIDToken signs in with a third-party ID token.
func (s *AuthService) LoginWithIDToken(ctx context.Context, provider, idToken string) (*AuthResult, error) {
	if provider == "" || idToken == "" {
		return nil, models.NewValidationError(auth.MsgInvalidIDToken)
	}
	id, err := s.backend.SignInWithIDToken(ctx, provider, idToken)
	if err != nil {
		return nil, err
	}
	return s.signedIn(ctx, id)
}

func (s *AuthService) signedIn(ctx context.Context, id *auth.Identity) (*AuthResult, error) {
	token, err := s.tokens.Issue(*id)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	result := &AuthResult{Token: token, Identity: *id}
	profile, err := s.userRepo.GetByID(ctx, id.UID)
	switch {
	case err == nil:
		result.Profile = profile
	case !models.IsNotFound(err):
		observability.GlobalLogger.WarnContext(ctx, "failed to load profile at sign-in",
			"user_id", id.UID,
			"error", err,
		)
	}

	observability.GlobalLogger.InfoContext(ctx, "member signed in",
		"user_id", id.UID,
		"provider", id.Provider,
	)
	return result, nil
}

// Logout revokes token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(ctx, token)
	if err != nil {
		return models.NewUnauthorizedError(models.MsgUnauthenticated)
	}
	return s.tokens.Revoke(ctx, claims)
}
