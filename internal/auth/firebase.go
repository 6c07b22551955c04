package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"heartbridge/internal/models"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
)

// DefaultPasswordEndpoint is the Identity Toolkit password sign-in endpoint.
const DefaultPasswordEndpoint = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

// FirebaseBackend authenticates against Firebase Authentication.
type FirebaseBackend struct {
	client     *fbauth.Client
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// NewFirebaseBackend builds a backend from an initialised Firebase app.
// apiKey is the web API key used for password sign-in.
func NewFirebaseBackend(ctx context.Context, app *firebase.App, apiKey string) (*FirebaseBackend, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return &FirebaseBackend{
		client:     client,
		apiKey:     apiKey,
		endpoint:   DefaultPasswordEndpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// CreateAccount implements Backend.
func (b *FirebaseBackend) CreateAccount(ctx context.Context, email, password string) (*Identity, error) {
	params := (&fbauth.UserToCreate{}).Email(normalizeEmail(email)).Password(password)
	u, err := b.client.CreateUser(ctx, params)
	if err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return nil, emailInUse()
		}
		return nil, models.NewInternalError(err)
	}
	return &Identity{UID: u.UID, Email: u.Email, Provider: ProviderPassword}, nil
}

// SignInWithIDToken implements Backend. The token must be a Firebase ID
// token; provider only labels the identity when the token does not name one.
func (b *FirebaseBackend) SignInWithIDToken(ctx context.Context, provider, idToken string) (*Identity, error) {
	tok, err := b.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, invalidIDToken(err)
	}
	email, _ := tok.Claims["email"].(string)
	if p := tok.Firebase.SignInProvider; p != "" {
		provider = p
	}
	return &Identity{UID: tok.UID, Email: email, Provider: provider}, nil
}

type passwordSignInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordSignInResponse struct {
	LocalID string `json:"localId"`
	Email   string `json:"email"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// rejectedSignIns are the Identity Toolkit errors that mean bad credentials.
var rejectedSignIns = map[string]bool{
	"EMAIL_NOT_FOUND":           true,
	"INVALID_PASSWORD":          true,
	"INVALID_LOGIN_CREDENTIALS": true,
	"INVALID_EMAIL":             true,
	"USER_DISABLED":             true,
}

// SignInWithPassword implements Backend using the Identity Toolkit REST API.
func (b *FirebaseBackend) SignInWithPassword(ctx context.Context, email, password string) (*Identity, error) {
	body, err := json.Marshal(passwordSignInRequest{
		Email:             normalizeEmail(email),
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	endpoint := b.endpoint + "?key=" + url.QueryEscape(b.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("password sign-in: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	var out passwordSignInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, models.NewInternalError(fmt.Errorf("decode sign-in response: %w", err))
	}
	if out.Error != nil {
		if rejectedSignIns[out.Error.Message] {
			return nil, invalidCredentials()
		}
		return nil, models.NewInternalError(errors.New(out.Error.Message))
	}
	if resp.StatusCode != http.StatusOK || out.LocalID == "" {
		return nil, models.NewInternalError(fmt.Errorf("password sign-in: unexpected status %d", resp.StatusCode))
	}
	return &Identity{UID: out.LocalID, Email: out.Email, Provider: ProviderPassword}, nil
}
