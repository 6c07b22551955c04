package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"heartbridge/internal/models"
	"heartbridge/internal/notifications"
	"heartbridge/internal/prefs"
	"heartbridge/internal/repository"
	"heartbridge/internal/theme"
	"heartbridge/internal/validation"

	"github.com/redis/go-redis/v9"
)

type ProfileService struct {
	userRepo repository.UserRepository
	rdb      *redis.Client
	events   notifications.Publisher
	now      func() time.Time

	// Per-member preferences when no Redis client is configured.
	mu    sync.Mutex
	local map[string]*prefs.Memory
}

// CompleteProfileInput is the server-side registration form. Role is the
// role the member picked before filling in the profile.
type CompleteProfileInput struct {
	UserID  string
	Email   string
	Role    models.Role
	Profile models.ProfileInput
}

func NewProfileService(userRepo repository.UserRepository, rdb *redis.Client, events notifications.Publisher) *ProfileService {
	return &ProfileService{
		userRepo: userRepo,
		rdb:      rdb,
		events:   events,
		now:      time.Now,
		local:    make(map[string]*prefs.Memory),
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, models.NewUnauthenticatedError()
	}
	return s.userRepo.GetByID(ctx, userID)
}

// CompleteProfile creates or replaces the member's profile. Completing an
// existing profile again keeps its creation time.
func (s *ProfileService) CompleteProfile(ctx context.Context, in CompleteProfileInput) (*models.User, error) {
	if in.UserID == "" {
		return nil, models.NewUnauthenticatedError()
	}
	if !in.Role.Valid() {
		return nil, models.NewValidationError(validation.MsgRole)
	}
	if !validation.IsValidEmail(in.Email) {
		return nil, models.NewValidationError(validation.MsgEmail)
	}
	form, err := validation.ValidateProfileInput(in.Profile)
	if err != nil {
		return nil, err
	}

	now := s.now()
	created := now
	existing, err := s.userRepo.GetByID(ctx, in.UserID)
	switch {
	case err == nil:
		created = existing.CreatedAt
	case !models.IsNotFound(err):
		return nil, err
	}

	user := &models.User{
		UID:         in.UserID,
		Email:       in.Email,
		DisplayName: form.DisplayName,
		Role:        in.Role,
		Phone:       form.Phone,
		BirthDate:   form.BirthDate(),
		AgeRange:    form.AgeRange,
		Interests:   form.Interests,
		CreatedAt:   created,
		UpdatedAt:   now,
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	publish(ctx, s.events, notifications.Event{
		Type:    notifications.EventProfileComplete,
		ActorID: in.UserID,
	})
	return user, nil
}

func (s *ProfileService) prefsFor(userID string) prefs.Store {
	if s.rdb != nil {
		return prefs.NewRedisStore(s.rdb, userID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	store, ok := s.local[userID]
	if !ok {
		store = prefs.NewMemory()
		s.local[userID] = store
	}
	return store
}

// Theme returns the member's stored theme, falling back to the theme of
// their role and then to neutral.
func (s *ProfileService) Theme(ctx context.Context, userID string) (models.Theme, error) {
	if userID == "" {
		return "", models.NewUnauthenticatedError()
	}
	v, ok, err := s.prefsFor(userID).Get(ctx, prefs.KeyTheme)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if t := models.Theme(v); ok && t.Valid() {
		return t, nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if models.IsNotFound(err) {
		return models.ThemeNeutral, nil
	}
	if err != nil {
		return "", err
	}
	return user.Theme(), nil
}

func (s *ProfileService) SetTheme(ctx context.Context, userID string, t models.Theme) (models.Theme, error) {
	if userID == "" {
		return "", models.NewUnauthenticatedError()
	}
	m := theme.NewManager(s.prefsFor(userID))
	if err := m.Set(ctx, t); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return "", err
		}
		return "", models.NewInternalError(err)
	}
	return m.Current(), nil
}
