package session

import (
	"context"
	"fmt"

	"heartbridge/internal/models"
	"heartbridge/internal/observability"
	"heartbridge/internal/prefs"
	"heartbridge/internal/validation"
)

// SelectRole remembers the role picked at the start of registration until
// the profile is completed.
func (m *Manager) SelectRole(ctx context.Context, role models.Role) error {
	if !role.Valid() {
		return models.NewValidationError(validation.MsgRole)
	}
	if err := m.prefs.Set(ctx, prefs.KeyRegistrationRole, string(role)); err != nil {
		return models.NewInternalError(fmt.Errorf("store registration role: %w", err))
	}
	return nil
}

// RegistrationRole returns the role chosen by SelectRole, defaulting to
// teen when none was stored.
func (m *Manager) RegistrationRole(ctx context.Context) (models.Role, error) {
	v, ok, err := m.prefs.Get(ctx, prefs.KeyRegistrationRole)
	if err != nil {
		return "", models.NewInternalError(fmt.Errorf("read registration role: %w", err))
	}
	if role := models.Role(v); ok && role.Valid() {
		return role, nil
	}
	return models.RoleTeen, nil
}

// CompleteProfile writes the signed-in member's profile using the stored
// registration role, clears that role and reloads the session.
func (m *Manager) CompleteProfile(ctx context.Context, in models.ProfileInput) (*models.User, error) {
	id := m.Identity()
	if id == nil {
		return nil, models.NewUnauthenticatedError()
	}
	if !validation.IsValidEmail(id.Email) {
		return nil, models.NewValidationError(validation.MsgEmail)
	}

	form, err := validation.ValidateProfileInput(in)
	if err != nil {
		return nil, err
	}
	role, err := m.RegistrationRole(ctx)
	if err != nil {
		return nil, err
	}

	now := m.now()
	user := &models.User{
		UID:         id.UID,
		Email:       id.Email,
		DisplayName: form.DisplayName,
		Role:        role,
		Phone:       form.Phone,
		BirthDate:   form.BirthDate(),
		AgeRange:    form.AgeRange,
		Interests:   form.Interests,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.users.Save(ctx, user); err != nil {
		return nil, err
	}
	if err := m.prefs.Remove(ctx, prefs.KeyRegistrationRole); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to clear registration role", "error", err)
	}

	m.load(ctx, id)
	return user, nil
}
