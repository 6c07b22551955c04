package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "SecurePass1", false},
		{"Exactly Min Length", "Abcdefg1", false},
		{"Too Short", "Abcdef1", true},
		{"No Upper", "securepass1", true},
		{"No Lower", "SECUREPASS1", true},
		{"No Digit", "SecurePass", true},
		{"Special Not Required", "Abcdefgh9", false},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, IsValidPassword(tt.password))
			} else {
				assert.NoError(t, err)
				assert.True(t, IsValidPassword(tt.password))
			}
		})
	}
}

func TestPasswordStrength(t *testing.T) {
	t.Parallel()
	tests := []struct {
		password string
		want     Strength
	}{
		{"Ab1!", StrengthWeak},
		{"abcdefgh", StrengthWeak},
		{"abcdef12", StrengthWeak},
		{"Abcdef12", StrengthMedium},
		{"abcde12!", StrengthMedium},
		{"Abcde12!", StrengthStrong},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PasswordStrength(tt.password), tt.password)
	}
}
