package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"6 characters", "Abcde1", nil},
		{"long password", "This-is-a-very-long-password-123!@#", nil},
		{"with unicode", "Pässwörd9", nil},
		{"5 characters", "Abc1e", ErrPasswordTooShort},
		{"empty", "", ErrPasswordTooShort},
		{"no uppercase", "abcdef1", ErrPasswordNoUpper},
		{"no digit", "Abcdefg", ErrPasswordNoDigit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHashPassword_ValidPassword(t *testing.T) {
	hash, err := HashPassword("Secret123")

	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", hash)
	// Verify the hash is valid bcrypt format
	assert.True(t, len(hash) >= 60, "bcrypt hash should be at least 60 chars")
}

func TestHashPassword_RejectsWeakPassword(t *testing.T) {
	hash, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
	assert.Empty(t, hash)
}

func TestHashPassword_DifferentHashesForSamePassword(t *testing.T) {
	hash1, err := HashPassword("Testpassword123")
	require.NoError(t, err)

	hash2, err := HashPassword("Testpassword123")
	require.NoError(t, err)

	// bcrypt generates different hashes due to random salt
	assert.NotEqual(t, hash1, hash2)
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("Password123")
	require.NoError(t, err)

	assert.True(t, CheckPassword("Password123", hash))
	assert.False(t, CheckPassword("password123", hash))
	assert.False(t, CheckPassword("", hash))
	assert.False(t, CheckPassword("Password123", "invalid-hash"))
	assert.False(t, CheckPassword("Password123", ""))
}
