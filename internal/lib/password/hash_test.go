package password

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "regular password", password: "password123"},
		{name: "password with special chars", password: "p@ssw0rd!@#$%^&*()"},
		{name: "short password", password: "short"},
		{
			name:     "longer than bcrypt limit",
			password: string(make([]byte, 80)),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotHash, err := GetHash(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, gotHash)
			assert.NoError(t, CompareHash(gotHash, tt.password))
		})
	}
}

func TestCompareHash(t *testing.T) {
	hash, err := GetHash("correct")
	require.NoError(t, err)

	tests := []struct {
		name     string
		hash     string
		password string
		wantErr  bool
	}{
		{name: "match", hash: hash, password: "correct"},
		{name: "wrong password", hash: hash, password: "incorrect", wantErr: true},
		{name: "case sensitive", hash: hash, password: "Correct", wantErr: true},
		{name: "garbage hash", hash: "not-a-hash", password: "correct", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CompareHash(tt.hash, tt.password)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrMismatch))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompareDummy_AlwaysMismatch(t *testing.T) {
	assert.ErrorIs(t, CompareDummy("dummy-password-for-timing"), ErrMismatch)
	assert.ErrorIs(t, CompareDummy(""), ErrMismatch)
}
