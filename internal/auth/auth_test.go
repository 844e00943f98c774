package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash, "hash must not be the plaintext")
	assert.True(t, CheckPassword("secret1", hash))
	assert.False(t, CheckPassword("secret2", hash))
}

func TestHashPasswordIsSalted(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "two hashes of the same password should differ")
	assert.True(t, CheckPassword("same-password", first))
	assert.True(t, CheckPassword("same-password", second))
}

func TestHashPasswordEmpty(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestCheckPasswordRejectsGarbage(t *testing.T) {
	assert.False(t, CheckPassword("secret", ""))
	assert.False(t, CheckPassword("", "$2a$10$abcdefghijklmnopqrstuv"))
	assert.False(t, CheckPassword("secret", "secret"), "plaintext is never a valid hash")
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("alice@example.com"))
	assert.False(t, IsEmail("alice"))
}
