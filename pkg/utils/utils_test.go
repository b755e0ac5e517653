package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "comision de energia", Fold("  Comisión de Energía "))
	assert.Equal(t, "nunez", Fold("NÚÑEZ"))
}

func TestMatchesAll(t *testing.T) {
	assert.True(t, MatchesAll("", "anything"))
	assert.True(t, MatchesAll("jose  perez", "José Pérez", "Gerente"))
	assert.True(t, MatchesAll("perez gerente", "José Pérez", "Gerente"))
	assert.False(t, MatchesAll("perez director", "José Pérez", "Gerente"))
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, CheckPassword("s3cret-pass", hash))
	assert.False(t, CheckPassword("other", hash))
	assert.False(t, CheckPassword("", ""))

	_, err = HashPassword(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
