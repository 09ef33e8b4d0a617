package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHashAndCompare(t *testing.T) {
	hash, err := GetHash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, CompareHash(hash, "correct horse battery staple"))
	assert.Error(t, CompareHash(hash, "wrong password"))
}

func TestGetHash_Unique(t *testing.T) {
	h1, err := GetHash("same password")
	require.NoError(t, err)
	h2, err := GetHash("same password")
	require.NoError(t, err)
	// bcrypt salts every hash
	assert.NotEqual(t, h1, h2)
}
