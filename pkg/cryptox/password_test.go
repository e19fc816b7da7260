package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"), "hash should be PHC format")

	// Same password, fresh salt, different hash
	hash2, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEqual(t, hash, hash2)
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("opensesame")
	require.NoError(t, err)

	t.Run("accepts the right password", func(t *testing.T) {
		require.NoError(t, VerifyPassword("opensesame", hash))
	})

	t.Run("rejects the wrong password", func(t *testing.T) {
		require.Error(t, VerifyPassword("opensesam", hash))
	})

	t.Run("rejects malformed hashes", func(t *testing.T) {
		require.Error(t, VerifyPassword("opensesame", "not-a-hash"))
		require.Error(t, VerifyPassword("opensesame", "$bcrypt$v=19$m=1,t=1,p=1$AAAA$BBBB"))
	})
}
