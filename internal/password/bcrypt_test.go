package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt_HashAndVerify(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	digest, err := h.Hash("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", digest)

	assert.True(t, h.Verify("hunter2", digest))
	assert.False(t, h.Verify("hunter3", digest))
}

func TestBcrypt_SaltedPerHash(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	first, err := h.Hash("same")
	require.NoError(t, err)
	second, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same", first))
	assert.True(t, h.Verify("same", second))
}

func TestBcrypt_Verify_MalformedDigest(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	tests := []struct {
		name   string
		digest string
	}{
		{name: "empty", digest: ""},
		{name: "garbage", digest: "not-a-hash"},
		{name: "truncated", digest: "$2a$04$abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.False(t, h.Verify("anything", tt.digest))
		})
	}
}

func TestBcrypt_Hash_Errors(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	_, err := h.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = h.Hash(strings.Repeat("a", 100))
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestNewBcrypt_InvalidCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcrypt(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcrypt(99).cost)
	assert.Equal(t, bcrypt.MinCost, NewBcrypt(bcrypt.MinCost).cost)
}
