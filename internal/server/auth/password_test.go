package auth

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(PasswordParams{MemoryKB: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	return h
}

func TestHasher_HashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	for _, p := range []string{"secret123", "", "пароль", strings.Repeat("x", 200)} {
		encoded, err := h.Hash(p)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=1,p=1$"))
		assert.True(t, h.Verify(p, encoded))
		assert.False(t, h.Verify(p+"!", encoded))
	}
}

func TestHasher_Salted(t *testing.T) {
	h := newTestHasher(t)

	a, err := h.Hash("secret123")
	require.NoError(t, err)
	b, err := h.Hash("secret123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("secret123", a))
	assert.True(t, h.Verify("secret123", b))
}

func TestHasher_VerifyUsesEncodedParams(t *testing.T) {
	strong, err := NewHasher(PasswordParams{MemoryKB: 16 * 1024, Time: 2, Parallelism: 2, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)

	encoded, err := strong.Hash("secret123")
	require.NoError(t, err)

	assert.True(t, newTestHasher(t).Verify("secret123", encoded))
}

func TestHasher_VerifyMalformed(t *testing.T) {
	h := newTestHasher(t)

	good, err := h.Hash("secret123")
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	malformed := []string{
		"",
		"plaintext",
		"$2a$10$abcdefghijklmnopqrstuv",
		"$argon2i$v=19$m=8192,t=1,p=1$" + parts[4] + "$" + parts[5],
		"$argon2id$v=18$m=8192,t=1,p=1$" + parts[4] + "$" + parts[5],
		"$argon2id$v=19$m=8192,t=1$" + parts[4] + "$" + parts[5],
		"$argon2id$v=19$m=8192,t=0,p=1$" + parts[4] + "$" + parts[5],
		"$argon2id$v=19$m=1,t=1,p=1$" + parts[4] + "$" + parts[5],
		"$argon2id$v=19$m=8192,t=1,p=1,x=2$" + parts[4] + "$" + parts[5],
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$" + parts[5],
		"$argon2id$v=19$m=8192,t=1,p=1$" + parts[4] + "$short",
		good + "$extra",
		"$argon2id$v=19$m=4294967295,t=1,p=1$" + parts[4] + "$" + parts[5],
		"$argon2id$v=19$m=8192,t=4294967295,p=1$" + parts[4] + "$" + parts[5],
		"$argon2id$v=19$m=8192,t=1,p=255$" + parts[4] + "$" + parts[5],
		"$argon2id$v=19$m=4294967295,t=4294967295,p=255$" + parts[4] + "$" + parts[5],
		"$argon2id$v=19$m=8192,t=1,p=1$" + base64.RawStdEncoding.EncodeToString(make([]byte, 65)) + "$" + parts[5],
		"$argon2id$v=19$m=8192,t=1,p=1$" + parts[4] + "$" + base64.RawStdEncoding.EncodeToString(make([]byte, 65)),
	}

	for _, m := range malformed {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("secret123", m), m)
		})
	}
}

func TestNewHasher_Bounds(t *testing.T) {
	base := DefaultPasswordParams()

	tests := []struct {
		name   string
		modify func(p *PasswordParams)
	}{
		{"memory", func(p *PasswordParams) { p.MemoryKB = 1024 }},
		{"time", func(p *PasswordParams) { p.Time = 0 }},
		{"parallelism", func(p *PasswordParams) { p.Parallelism = 0 }},
		{"salt", func(p *PasswordParams) { p.SaltLength = 8 }},
		{"key", func(p *PasswordParams) { p.KeyLength = 8 }},
		{"memory too high", func(p *PasswordParams) { p.MemoryKB = 2 * 1024 * 1024 }},
		{"time too high", func(p *PasswordParams) { p.Time = 17 }},
		{"parallelism too high", func(p *PasswordParams) { p.Parallelism = 255 }},
		{"salt too long", func(p *PasswordParams) { p.SaltLength = 65 }},
		{"key too long", func(p *PasswordParams) { p.KeyLength = 65 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.modify(&p)
			_, err := NewHasher(p)
			assert.Error(t, err)
		})
	}

	_, err := NewHasher(base)
	assert.NoError(t, err)
}

func TestParsePHC_RejectsOversizedCosts(t *testing.T) {
	h := newTestHasher(t)
	good, err := h.Hash("secret123")
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	_, err = parsePHC("$argon2id$v=19$m=4294967295,t=4294967295,p=255$" + parts[4] + "$" + parts[5])
	assert.ErrorIs(t, err, errMalformedHash)

	p, err := parsePHC("$argon2id$v=19$m=1048576,t=16,p=16$" + parts[4] + "$" + parts[5])
	require.NoError(t, err)
	assert.Equal(t, uint32(1024*1024), p.memoryKB)
}
