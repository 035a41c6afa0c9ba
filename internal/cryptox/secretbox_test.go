package cryptox

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/atlassist/internal/common"
	"github.com/dmitrijs2005/atlassist/internal/logging"
)

func newBox(t *testing.T, key []byte) *SecretBox {
	t.Helper()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	box, err := NewSecretBox(key, logger)
	require.NoError(t, err)
	return box
}

func TestNewSecretBox_RejectsBadKeySize(t *testing.T) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := NewSecretBox(make([]byte, 16), logger)
	assert.Error(t, err)
}

func TestSecretBox_RoundTrip(t *testing.T) {
	box := newBox(t, common.GenerateRandByteArray(KeySize))

	tests := []string{
		"tok123",
		"a much longer atlassian api token with spaces and symbols !@#",
		strings.Repeat("x", 4096),
		"юникод",
	}

	for _, plaintext := range tests {
		ciphertext := box.Encrypt(plaintext)
		require.NotEmpty(t, ciphertext)
		assert.NotEqual(t, plaintext, ciphertext)
		assert.Equal(t, plaintext, box.Decrypt(ciphertext))
	}
}

func TestSecretBox_EmptyStrings(t *testing.T) {
	box := newBox(t, common.GenerateRandByteArray(KeySize))

	assert.Equal(t, "", box.Encrypt(""))
	assert.Equal(t, "", box.Decrypt(""))
}

func TestSecretBox_NonceMakesCiphertextUnique(t *testing.T) {
	box := newBox(t, common.GenerateRandByteArray(KeySize))

	a := box.Encrypt("same secret")
	b := box.Encrypt("same secret")
	assert.NotEqual(t, a, b)
}

func TestSecretBox_DecryptGarbageReturnsEmpty(t *testing.T) {
	box := newBox(t, common.GenerateRandByteArray(KeySize))

	assert.Equal(t, "", box.Decrypt("not base64 at all!!!"))
	assert.Equal(t, "", box.Decrypt("dG9vc2hvcnQ"))
}

func TestSecretBox_DecryptWithDifferentKeyReturnsEmpty(t *testing.T) {
	box1 := newBox(t, common.GenerateRandByteArray(KeySize))
	box2 := newBox(t, common.GenerateRandByteArray(KeySize))

	ciphertext := box1.Encrypt("secret")
	assert.Equal(t, "", box2.Decrypt(ciphertext))
}

func TestSecretBox_TamperedCiphertextReturnsEmpty(t *testing.T) {
	box := newBox(t, common.GenerateRandByteArray(KeySize))

	ciphertext := box.Encrypt("secret")
	tampered := []byte(ciphertext)
	tampered[len(tampered)-1] ^= 'x'
	assert.Equal(t, "", box.Decrypt(string(tampered)))
}
