package encryption_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmservice/assistant-service/internal/pkg/encryption"
)

func newAES(t *testing.T) *encryption.AESEncryptor {
	t.Helper()
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	enc, err := encryption.NewAESEncryptor(key)
	require.NoError(t, err)
	return enc
}

func TestNewAESEncryptor_KeyForms(t *testing.T) {
	_, err := encryption.NewAESEncryptor("0123456789abcdef0123456789abcdef")
	assert.NoError(t, err, "raw 32-byte key")

	_, err = encryption.NewAESEncryptor("tooshort!!!")
	assert.ErrorContains(t, err, "must be 32 bytes")
}

func TestNew_EmptyKeyIsPassThrough(t *testing.T) {
	enc, err := encryption.New("")
	require.NoError(t, err)
	assert.IsType(t, &encryption.NoOpEncryptor{}, enc)

	_, err = encryption.New("short")
	assert.Error(t, err)
}

func TestAESEncryptor_RoundTrip(t *testing.T) {
	// Arrange
	enc := newAES(t)
	payload := []byte(`{"userId":"u-1","mode":"Plan"}`)

	// Act
	sealed, err := enc.Encrypt(payload, []byte("u-1"))
	require.NoError(t, err)
	opened, err := enc.Decrypt(sealed, []byte("u-1"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, payload, opened)
	assert.NotContains(t, sealed, "Plan")
}

func TestAESEncryptor_NonceMakesCiphertextUnique(t *testing.T) {
	enc := newAES(t)

	a, err := enc.Encrypt([]byte("same"), nil)
	require.NoError(t, err)
	b, err := enc.Encrypt([]byte("same"), nil)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestAESEncryptor_AssociatedDataMismatch(t *testing.T) {
	enc := newAES(t)
	sealed, err := enc.Encrypt([]byte("session"), []byte("u-1"))
	require.NoError(t, err)

	_, err = enc.Decrypt(sealed, []byte("u-2"))

	assert.ErrorContains(t, err, "failed to decrypt")
}

func TestAESEncryptor_DecryptGarbage(t *testing.T) {
	enc := newAES(t)

	_, err := enc.Decrypt("not base64!!", nil)
	assert.ErrorContains(t, err, "decode")

	_, err = enc.Decrypt("YWJj", nil)
	assert.ErrorContains(t, err, "too short")
}

func TestAESEncryptor_WrongKey(t *testing.T) {
	sealed, err := newAES(t).Encrypt([]byte("secret"), nil)
	require.NoError(t, err)

	_, err = newAES(t).Decrypt(sealed, nil)

	assert.Error(t, err)
}

func TestNoOpEncryptor_RoundTrip(t *testing.T) {
	enc := encryption.NewNoOpEncryptor()

	sealed, err := enc.Encrypt([]byte("plain"), []byte("ignored"))
	require.NoError(t, err)
	opened, err := enc.Decrypt(sealed, nil)

	require.NoError(t, err)
	assert.Equal(t, "plain", string(opened))
}
