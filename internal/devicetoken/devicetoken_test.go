package devicetoken

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	secret := []byte("test-device-secret")

	raw, err := Sign(42, "GPS-0042", secret)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	id, serial, err := Verify(raw, secret)
	require.NoError(t, err)
	require.Equal(t, uint(42), id)
	require.Equal(t, "GPS-0042", serial)
}

func TestVerifyWrongSecret(t *testing.T) {
	raw, err := Sign(7, "GPS-0007", []byte("secret-a"))
	require.NoError(t, err)

	_, _, err = Verify(raw, []byte("secret-b"))
	require.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	_, _, err := Verify("not.a.jwt", []byte("secret"))
	require.Error(t, err)

	_, _, err = Verify("", []byte("secret"))
	require.Error(t, err)
}
