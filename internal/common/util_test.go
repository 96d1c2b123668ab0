package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- MakeRandHexString ----------

func TestMakeRandHexString_LengthAndHex(t *testing.T) {
	const n = 16
	s, err := MakeRandHexString(n)
	require.NoError(t, err)
	require.Len(t, s, n*2)

	_, err = hex.DecodeString(s)
	require.NoError(t, err, "string is not valid hex")
}

func TestMakeRandHexString_ZeroSize(t *testing.T) {
	s, err := MakeRandHexString(0)
	require.NoError(t, err)
	assert.Empty(t, s)
}

// ---------- WipeByteArray ----------

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte("Secret123!")
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

// ---------- ValidationError ----------

func TestValidationError_MatchesSentinel(t *testing.T) {
	var err error = NewValidationError("password", "too short")

	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, errors.Is(fmt.Errorf("register: %w", err), ErrValidation))
	assert.False(t, errors.Is(err, ErrComputation))

	var ve *ValidationError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &ve))
	assert.Equal(t, "too short", ve.Fields["password"])
}

func TestValidationError_AddAndMessage(t *testing.T) {
	ve := &ValidationError{}
	assert.True(t, ve.Empty())

	ve.Add("username", "is required")
	ve.Add("email", "is invalid")
	ve.Add("username", "too short")

	assert.False(t, ve.Empty())
	assert.Equal(t, "is required; too short", ve.Fields["username"])
	assert.Equal(t, "validation error: email: is invalid, username: is required; too short", ve.Error())
}
