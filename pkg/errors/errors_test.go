package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeUnavailable, "commit failed")

	require.ErrorIs(t, err, cause)
	require.True(t, IsCode(err, CodeUnavailable))
	require.Contains(t, err.Error(), "unavailable")
	require.Contains(t, err.Error(), "connection reset")
}

func TestWrapNilCause(t *testing.T) {
	err := Wrap(nil, CodeInvalid, "bad input")

	require.True(t, IsCode(err, CodeInvalid))
	require.Nil(t, err.Unwrap())
}

func TestIsCodeNonAppError(t *testing.T) {
	require.False(t, IsCode(errors.New("plain"), CodeInternal))
	require.False(t, IsCode(nil, CodeInternal))
}

func TestWithMeta(t *testing.T) {
	err := New(CodeConflict, "revision mismatch").
		WithMeta("expected", int64(3)).
		WithMeta("actual", int64(5))

	require.Equal(t, int64(3), err.Meta["expected"])
	require.Equal(t, int64(5), err.Meta["actual"])
}
