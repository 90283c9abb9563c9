package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := Invalid("content required")

	require.True(t, errors.Is(err, ErrValidation))
	require.Equal(t, "content required", err.Error())

	wrapped := fmt.Errorf("create note: %w", err)
	require.True(t, errors.Is(wrapped, ErrValidation))

	var ve *ValidationError
	require.True(t, errors.As(wrapped, &ve))
	require.Equal(t, "content required", ve.Reason)
}

func TestValidationError_DoesNotMatchOthers(t *testing.T) {
	err := Invalid("x")
	require.False(t, errors.Is(err, ErrNotFound))
	require.False(t, errors.Is(err, ErrUnsupportedType))
}
