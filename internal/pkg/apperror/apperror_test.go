package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreUnavailableWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("retrieve: %w", StoreUnavailable(cause))

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, CodeStoreUnavailable, appErr.Code)
	assert.True(t, appErr.Retryable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestInvalidRequest(t *testing.T) {
	err := InvalidRequest("query is required")

	assert.False(t, err.Retryable)
	assert.Equal(t, "INVALID_REQUEST: query is required", err.Error())

	_, ok := As(errors.New("plain"))
	assert.False(t, ok)
}
