package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf(t *testing.T) {
	assert.Equal(t, Ok, Of(nil))
	assert.Equal(t, KeyNotFound, Of(KeyNotFound))

	wrapped := fmt.Errorf("table delete 42: %w", KeyNotFound)
	assert.Equal(t, KeyNotFound, Of(wrapped))
	assert.True(t, errors.Is(wrapped, KeyNotFound))
	assert.False(t, errors.Is(wrapped, KeyExists))

	assert.Equal(t, InvalidArgument, Of(errors.New("boom")))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "allocation failed", AllocationFailed.Error())
	assert.Equal(t, "unknown", Kind(200).String())
}
