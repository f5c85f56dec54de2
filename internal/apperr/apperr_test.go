package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("handler: %w", Denied("Cannot delete yourself"))
	assert.Equal(t, Forbidden, KindOf(err))
	assert.Equal(t, "Cannot delete yourself", MessageOf(err))

	plain := errors.New("connection reset by peer")
	assert.Equal(t, Internal, KindOf(plain))
	assert.Equal(t, "Internal server error", MessageOf(plain))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := Wrap(cause, "Failed to create user")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, Internal, KindOf(err))
	assert.Equal(t, "Failed to create user", MessageOf(err))
}
