package hwerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(KindValidation, "fan speed %d out of range", 5)

	assert.Equal(t, "fan speed 5 out of range", err.Error())
	assert.Equal(t, KindValidation, err.Kind())
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindRemoteUnreachable, cause, "querying %s", "/json/health_fans")

	assert.Equal(t, "querying /json/health_fans: connection refused", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindCommandTimeout, KindOf(New(KindCommandTimeout, "timed out")))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain error")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestKindOf_WrappedInPlainError(t *testing.T) {
	// GIVEN a kinded error buried under fmt.Errorf wrapping
	inner := New(KindCommandRejected, "controller said no")
	outer := fmt.Errorf("running command: %w", inner)

	// THEN the kind is still found
	assert.Equal(t, KindCommandRejected, KindOf(outer))
	assert.True(t, IsKind(outer, KindCommandRejected))
	assert.False(t, IsKind(outer, KindValidation))
}
