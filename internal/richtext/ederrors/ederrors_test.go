package ederrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefinedErrorIs(t *testing.T) {
	err := ErrStaleAddress.WithFormattedMessage("[0 1]:3")

	assert.True(t, errors.Is(err, ErrStaleAddress))
	assert.False(t, errors.Is(err, ErrPathNotFound))
	assert.Equal(t, "address [0 1]:3 does not resolve in current tree", err.Error())
	assert.Equal(t, "Адрес [0 1]:3 устарел", err.RuErr)

	wrapped := fmt.Errorf("wrap node: %w", err)
	assert.True(t, errors.Is(wrapped, ErrStaleAddress))

	var defined DefinedError
	assert.True(t, errors.As(wrapped, &defined))
	assert.Equal(t, 1002, defined.Code)
}

func TestWithFormattedMessageWithoutArgs(t *testing.T) {
	err := ErrPathNotFound.WithFormattedMessage()
	assert.Equal(t, "path  not found", err.Error())
}
