// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root for details.

package audiocore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewErrorFormatsMessage(t *testing.T) {
	err := NewError(ErrInvalidArgument, "bad value %d", 42)
	assert.Equal(t, "invalid_argument: bad value 42", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestWrapErrorPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapError(ErrWriteFault, cause, "writing config")
	assert.Contains(t, err.Error(), "disk full")
	assert.Same(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
}

func TestKindOfUnwrapsThroughFmtErrorf(t *testing.T) {
	base := NewError(ErrEndOfFile, "eof")
	wrapped := fmt.Errorf("reading track: %w", base)
	assert.Equal(t, ErrEndOfFile, KindOf(wrapped))
}

func TestKindOfDefaultsToUnexpected(t *testing.T) {
	assert.Equal(t, ErrUnexpected, KindOf(errors.New("plain")))
}
