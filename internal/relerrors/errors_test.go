package relerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, KindInternal, "x"))
}

func TestIsMatchesByKindOnly(t *testing.T) {
	a := NotFound("identity %s not found", "dwr")
	b := NotFound("different message")
	assert.True(t, errors.Is(a, b))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("boom")
	wrapped := UpstreamError(cause, "upstream failed")
	assert.ErrorIs(t, wrapped, cause)
}

func TestWithContextChains(t *testing.T) {
	err := ParamError("bad input").WithContext("target", "Identity(ethereum,x)")
	assert.Equal(t, "Identity(ethereum,x)", err.Context["target"])
}

func TestGetKind(t *testing.T) {
	assert.Equal(t, KindNotFound, GetKind(NotFound("x")))
	assert.Equal(t, KindInternal, GetKind(errors.New("plain")))
	assert.Equal(t, KindInternal, GetKind(nil))
}
