package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestNewCarriesCode(t *testing.T) {
	err := NewC("credential rejected", codes.Unauthenticated)
	assert.Equal(t, codes.Unauthenticated, err.Code())
	assert.Equal(t, "credential rejected", err.Error())
	assert.Equal(t, http.StatusUnauthorized, err.HTTPStatusCode())
}

func TestWrapReturnsSameError(t *testing.T) {
	original := NewC("boom", codes.Internal)
	wrapped := Wrap(original, 0)
	assert.Same(t, original, wrapped)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, 0))
	assert.Nil(t, Mark(nil, 0))
	assert.Nil(t, WithCode(nil, codes.Internal))
}

func TestWrapPrefix(t *testing.T) {
	err := WrapPrefix(fmt.Errorf("connection refused"), "verify session", 0)
	assert.Equal(t, "verify session: connection refused", err.Error())
}

func TestUnwrap(t *testing.T) {
	inner := fmt.Errorf("inner")
	err := Wrap(inner, 0)
	assert.Equal(t, inner, err.Unwrap())
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, codes.Unknown, Code(fmt.Errorf("plain")))
	assert.Equal(t, codes.OK, Code(nil))
}

func TestHTTPStatusCodeOverride(t *testing.T) {
	err := NewC("conflict", codes.Unknown).WithHTTPStatusCode(http.StatusConflict)
	assert.Equal(t, http.StatusConflict, err.HTTPStatusCode())
	assert.Equal(t, http.StatusConflict, HTTPStatusCode(err))
}

func TestPublicMessage(t *testing.T) {
	err := NewC("pq: duplicate key value", codes.AlreadyExists).
		WithPublicMessage("That email is already registered")
	assert.Equal(t, "That email is already registered", err.PublicMessage())
	assert.Equal(t, "pq: duplicate key value", err.Error())
}

func TestErrorStackIncludesCaller(t *testing.T) {
	err := New("kaboom")
	assert.Contains(t, err.ErrorStack(), "errors_test.go")
}

func TestParsePanic(t *testing.T) {
	text := "panic: runtime error: index out of range\n" +
		"\n" +
		"goroutine 1 [running]:\n" +
		"main.processAction(0x0, 0x0)\n" +
		"\t/app/main.go:42 +0x1b\n" +
		"main.main()\n" +
		"\t/app/main.go:10 +0x20\n"

	err, perr := ParsePanic(text)
	require.NoError(t, perr)
	assert.Equal(t, "runtime error: index out of range", err.Error())
	assert.Equal(t, "panic", err.TypeName())
	assert.Equal(t, codes.Internal, err.Code())

	frames := err.StackFrames()
	require.Len(t, frames, 2)
	assert.Equal(t, "processAction", frames[0].Name)
	assert.Equal(t, "/app/main.go", frames[0].File)
	assert.Equal(t, 42, frames[0].LineNumber)
}

func TestParsePanicNoMessage(t *testing.T) {
	_, err := ParsePanic("goroutine 1 [running]:\n")
	assert.Error(t, err)
}
