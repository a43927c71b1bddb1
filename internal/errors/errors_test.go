package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		wantType ErrorType
		wantCode int
		wantMsg  string
	}{
		{"not found", NotFound("a.txt"), ErrorTypeNotFound, http.StatusNotFound, "File 'a.txt' does not exist."},
		{"already exists", AlreadyExists("a.txt"), ErrorTypeAlreadyExists, http.StatusConflict, "File 'a.txt' already exists."},
		{"already frozen", AlreadyFrozen(), ErrorTypeAlreadyFrozen, http.StatusConflict, "Current version is already a snapshot."},
		{"no parent", NoParent(), ErrorTypeNoParent, http.StatusConflict, "Cannot rollback - no parent version exists."},
		{"version not found", VersionNotFound(7), ErrorTypeVersionNotFound, http.StatusNotFound, "Version 7 does not exist."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestIsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("snapshot a.txt: %w", AlreadyFrozen())

	assert.True(t, Is(err, ErrorTypeAlreadyFrozen))
	assert.False(t, Is(err, ErrorTypeNoParent))
	assert.False(t, Is(errors.New("plain"), ErrorTypeNotFound))
	assert.Equal(t, ErrorTypeAlreadyFrozen, TypeOf(err))
	assert.Equal(t, ErrorTypeInternal, TypeOf(errors.New("plain")))
}

func TestInternalUnwraps(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Internal("storing content", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storing content: disk on fire", err.Error())
	assert.Equal(t, http.StatusInternalServerError, err.Code)
}

func TestAs(t *testing.T) {
	e, ok := As(fmt.Errorf("wrapped: %w", NotFound("a")))
	assert.True(t, ok)
	assert.Equal(t, ErrorTypeNotFound, e.Type)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
