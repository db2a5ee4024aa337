package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorMessage(t *testing.T) {
	err := NewAPIError(http.StatusBadRequest, "POST", "/app/projects/proj1", "Project id already exists", "BadParam", "")
	assert.Equal(t, "skilltree API error (400) POST /app/projects/proj1: Project id already exists [BadParam]", err.Error())

	bare := NewAPIError(http.StatusNotFound, "GET", "/x", "", "", "")
	assert.Equal(t, "skilltree API error (404) GET /x: Not Found", bare.Error())
}

func TestStatusPredicatesUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("create skill: %w", NewAPIError(http.StatusNotFound, "GET", "/x", "", "", ""))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsUnauthorized(wrapped))
	assert.False(t, IsNotFound(fmt.Errorf("plain")))

	assert.True(t, IsUnauthorized(NewAPIError(http.StatusUnauthorized, "", "", "", "", "")))
	assert.True(t, IsForbidden(NewAPIError(http.StatusForbidden, "", "", "", "", "")))
	assert.True(t, IsBadRequest(NewAPIError(http.StatusBadRequest, "", "", "", "", "")))
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(NewAPIError(http.StatusConflict, "", "", "", "", "")))
	assert.True(t, IsConflict(NewAPIError(http.StatusBadRequest, "", "", "", "SkillAlreadyInCatalog", "")))
	assert.False(t, IsConflict(NewAPIError(http.StatusBadRequest, "", "", "", "BadParam", "")))
}

func TestNetworkErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	err := &NetworkError{Operation: "POST", URL: "http://localhost/x", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "network error during POST to http://localhost/x")
}
