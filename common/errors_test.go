package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorPreservesOriginalText(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:8088: connect: connection refused")
	err := NewError(ErrorKindConnectivity, "deploy", "", "Failed to reach the network", cause)

	assert.Contains(t, err.Error(), "Failed to reach the network")
	assert.Contains(t, err.Error(), "Original error: "+cause.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestIsKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("session failed; %w", NewError(ErrorKindExistence, "read", "ab", "not found", nil))

	assert.True(t, IsKind(err, ErrorKindExistence))
	assert.False(t, IsKind(err, ErrorKindCompatibility))
	assert.False(t, IsKind(errors.New("plain"), ErrorKindExistence))
	assert.Equal(t, "existence", ErrorKindExistence.String())
}
