package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanPatternEscapesGlob(t *testing.T) {
	assert.Equal(t, "counter-private-state:*", scanPattern("counter-private-state:"))
	assert.Equal(t, `a\*b:*`, scanPattern("a*b:"))
	assert.Equal(t, `a\?\[x\]:*`, scanPattern("a?[x]:"))
	assert.Equal(t, `a\\:b:*`, scanPattern(`a\:b:`))
}
