package products

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCritical(t *testing.T) {
	assert.True(t, IsCritical(0, 10, 0.10))
	assert.True(t, IsCritical(1, 10, 0.10))
	assert.False(t, IsCritical(2, 10, 0.10))
	assert.True(t, IsCritical(-3, 10, 0.10))
	assert.False(t, IsCritical(0, 0, 0.10), "no threshold")
	assert.True(t, IsCritical(5, 10, 0.5))
}
