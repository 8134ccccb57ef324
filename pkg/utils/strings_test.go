package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstToken(t *testing.T) {
	assert.Equal(t, "203.0.113.7", FirstToken("203.0.113.7, 10.0.0.1"))
	assert.Equal(t, "single", FirstToken(" single "))
	assert.Equal(t, "", FirstToken(""))
}
