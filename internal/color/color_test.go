package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpp(t *testing.T) {
	assert.Equal(t, Black, White.Opp())
	assert.Equal(t, White, Black.Opp())
}

func TestFromWhiteToMove(t *testing.T) {
	assert.Equal(t, White, FromWhiteToMove(true))
	assert.Equal(t, Black, FromWhiteToMove(false))
}

func TestValid(t *testing.T) {
	assert.True(t, White.Valid())
	assert.True(t, Black.Valid())
	assert.False(t, Color("").Valid())
	assert.False(t, Color("green").Valid())
}
