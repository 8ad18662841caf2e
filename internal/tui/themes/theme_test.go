package themes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByName(t *testing.T) {
	assert.Equal(t, CatppuccinMocha.Primary, ByName(" Mocha ").Primary)
	assert.Equal(t, Default.Primary, ByName("unknown").Primary)
	assert.Equal(t, Default.Primary, ByName("").Primary)
}
