package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvg(t *testing.T) {
	assert.Equal(t, 2.0, Avg([]float64{1, 2, 3}))
}

func TestCoerce(t *testing.T) {
	assert.Equal(t, 10, Coerce(5, 10, 100))
	assert.Equal(t, 100, Coerce(250, 10, 100))
	assert.Equal(t, 42, Coerce(42, 10, 100))
}

func TestMinMax(t *testing.T) {
	values := []float64{24.0, 40.5, 21.0}

	assert.Equal(t, 21.0, Min(values))
	assert.Equal(t, 40.5, Max(values))
}
