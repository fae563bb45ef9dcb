package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToRasterKeepsTopLeftOrigin(t *testing.T) {
	c := Canvas{W: 1000, H: 800}

	pt := c.ToRaster(Position{X: 50, Y: 25})
	assert.Equal(t, DevicePoint{X: 500, Y: 200}, pt)

	pt = c.ToRaster(Position{X: 0, Y: 0})
	assert.Equal(t, DevicePoint{X: 0, Y: 0}, pt)
}

func TestToVectorInvertsY(t *testing.T) {
	c := Canvas{W: 1000, H: 800}

	pt := c.ToVector(Position{X: 50, Y: 25})
	assert.Equal(t, DevicePoint{X: 500, Y: 600}, pt)

	// Design-space top maps to the top of PDF space.
	pt = c.ToVector(Position{X: 0, Y: 0})
	assert.Equal(t, DevicePoint{X: 0, Y: 800}, pt)

	// Design-space bottom maps to PDF y=0.
	pt = c.ToVector(Position{X: 100, Y: 100})
	assert.Equal(t, DevicePoint{X: 1000, Y: 0}, pt)
}

func TestMappingsAgreeOnX(t *testing.T) {
	c := Canvas{W: 1123, H: 794}
	p := Position{X: 37.5, Y: 62.5}
	assert.Equal(t, c.ToRaster(p).X, c.ToVector(p).X)
}

func TestPctWidth(t *testing.T) {
	c := Canvas{W: 1000, H: 800}
	assert.Equal(t, 380.0, c.PctWidth(38))
}
