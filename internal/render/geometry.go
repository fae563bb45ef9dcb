package render

// DevicePoint is a point in a renderer's native coordinate space.
type DevicePoint struct {
	X float64
	Y float64
}

// Canvas is the design surface in canvas units (px). Both renderers
// use pages/images whose device units equal canvas units, so the
// mapper only converts percentages and, where needed, flips the
// Y axis.
type Canvas struct {
	W float64
	H float64
}

// ToRaster maps a percentage position into the raster backend's
// space: origin top-left, Y down — the same orientation as the design
// space, so no inversion is needed.
func (c Canvas) ToRaster(p Position) DevicePoint {
	return DevicePoint{
		X: p.X / 100 * c.W,
		Y: p.Y / 100 * c.H,
	}
}

// ToVector maps a percentage position into PDF user space: origin
// bottom-left, Y up. Only this backend inverts Y.
func (c Canvas) ToVector(p Position) DevicePoint {
	return DevicePoint{
		X: p.X / 100 * c.W,
		Y: c.H - (p.Y / 100 * c.H),
	}
}

// PctWidth converts a width percentage to canvas units.
func (c Canvas) PctWidth(pct float64) float64 {
	return pct / 100 * c.W
}
