package touch

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// Calibration maps raw panel coordinates to display pixels. Its
// coefficients are, in order,
//
//	xadd_top, xmul_top, xadd_bot, xmul_bot,
//	yadd_left, ymul_left, yadd_right, ymul_right
//
// The x coefficients are interpolated between bottom and top by the
// raw y position and the y coefficients between left and right by the
// raw x position, modelling a panel whose sensitivity varies along its
// length.
type Calibration [8]float64

const (
	xaddTop = iota
	xmulTop
	xaddBot
	xmulBot
	yaddLeft
	ymulLeft
	yaddRight
	ymulRight
)

// Identity maps every raw coordinate to the same pixel coordinate.
var Identity = Calibration{0, 1, 0, 1, 0, 1, 0, 1}

// rawRange is the range of the 12 bit raw coordinates.
const rawRange = 4096

// Inset is the distance from the display edges of the calibration
// targets.
const Inset = 10

var ErrDegenerate = errors.New("touch: calibration points do not span the panel")

// Apply converts a raw coordinate to display pixels.
func (c Calibration) Apply(raw image.Point) image.Point {
	rx, ry := float64(raw.X), float64(raw.Y)
	fx, fy := rx/rawRange, ry/rawRange
	xmul := c[xmulBot] + (c[xmulTop]-c[xmulBot])*fy
	xadd := c[xaddBot] + (c[xaddTop]-c[xaddBot])*fy
	ymul := c[ymulRight] + (c[ymulLeft]-c[ymulRight])*fx
	yadd := c[yaddRight] + (c[yaddLeft]-c[yaddRight])*fx
	return image.Pt(
		int(math.Floor((rx+xadd)*xmul)),
		int(math.Floor((ry+yadd)*ymul)),
	)
}

func (c Calibration) String() string {
	return fmt.Sprintf("(%g,%.4g,%g,%.4g,%g,%.4g,%g,%.4g)",
		c[0], c[1], c[2], c[3], c[4], c[5], c[6], c[7])
}

// Targets returns the display positions of the calibration targets
// for a display of the given size: upper left, upper right, lower
// left and lower right.
func Targets(size image.Point) [4]image.Point {
	l, t := Inset, Inset
	r, b := size.X-Inset-1, size.Y-Inset-1
	return [4]image.Point{
		image.Pt(l, t),
		image.Pt(r, t),
		image.Pt(l, b),
		image.Pt(r, b),
	}
}

// Solve computes the calibration from the raw coordinates measured at
// the Targets of a display of the given size.
func Solve(raw [4]image.Point, size image.Point) (Calibration, error) {
	ul, ur, ll, lr := raw[0], raw[1], raw[2], raw[3]
	if ur.X == ul.X || lr.X == ll.X || ll.Y == ul.Y || lr.Y == ur.Y {
		return Calibration{}, ErrDegenerate
	}
	w := float64(size.X - 2*Inset)
	h := float64(size.Y - 2*Inset)
	var c Calibration
	c[xmulTop] = w / float64(ur.X-ul.X)
	c[xaddTop] = math.Trunc(-float64(ul.X) + Inset/c[xmulTop])
	c[xmulBot] = w / float64(lr.X-ll.X)
	c[xaddBot] = math.Trunc(-float64(ll.X) + Inset/c[xmulBot])
	c[ymulLeft] = h / float64(ll.Y-ul.Y)
	c[yaddLeft] = math.Trunc(-float64(ul.Y) + Inset/c[ymulLeft])
	c[ymulRight] = h / float64(lr.Y-ur.Y)
	c[yaddRight] = math.Trunc(-float64(ur.Y) + Inset/c[ymulRight])
	return c, nil
}
