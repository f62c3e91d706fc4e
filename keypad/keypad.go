// Package keypad maps touch positions to on-screen buttons.
package keypad

import "image"

// Key is a circular or rectangular touch area.
type Key struct {
	Value string
	// Circle selects the circular area given by Center and Radius.
	// Otherwise, the area is Bounds, edges included.
	Circle bool
	Center image.Point
	Radius int
	Bounds image.Rectangle
}

// Circle returns a circular key.
func Circle(value string, center image.Point, radius int) Key {
	return Key{Value: value, Circle: true, Center: center, Radius: radius}
}

// Rect returns a rectangular key covering the points from p0 to p1,
// inclusive.
func Rect(value string, p0, p1 image.Point) Key {
	return Key{Value: value, Bounds: image.Rectangle{Min: p0, Max: p1}}
}

// Contains reports whether p is within the key.
func (k Key) Contains(p image.Point) bool {
	if k.Circle {
		d := p.Sub(k.Center)
		return d.X*d.X+d.Y*d.Y < k.Radius*k.Radius
	}
	r := k.Bounds
	return r.Min.X <= p.X && p.X <= r.Max.X && r.Min.Y <= p.Y && p.Y <= r.Max.Y
}

// Hit returns the value of the first key containing p.
func Hit(keys []Key, p image.Point) (string, bool) {
	for _, k := range keys {
		if k.Contains(p) {
			return k.Value, true
		}
	}
	return "", false
}
