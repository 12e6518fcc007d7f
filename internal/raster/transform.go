package raster

// transform is a 2D affine transformation matrix in PDF's column-major
// convention:
//
//	[ a  b  0 ]
//	[ c  d  0 ]
//	[ e  f  1 ]
//
// a, d scale; b, c skew/rotate; e, f translate. Content-stream "cm"
// operators compose onto the current transform exactly as "q"/"Q" save and
// restore it.
type transform struct {
	a, b, c, d, e, f float64
}

func identityTransform() transform {
	return transform{a: 1, d: 1}
}

// then returns t composed with other, equivalent to applying t first and
// other second.
func (t transform) then(other transform) transform {
	return transform{
		a: t.a*other.a + t.b*other.c,
		b: t.a*other.b + t.b*other.d,
		c: t.c*other.a + t.d*other.c,
		d: t.c*other.b + t.d*other.d,
		e: t.e*other.a + t.f*other.c + other.e,
		f: t.e*other.b + t.f*other.d + other.f,
	}
}

// apply maps a point through t.
func (t transform) apply(x, y float64) (float64, float64) {
	return t.a*x + t.c*y + t.e, t.b*x + t.d*y + t.f
}

// corners maps the unit square's four corners through t, the placement PDF
// assigns an image XObject invoked with "Do": the CTM in effect maps
// [0,1]x[0,1] onto the page.
func (t transform) corners() [4][2]float64 {
	var out [4][2]float64
	pts := [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for i, p := range pts {
		x, y := t.apply(p[0], p[1])
		out[i] = [2]float64{x, y}
	}
	return out
}
