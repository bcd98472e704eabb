package geometry

import "math"

// integrate computes ∫ₐᵇ f with adaptive Simpson quadrature. All state lives
// on the stack, so concurrent callers never interfere.
func integrate(f func(float64) float64, a, b, tol float64) float64 {
	m := 0.5 * (a + b)
	fa, fm, fb := f(a), f(m), f(b)
	whole := simpson(a, b, fa, fm, fb)
	return adaptive(f, a, b, fa, fm, fb, whole, tol, 50)
}

func simpson(a, b, fa, fm, fb float64) float64 {
	return (b - a) / 6 * (fa + 4*fm + fb)
}

func adaptive(f func(float64) float64, a, b, fa, fm, fb, whole, tol float64, depth int) float64 {
	m := 0.5 * (a + b)
	lm := 0.5 * (a + m)
	rm := 0.5 * (m + b)
	flm, frm := f(lm), f(rm)
	left := simpson(a, m, fa, flm, fm)
	right := simpson(m, b, fm, frm, fb)
	if depth <= 0 || math.Abs(left+right-whole) <= 15*tol {
		return left + right + (left+right-whole)/15
	}
	return adaptive(f, a, m, fa, flm, fm, left, tol/2, depth-1) +
		adaptive(f, m, b, fm, frm, fb, right, tol/2, depth-1)
}
