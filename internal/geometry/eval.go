// Package geometry evaluates OpenDRIVE reference-line geometry: pose lookup
// along each plan-view primitive and arc-length integration of parametric
// curves. Everything here is pure; no evaluation mutates shared state.
package geometry

import (
	"errors"
	"math"

	"github.com/odrtools/odrlint/internal/odr"
)

// ErrOutOfRange is returned when an s coordinate falls outside the segment
// it is evaluated against.
var ErrOutOfRange = errors.New("geometry: s outside segment range")

// degenerateEps decides when a spiral's curvature rate or start curvature is
// close enough to zero that the closed form must fall back to a line or arc.
const degenerateEps = 1e-8

// quadTol is the absolute tolerance of arc-length integration, well under
// the length-match thresholds applied on top of it.
const quadTol = 1e-9

// Pose is the planar pose of the reference line at an s coordinate.
type Pose struct {
	X, Y      float64
	Hdg       float64
	Curvature float64
}

// Eval returns the reference-line pose at s, which must lie within
// [seg.S0, seg.S0+seg.Length].
func Eval(seg odr.GeometrySegment, s float64) (Pose, error) {
	u := s - seg.S0
	if u < 0 || u > seg.Length {
		return Pose{}, ErrOutOfRange
	}
	switch c := seg.Curve.(type) {
	case odr.Line:
		return Pose{
			X:   seg.X0 + u*math.Cos(seg.Hdg0),
			Y:   seg.Y0 + u*math.Sin(seg.Hdg0),
			Hdg: seg.Hdg0,
		}, nil
	case odr.Arc:
		return arcPose(seg, c.Curvature, u), nil
	case odr.Spiral:
		return spiralPose(seg, c, u), nil
	case odr.Poly3Curve:
		return poly3Pose(seg, c, u), nil
	case odr.ParamPoly3:
		return paramPoly3Pose(seg, c, u), nil
	}
	return Pose{}, errors.New("geometry: unknown curve variant")
}

func arcPose(seg odr.GeometrySegment, k, u float64) Pose {
	h := seg.Hdg0 + k*u
	return Pose{
		X:         seg.X0 + (math.Sin(h)-math.Sin(seg.Hdg0))/k,
		Y:         seg.Y0 - (math.Cos(h)-math.Cos(seg.Hdg0))/k,
		Hdg:       h,
		Curvature: k,
	}
}

// spiralPose evaluates the Euler spiral in closed form via Fresnel
// integrals. Near-constant curvature degenerates to the line or arc closed
// form so the curvature rate never divides by zero.
func spiralPose(seg odr.GeometrySegment, c odr.Spiral, u float64) Pose {
	k0 := c.CurvStart
	dk := c.CurvEnd - c.CurvStart

	if math.Abs(dk) < degenerateEps {
		if math.Abs(k0) < degenerateEps {
			return Pose{
				X:   seg.X0 + u*math.Cos(seg.Hdg0),
				Y:   seg.Y0 + u*math.Sin(seg.Hdg0),
				Hdg: seg.Hdg0,
			}
		}
		return arcPose(seg, k0, u)
	}

	sigma := dk / seg.Length
	signSigma := 1.0
	if sigma < 0 {
		signSigma = -1.0
	}

	// theta(u) = theta0 + k0 u + sigma u²/2, rewritten around the constant
	// alpha so the position integral becomes a Fresnel integral pair.
	alpha := seg.Hdg0 - 0.5*k0*k0/sigma
	betaInv := math.Sqrt(math.Abs(sigma)) / math.Sqrt(math.Pi)
	t0 := k0 * betaInv / sigma
	ts := (k0 + sigma*u) * betaInv / sigma

	sinT0, cosT0 := Fresnel(t0)
	sinTs, cosTs := Fresnel(ts)
	dSin := sinTs - sinT0
	dCos := cosTs - cosT0

	cosA, sinA := math.Cos(alpha), math.Sin(alpha)
	return Pose{
		X:         seg.X0 + (cosA*dCos-sinA*signSigma*dSin)/betaInv,
		Y:         seg.Y0 + (sinA*dCos+cosA*signSigma*dSin)/betaInv,
		Hdg:       seg.Hdg0 + k0*u + 0.5*sigma*u*u,
		Curvature: k0 + sigma*u,
	}
}

func poly3Pose(seg odr.GeometrySegment, c odr.Poly3Curve, u float64) Pose {
	v := c.V.Eval(u)
	dv := c.V.Deriv()
	d1 := dv.Eval(u)
	d2 := dv.Deriv().Eval(u)

	sinH, cosH := math.Sincos(seg.Hdg0)
	return Pose{
		X:         seg.X0 + u*cosH - v*sinH,
		Y:         seg.Y0 + u*sinH + v*cosH,
		Hdg:       seg.Hdg0 + math.Atan(d1),
		Curvature: d2 / math.Pow(1+d1*d1, 1.5),
	}
}

func paramPoly3Pose(seg odr.GeometrySegment, c odr.ParamPoly3, u float64) Pose {
	p := u
	if c.PRange == odr.PRangeNormalized {
		p = u / seg.Length
	}
	lu := c.U.Eval(p)
	lv := c.V.Eval(p)
	du, dv := c.U.Deriv(), c.V.Deriv()
	du1, dv1 := du.Eval(p), dv.Eval(p)
	du2, dv2 := du.Deriv().Eval(p), dv.Deriv().Eval(p)

	sinH, cosH := math.Sincos(seg.Hdg0)
	speedSq := du1*du1 + dv1*dv1
	var curv float64
	if speedSq > 0 {
		curv = (du1*dv2 - dv1*du2) / math.Pow(speedSq, 1.5)
	}
	return Pose{
		X:         seg.X0 + lu*cosH - lv*sinH,
		Y:         seg.Y0 + lu*sinH + lv*cosH,
		Hdg:       seg.Hdg0 + math.Atan2(dv1, du1),
		Curvature: curv,
	}
}

// Length returns the arc length of the segment's curve. Line, arc and
// spiral are parameterized by arc length, so their declared length is
// exact; the polynomial primitives integrate the local speed.
func Length(seg odr.GeometrySegment) float64 {
	switch c := seg.Curve.(type) {
	case odr.Line, odr.Arc, odr.Spiral:
		return seg.Length
	case odr.Poly3Curve:
		dv := c.V.Deriv()
		return integrate(func(u float64) float64 {
			d := dv.Eval(u)
			return math.Sqrt(1 + d*d)
		}, 0, seg.Length, quadTol)
	case odr.ParamPoly3:
		to := seg.Length
		if c.PRange == odr.PRangeNormalized {
			to = 1
		}
		return ParamCurveLength(c, 0, to)
	}
	return seg.Length
}

// ParamCurveLength integrates √(u′²+v′²) over the parameter interval
// [from, to] of a parametric cubic pair.
func ParamCurveLength(c odr.ParamPoly3, from, to float64) float64 {
	du, dv := c.U.Deriv(), c.V.Deriv()
	return integrate(func(p float64) float64 {
		a, b := du.Eval(p), dv.Eval(p)
		return math.Sqrt(a*a + b*b)
	}, from, to, quadTol)
}
