package geometry

import "math"

// Fresnel returns the Fresnel integrals S(x) and C(x) with the normalized
// argument convention: S(x) = ∫₀ˣ sin(π t²/2) dt, C(x) = ∫₀ˣ cos(π t²/2) dt.
// Small arguments use the power series, large arguments the complex
// continued fraction of the related error function, evaluated with the
// modified Lentz method. Accuracy is well below the geometric tolerances
// applied by callers.
func Fresnel(x float64) (s, c float64) {
	const (
		eps         = 1e-15
		fpmin       = 1e-300
		maxit       = 200
		seriesLimit = 1.5
	)
	ax := math.Abs(x)
	switch {
	case ax < math.Sqrt(fpmin):
		s, c = 0, ax
	case ax <= seriesLimit:
		var sum, sums float64
		sumc := ax
		sign := 1.0
		fact := 0.5 * math.Pi * ax * ax
		odd := true
		term := ax
		n := 3.0
		for k := 1; k <= maxit; k++ {
			term *= fact / float64(k)
			sum += sign * term / n
			test := math.Abs(sum) * eps
			if odd {
				sign = -sign
				sums = sum
				sum = sumc
			} else {
				sumc = sum
				sum = sums
			}
			n += 2
			odd = !odd
			if math.Abs(term) < test {
				break
			}
		}
		s, c = sums, sumc
	default:
		pix2 := math.Pi * ax * ax
		b := complex(1, -pix2)
		cc := complex(1/fpmin, 0)
		d := 1 / b
		h := d
		n := -1.0
		for k := 2; k <= maxit; k++ {
			n += 2
			a := -n * (n + 1)
			b += 4
			d = 1 / (complex(a, 0)*d + b)
			cc = b + complex(a, 0)/cc
			del := cc * d
			h *= del
			if math.Abs(real(del)-1)+math.Abs(imag(del)) < eps {
				break
			}
		}
		h *= complex(ax, -ax)
		phase := complex(math.Cos(0.5*pix2), math.Sin(0.5*pix2))
		cs := complex(0.5, 0.5) * (1 - phase*h)
		s, c = imag(cs), real(cs)
	}
	if x < 0 {
		s, c = -s, -c
	}
	return s, c
}
