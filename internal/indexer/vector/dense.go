package vector

import "math"

// Dense is a fixed-dimension embedding. Arithmetic accumulates in float64.
type Dense []float32

// Zero returns the zero vector of dimension dim.
func Zero(dim int) Dense {
	return make(Dense, dim)
}

// Norm returns the L2 norm.
func (d Dense) Norm() float64 {
	var sum float64
	for _, v := range d {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Dot returns the inner product. Vectors of different dimension yield 0.
func (d Dense) Dot(o Dense) float64 {
	if len(d) != len(o) {
		return 0
	}
	var sum float64
	for i := range d {
		sum += float64(d[i]) * float64(o[i])
	}
	return sum
}

// Cosine returns the cosine similarity, or 0 when either norm is 0 or the
// dimensions differ.
func (d Dense) Cosine(o Dense) float64 {
	if len(d) != len(o) || len(d) == 0 {
		return 0
	}
	den := d.Norm() * o.Norm()
	if den == 0 {
		return 0
	}
	return d.Dot(o) / den
}

// Mean returns the arithmetic mean of vecs. Vectors whose dimension differs
// from dim are skipped; with nothing to average the zero vector is returned.
func Mean(dim int, vecs []Dense) Dense {
	sum := make([]float64, dim)
	n := 0
	for _, v := range vecs {
		if len(v) != dim {
			continue
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
		n++
	}
	out := Zero(dim)
	if n == 0 {
		return out
	}
	for i := range sum {
		out[i] = float32(sum[i] / float64(n))
	}
	return out
}
