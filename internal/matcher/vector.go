package matcher

import "math"

type entry struct {
	id     int
	weight float64
}

// vector is a sparse term vector sorted by term id. Sums run in id order so
// equal inputs give bit-identical results.
type vector []entry

func (v vector) norm() float64 {
	var sum float64
	for _, e := range v {
		sum += e.weight * e.weight
	}
	return math.Sqrt(sum)
}

func dot(a, b vector) float64 {
	var sum float64
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i].id == b[j].id:
			sum += a[i].weight * b[j].weight
			i++
			j++
		case a[i].id < b[j].id:
			i++
		default:
			j++
		}
	}
	return sum
}

// cosine returns 0 when either vector has zero norm.
func cosine(a, b vector) float64 {
	na, nb := a.norm(), b.norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return dot(a, b) / (na * nb)
}
