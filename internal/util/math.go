package util

import "golang.org/x/exp/constraints"

// Avg calculates the average of all values in the given array
func Avg(values []float64) float64 {
	sum := 0.0
	for i := 0; i < len(values); i++ {
		sum += values[i]
	}
	return sum / (float64(len(values)))
}

// Coerce returns a value that is at least min and at most max
func Coerce[T constraints.Ordered](value T, min T, max T) T {
	if value > max {
		return max
	}
	if value < min {
		return min
	}
	return value
}

func Min[T constraints.Ordered](values []T) T {
	var min T
	for i, value := range values {
		if i == 0 || value < min {
			min = value
		}
	}
	return min
}

func Max[T constraints.Ordered](values []T) T {
	var max T
	for i, value := range values {
		if i == 0 || value > max {
			max = value
		}
	}
	return max
}
