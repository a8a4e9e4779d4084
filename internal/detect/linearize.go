package detect

// NoSplit asks Linearize for a single straight segment.
const NoSplit = -1

// Linearize approximates values, assumed regularly sampled, by straight
// segments between its endpoints. When index is an interior position the
// result is two segments joined at values[index]; otherwise one segment from
// the first to the last sample.
func Linearize(values []float64, index int) []float64 {
	out := make([]float64, len(values))
	linearizeInto(out, values, index)
	return out
}

// linearizeInto writes Linearize(values, index) into dst, which must have
// the same length as values.
func linearizeInto(dst, values []float64, index int) {
	n := len(values)
	if n <= 1 {
		copy(dst, values)
		return
	}

	if index <= 0 || index >= n-1 {
		fillLine(dst, values[0], values[n-1])
		return
	}

	// The joint belongs to the first segment, so it is written last.
	fillLine(dst[index:], values[index], values[n-1])
	fillLine(dst[:index+1], values[0], values[index])
}

// fillLine evaluates the segment from start to end at positions 0..len(dst)-1.
func fillLine(dst []float64, start, end float64) {
	slope := (end - start) / float64(len(dst)-1)
	for k := range dst {
		dst[k] = slope*float64(k) + start
	}
}
