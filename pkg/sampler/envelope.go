// ABOUTME: Min/max envelope of a sampler for waveform displays
// ABOUTME: Buckets the contents into a fixed number of columns
package sampler

// Envelope splits the contents, oldest first, into columns buckets and
// returns the minimum and maximum of each. Buckets always include zero so
// silence draws as a flat line. Empty samplers give empty slices.
func (s *Sampler) Envelope(columns int) (mins, maxs []float32) {
	if columns <= 0 || s.count == 0 {
		return nil, nil
	}
	columns = min(columns, s.count)
	mins = make([]float32, columns)
	maxs = make([]float32, columns)

	for c := 0; c < columns; c++ {
		from := c * s.count / columns
		to := (c + 1) * s.count / columns
		lo, hi := float32(0), float32(0)
		for i := from; i < to; i++ {
			v := s.At(i)
			lo = min(lo, v)
			hi = max(hi, v)
		}
		mins[c] = lo
		maxs[c] = hi
	}
	return mins, maxs
}
