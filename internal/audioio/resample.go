package audioio

// Resample converts samples from srcRate to dstRate using linear
// interpolation. Polyphase resampling is preferred for quality but linear
// interpolation is an acceptable fallback, and it is what this port uses
// throughout, matching its simplicity elsewhere in the codec.
func Resample(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(dstRate) / float64(srcRate)
	outLen := int(float64(len(samples)) * ratio)
	if outLen <= 0 {
		return nil
	}

	out := make([]float32, outLen)
	for i := range out {
		srcPos := float64(i) / ratio
		idx := int(srcPos)
		frac := float32(srcPos - float64(idx))

		if idx+1 < len(samples) {
			out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
		} else {
			out[i] = samples[len(samples)-1]
		}
	}
	return out
}
