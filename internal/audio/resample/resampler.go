// ABOUTME: Linear resampler used to normalize decoded clips to the engine rate
// ABOUTME: Whole-clip conversion; streaming state is not needed for short sounds
package resample

// Convert resamples interleaved samples from inputRate to outputRate using
// linear interpolation. Clips are decoded whole before mixing, so a one-shot
// conversion is enough.
func Convert(input []int32, inputRate, outputRate, channels int) []int32 {
	if inputRate == outputRate || len(input) == 0 {
		return input
	}

	inputFrames := len(input) / channels
	if inputFrames < 2 {
		return input
	}

	ratio := float64(inputRate) / float64(outputRate)
	outputFrames := int(float64(inputFrames) / ratio)
	output := make([]int32, outputFrames*channels)

	pos := 0.0
	for outIdx := 0; outIdx < outputFrames; outIdx++ {
		inputIdx := int(pos)
		if inputIdx >= inputFrames-1 {
			inputIdx = inputFrames - 2
		}
		frac := pos - float64(inputIdx)

		for ch := 0; ch < channels; ch++ {
			s1 := input[inputIdx*channels+ch]
			s2 := input[(inputIdx+1)*channels+ch]
			interpolated := float64(s1)*(1.0-frac) + float64(s2)*frac
			output[outIdx*channels+ch] = int32(interpolated)
		}

		pos += ratio
	}

	return output
}
