package additive

import "math"

// varianceStride is the fixed sampling stride for the contrast variance
// calculation (spec.md §4.2 "Contrast calculation", §9 Open Questions:
// "source has a heuristic; spec leaves this implementation-defined
// provided it is deterministic" — every 4th sample, decided in DESIGN.md).
const varianceStride = 4

// varMax is the maximum possible variance of a 16-bit-unsigned line: a
// sequence alternating between 0 and 65535 has variance (65535/2)^2.
var varMax = math.Pow(65535.0/2.0, 2)

// Contrast computes the spec.md §4.2 contrast factor for one mono line:
// variance of the line (sampled every 4th element), rescaled to
// sqrt(var)/sqrt(varMax), then contrastMin + (1-contrastMin)*ratio^power.
// Returns contrastMin unchanged for a line with fewer than two sampled
// points (nothing to vary).
func Contrast(line []uint16, contrastMin, power float32) float32 {
	var sum, sumSq float64
	count := 0
	for i := 0; i < len(line); i += varianceStride {
		v := float64(line[i])
		sum += v
		sumSq += v * v
		count++
	}
	if count < 2 {
		return contrastMin
	}
	mean := sum / float64(count)
	variance := sumSq/float64(count) - mean*mean
	if variance < 0 {
		variance = 0
	}
	ratio := math.Sqrt(variance) / math.Sqrt(varMax)
	if ratio > 1 {
		ratio = 1
	}
	c := float64(contrastMin) + (1-float64(contrastMin))*math.Pow(ratio, float64(power))
	return float32(c)
}

// lineContrast dispatches to Contrast or ContrastStereo depending on which
// fields of a Line are populated.
func lineContrast(line Line, contrastMin, power float32) float32 {
	if line.Mono != nil {
		return Contrast(line.Mono, contrastMin, power)
	}
	return ContrastStereo(line.Warm, line.Cold, contrastMin, power)
}

// ContrastStereo computes contrast from the combined warm+cold line when
// the engine is in warm/cold stereo mode, treating the concatenation of
// both channels as one variance sample (an all-uniform image — both
// channels constant — still yields variance 0 and thus contrastMin).
func ContrastStereo(warm, cold []uint16, contrastMin, power float32) float32 {
	combined := make([]uint16, 0, len(warm)+len(cold))
	combined = append(combined, warm...)
	combined = append(combined, cold...)
	return Contrast(combined, contrastMin, power)
}
