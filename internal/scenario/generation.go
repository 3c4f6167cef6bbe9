package scenario

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Noise sampling for starting wealth. Neighbouring pops get similar money,
// so spread reads as gentle class gradients instead of white noise.
const (
	wealthOctaves     = 3
	wealthFrequency   = 0.15
	wealthPersistence = 0.5
)

// startingWealth returns the money of each pop in the group.
func startingWealth(c ConsumerGroup, seed int64) []int {
	out := make([]int, c.Count)
	if c.WealthSpread == 0 {
		for i := range out {
			out[i] = c.Money
		}
		return out
	}

	noise := opensimplex.NewNormalized(seed)
	for i := range out {
		n := octaveNoise(noise, float64(i), 0, wealthOctaves, wealthFrequency, wealthPersistence)
		scale := 1 + c.WealthSpread*(2*n-1)
		out[i] = max(0, int(math.Round(float64(c.Money)*scale)))
	}
	return out
}

// octaveNoise generates fractal noise in [0, 1) by layering frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
