package service

import "math/rand/v2"

// Estimator derives the estimated GDP from population and the USD exchange rate.
type Estimator struct {
	// Multiplier returns the per-capita factor, drawn from [1000, 2000) by default.
	Multiplier func() float64
}

func NewEstimator() *Estimator {
	return &Estimator{Multiplier: randomMultiplier}
}

func randomMultiplier() float64 {
	return 1000 + rand.Float64()*1000
}

// EstimateGDP returns population * multiplier / rate, or 0 for a non-positive rate.
func (e *Estimator) EstimateGDP(population, rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	m := e.Multiplier
	if m == nil {
		m = randomMultiplier
	}
	return population * m() / rate
}
