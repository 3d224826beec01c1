package stats

import "gonum.org/v1/gonum/stat/distuv"

// ZVal returns the two-tailed Z-value for a confidence given in percent.
func ZVal(confidence float64) float64 {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1,
	}
	return dist.Quantile((1 + confidence/100) / 2)
}
