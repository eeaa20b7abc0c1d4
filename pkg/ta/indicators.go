// Package ta provides the technical analysis helpers used by the exit signal
// detector and the fallback scorer.
package ta

// RSI calculates the Relative Strength Index over the given period using a
// simple average of gains and losses. Returns 50 (neutral) when there is not
// enough data, 100 when there are no losses in the window.
func RSI(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50.0
	}

	var avgGain, avgLoss float64
	for i := len(closes) - period; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss += -delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// EMA calculates the exponential moving average with the given span and
// returns its final value. The first close seeds the average.
func EMA(closes []float64, span int) float64 {
	if len(closes) == 0 {
		return 0
	}
	multiplier := 2.0 / float64(span+1)
	ema := closes[0]
	for _, c := range closes[1:] {
		ema = (c-ema)*multiplier + ema
	}
	return ema
}

// SMA calculates the simple moving average of the last period values.
// Falls back to the mean of all values when fewer are available.
func SMA(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	if period > len(values) {
		period = len(values)
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period)
}

// Mean returns the arithmetic mean of values, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// HasLowerHighs reports whether the series shows three consecutive lower
// rolling 3-bar highs, a weakening-momentum pattern.
func HasLowerHighs(closes []float64) bool {
	if len(closes) < 5 {
		return false
	}

	var highs []float64
	for i := 2; i < len(closes); i++ {
		high := closes[i]
		if closes[i-1] > high {
			high = closes[i-1]
		}
		if closes[i-2] > high {
			high = closes[i-2]
		}
		highs = append(highs, high)
	}

	n := len(highs)
	if n < 3 {
		return false
	}
	return highs[n-1] < highs[n-2] && highs[n-2] < highs[n-3]
}

// TotalReturn returns the fractional return over the last n periods,
// 0 when there is not enough data.
func TotalReturn(closes []float64, n int) float64 {
	if len(closes) < n+1 {
		return 0
	}
	base := closes[len(closes)-1-n]
	if base == 0 {
		return 0
	}
	return closes[len(closes)-1]/base - 1
}
