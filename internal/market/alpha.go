package market

// Alpha maps a quote's technicals to a 0-100 quantitative signal. The raw
// signal combines a volume-surge component with an RSI band penalty, each
// in [-1, 1], then rescales. Returns ok=false when the quote lacks the
// history to say anything.
func Alpha(quote *Quote) (float64, bool) {
	if quote == nil || quote.AvgVolume <= 0 {
		return 0, false
	}

	surge := volumeSignal(quote.Volume / quote.AvgVolume)
	momentum := rsiSignal(quote.RSI)

	// Volume carries most of the weight: a confirmed surge is the
	// strongest short-horizon tell this model has.
	raw := 0.7*surge + 0.3*momentum
	if raw > 1 {
		raw = 1
	} else if raw < -1 {
		raw = -1
	}

	return (raw + 1) * 50, true
}

// volumeSignal maps the volume/average ratio into [-1, 1]. Flat volume is
// neutral, a 3x surge saturates positive, a dried-up tape leans negative.
func volumeSignal(ratio float64) float64 {
	switch {
	case ratio >= 3:
		return 1
	case ratio >= 1:
		return (ratio - 1) / 2
	case ratio <= 0.3:
		return -0.5
	default:
		return (ratio - 1) * 0.7
	}
}

// rsiSignal maps RSI into [-1, 1]: overbought argues against chasing,
// oversold leaves room, the middle band is neutral.
func rsiSignal(rsi float64) float64 {
	switch {
	case rsi <= 0:
		return 0 // insufficient history
	case rsi >= 80:
		return -1
	case rsi >= 70:
		return -(rsi - 70) / 10
	case rsi <= 30:
		return (30 - rsi) / 30
	default:
		return 0
	}
}
