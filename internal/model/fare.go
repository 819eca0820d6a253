package model

// Per-kilometre fares in cents.  Rates are flat per carriage class; the
// fare of a ticket is the covered distance times the rate, with a floor of
// one leg's minimum so zero-distance data never prices a ticket at zero.
const (
	fareSecondPerKM   = 10
	fareFirstPerKM    = 18
	fareBusinessPerKM = 30

	fareMinimumCents = 100
)

// FareCents prices a journey of the given cumulative distance in a
// carriage of the given class.
func FareCents(cc CarriageClass, distanceKM uint32) uint32 {
	var rate uint32
	switch cc {
	case CarriageSecond:
		rate = fareSecondPerKM
	case CarriageFirst:
		rate = fareFirstPerKM
	case CarriageBusiness:
		rate = fareBusinessPerKM
	default:
		rate = fareSecondPerKM
	}
	price := distanceKM * rate
	if price < fareMinimumCents {
		price = fareMinimumCents
	}
	return price
}
