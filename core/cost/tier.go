package cost

// ServiceTier selects a processing tier on backends that sell them.
type ServiceTier string

const (
	TierDefault  ServiceTier = ""
	TierAuto     ServiceTier = "auto"
	TierFlex     ServiceTier = "flex"
	TierPriority ServiceTier = "priority"
)

// Multiplier returns the price factor applied on top of list prices:
// flex processing is billed at half price, priority at double.
func (t ServiceTier) Multiplier() float64 {
	switch t {
	case TierFlex:
		return 0.5
	case TierPriority:
		return 2.0
	default:
		return 1.0
	}
}
