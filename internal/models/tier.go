package models

// Tier is a driver subscription tier.
type Tier string

// Known subscription tiers.
const (
	TierNormal   Tier = "normal"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// ParseTier maps stored values to a Tier, defaulting to normal.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierGold:
		return TierGold
	case TierPlatinum:
		return TierPlatinum
	default:
		return TierNormal
	}
}
