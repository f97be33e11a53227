package billing

import (
	"math"

	"parktrack/internal/models"
)

// Default pricing in effect when no rate table override is supplied.
const (
	DefaultNormalPerHour   = 100.0
	DefaultGoldPerHour     = 80.0
	DefaultPlatinumPerHour = 60.0

	// Gold and platinum subscribers get the first hour free.
	FreeHoursGold     = 1.0
	FreeHoursPlatinum = 1.0
)

// ComputeCharge prices a completed session. durationMinutes is the final,
// authoritative duration; rates may be nil, in which case compiled-in defaults
// apply. The result is deterministic: an auditor can re-derive it from the
// duration, the tier and the rate table that was in effect at close time.
func ComputeCharge(durationMinutes int, tier models.Tier, rates *models.RateTable) models.Charge {
	if durationMinutes < 0 {
		durationMinutes = 0
	}

	rate := rateFor(tier, rates)
	freeHours := freeHoursFor(tier)
	hours := float64(durationMinutes) / 60.0

	charge := models.Charge{
		Tier:             tier,
		DurationMinutes:  durationMinutes,
		RatePerHour:      rate,
		FreeHoursApplied: freeHours > 0,
	}

	var chargeable float64
	if freeHours > 0 {
		// Only fully completed hours beyond the free allowance are billed.
		if hours <= freeHours {
			chargeable = 0
		} else {
			chargeable = math.Floor(hours - freeHours)
		}
	} else {
		// Minimum billing unit is one hour, rounded up.
		chargeable = math.Ceil(hours)
		if chargeable < 1 {
			chargeable = 1
		}
	}

	amount := rate * chargeable
	if rates != nil && rates.DailyCap > 0 && amount > rates.DailyCap {
		amount = rates.DailyCap
	}
	if amount < 0 {
		amount = 0
	}

	charge.ChargeableHours = int(chargeable)
	charge.Amount = amount
	return charge
}

func rateFor(tier models.Tier, rates *models.RateTable) float64 {
	var override float64
	var fallback float64
	switch tier {
	case models.TierGold:
		fallback = DefaultGoldPerHour
		if rates != nil {
			override = rates.GoldPerHour
		}
	case models.TierPlatinum:
		fallback = DefaultPlatinumPerHour
		if rates != nil {
			override = rates.PlatinumPerHour
		}
	default:
		fallback = DefaultNormalPerHour
		if rates != nil {
			override = rates.NormalPerHour
		}
	}
	if override > 0 {
		return override
	}
	return fallback
}

func freeHoursFor(tier models.Tier) float64 {
	switch tier {
	case models.TierGold:
		return FreeHoursGold
	case models.TierPlatinum:
		return FreeHoursPlatinum
	default:
		return 0
	}
}
