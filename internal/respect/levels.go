package respect

import "github.com/coffeeaccount/respect-service/internal/domain"

// Tier thresholds, ascending. Ébano is terminal.
const (
	prataThreshold   = 200
	ouroThreshold    = 500
	platinaThreshold = 1000
	ebanoThreshold   = 2000
)

// LevelFor classifies a balance into its named tier.
func LevelFor(respect int) domain.Level {
	switch {
	case respect >= ebanoThreshold:
		return domain.LevelEbano
	case respect >= platinaThreshold:
		return domain.LevelPlatina
	case respect >= ouroThreshold:
		return domain.LevelOuro
	case respect >= prataThreshold:
		return domain.LevelPrata
	default:
		return domain.LevelBronze
	}
}

// QualityWeight scales reaction awards by the reactor's own standing: approval
// from a high-reputation peer is worth more than from a fresh account.
func QualityWeight(reactorRespect int) float64 {
	switch {
	case reactorRespect >= ouroThreshold:
		return 1.25
	case reactorRespect >= prataThreshold:
		return 1.10
	default:
		return 1.0
	}
}
