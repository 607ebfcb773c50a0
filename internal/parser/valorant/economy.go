package valorant

import "github.com/scoutbase/scout/internal/domain/round"

// EconomyThresholds bound the loadout-value bands used to classify a team's
// spend for one round. Values are credits spent at round start and should be
// tuned per game patch.
type EconomyThresholds struct {
	Eco   int
	Force int
	Full  int
}

func DefaultEconomyThresholds() EconomyThresholds {
	return EconomyThresholds{
		Eco:   5000,
		Force: 10000,
		Full:  20000,
	}
}

func (t EconomyThresholds) normalize() EconomyThresholds {
	defaults := DefaultEconomyThresholds()
	if t.Eco <= 0 {
		t.Eco = defaults.Eco
	}
	if t.Force <= t.Eco {
		t.Force = maxInt(defaults.Force, t.Eco+1)
	}
	if t.Full <= t.Force {
		t.Full = maxInt(defaults.Full, t.Force+1)
	}
	return t
}

// Classify buckets a round-start loadout value. The full boundary is
// inclusive: spending exactly Full is a full buy.
func (t EconomyThresholds) Classify(spend int) string {
	switch {
	case spend < t.Eco:
		return round.EconEco
	case spend < t.Force:
		return round.EconForce
	case spend < t.Full:
		return round.EconSemi
	default:
		return round.EconFull
	}
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
