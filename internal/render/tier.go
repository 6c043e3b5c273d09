package render

// Tier is an activity band derived from a repository score.
type Tier int

const (
	TierStable Tier = iota
	TierGrowing
	TierActive
	TierVeryActive
)

// Lower bounds of each tier, inclusive.
const (
	veryActiveThreshold = 0.7
	activeThreshold     = 0.4
	growingThreshold    = 0.2
)

// TierFor maps a score to its tier.
func TierFor(score float64) Tier {
	switch {
	case score >= veryActiveThreshold:
		return TierVeryActive
	case score >= activeThreshold:
		return TierActive
	case score >= growingThreshold:
		return TierGrowing
	default:
		return TierStable
	}
}

func (t Tier) String() string {
	switch t {
	case TierVeryActive:
		return "🔥 Very Active"
	case TierActive:
		return "✨ Active"
	case TierGrowing:
		return "📈 Growing"
	default:
		return "💤 Stable"
	}
}
