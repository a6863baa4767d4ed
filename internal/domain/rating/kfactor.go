package rating

import "math"

// DecayCurve selects how the new-player K bonus fades with experience.
// Adding a new curve shape means adding a tag here plus one case in
// EffectiveK; switching between existing shapes is a data change on the
// stored configuration.
type DecayCurve string

const (
	DecayLinear      DecayCurve = "linear"
	DecayExponential DecayCurve = "exponential"
)

// Config carries the rating-formula parameters of one configuration
// version (or of a season that embeds them). The dynamic triple is
// optional; when any of it is missing the static KFactor applies.
type Config struct {
	KFactor              float64
	BaseKFactor          *float64
	NewPlayerKBonus      *float64
	NewPlayerBonusPeriod *int
	DecayCurve           DecayCurve
}

// Dynamic reports whether the config carries a usable new-player bonus.
func (c Config) Dynamic() bool {
	return c.BaseKFactor != nil &&
		c.NewPlayerKBonus != nil &&
		c.NewPlayerBonusPeriod != nil &&
		*c.NewPlayerBonusPeriod > 0
}

// EffectiveK resolves the K-factor for a player who has played
// gamesPlayed games in the season so far, counted at the moment the
// game is applied. The bonus decays to zero once the player reaches
// the bonus period and never goes negative.
func EffectiveK(c Config, gamesPlayed int) float64 {
	if !c.Dynamic() {
		return c.KFactor
	}

	base := *c.BaseKFactor
	bonus := *c.NewPlayerKBonus
	period := *c.NewPlayerBonusPeriod

	switch c.DecayCurve {
	case DecayExponential:
		return base + bonus*math.Exp(-float64(gamesPlayed)/float64(period))
	default:
		remaining := float64(period-gamesPlayed) / float64(period)
		if remaining < 0 {
			remaining = 0
		}
		return base + bonus*remaining
	}
}
