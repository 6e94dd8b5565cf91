package simulation

import "fmt"

// Config tunes the outcome model. Zero values are meaningful, start from DefaultConfig.
type Config struct {
	// BaseExpectedGoals is the regulation expectation for two equally rated sides.
	BaseExpectedGoals float64
	// RatingSensitivity scales expected goals by exp(k * diff / 10).
	RatingSensitivity float64
	MinExpectedGoals  float64
	MaxExpectedGoals  float64
	MaxGoalsPerSide   int
	// ExtraTimeFactor multiplies regulation expected goals for the 30 extra minutes.
	ExtraTimeFactor   float64
	OwnGoalChance     float64
	PenaltyGoalChance float64

	ShootoutKicks          int
	ShootoutBaseConversion float64
	ShootoutRatingWeight   float64
	ShootoutMinConversion  float64
	ShootoutMaxConversion  float64
}

func DefaultConfig() Config {
	return Config{
		BaseExpectedGoals:      1.35,
		RatingSensitivity:      0.12,
		MinExpectedGoals:       0.25,
		MaxExpectedGoals:       4.0,
		MaxGoalsPerSide:        9,
		ExtraTimeFactor:        0.25,
		OwnGoalChance:          0.03,
		PenaltyGoalChance:      0.08,
		ShootoutKicks:          5,
		ShootoutBaseConversion: 0.75,
		ShootoutRatingWeight:   0.004,
		ShootoutMinConversion:  0.55,
		ShootoutMaxConversion:  0.92,
	}
}

func (c Config) Validate() error {
	if c.BaseExpectedGoals <= 0 {
		return fmt.Errorf("base expected goals must be > 0")
	}
	if c.MinExpectedGoals <= 0 || c.MaxExpectedGoals < c.MinExpectedGoals {
		return fmt.Errorf("expected goals bounds must satisfy 0 < min <= max")
	}
	if c.RatingSensitivity < 0 {
		return fmt.Errorf("rating sensitivity must be >= 0")
	}
	if c.MaxGoalsPerSide < 1 || c.MaxGoalsPerSide > 30 {
		return fmt.Errorf("max goals per side must be between 1 and 30")
	}
	if c.ExtraTimeFactor < 0 {
		return fmt.Errorf("extra time factor must be >= 0")
	}
	if c.OwnGoalChance < 0 || c.PenaltyGoalChance < 0 || c.OwnGoalChance+c.PenaltyGoalChance > 1 {
		return fmt.Errorf("own goal and penalty chances must be within [0,1]")
	}
	if c.ShootoutKicks < 1 {
		return fmt.Errorf("shootout kicks must be >= 1")
	}
	if c.ShootoutMinConversion <= 0 || c.ShootoutMaxConversion >= 1 || c.ShootoutMinConversion > c.ShootoutMaxConversion {
		return fmt.Errorf("shootout conversion bounds must satisfy 0 < min <= max < 1")
	}

	return nil
}
