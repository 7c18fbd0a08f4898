package model

import "time"

// Moving modes. In free mode every outbound move stamps the asset's
// movement type from the sighting's legal-moving flag; in license mode the
// movement type is left alone.
const (
	MovingModeFree    = "free"
	MovingModeLicense = "license"
)

// SystemSettings is the operator-managed singleton read once per drain
// cycle, so flag or mode changes take effect on the next cycle without a
// restart.
type SystemSettings struct {
	FlagMovingIn  int    `json:"flag_moving_in"`
	FlagMovingOut int    `json:"flag_moving_out"`
	MovingMode    string `json:"moving_mode"`
}

// DefaultDrainPeriod is used when the interval row is absent or unreadable.
const DefaultDrainPeriod = 5000 * time.Millisecond

// IntervalConfig holds the drain period, stored in the database so
// operators can retune the cadence at runtime.
type IntervalConfig struct {
	PeriodMS int64 `json:"period_ms"`
}

// Period returns the configured period as a duration, falling back to the
// default for non-positive values.
func (c IntervalConfig) Period() time.Duration {
	if c.PeriodMS <= 0 {
		return DefaultDrainPeriod
	}
	return time.Duration(c.PeriodMS) * time.Millisecond
}
