// Package scorer implements the supplier-wide score engine and the
// rayon-relative keep/drop scoring engine.
package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/assortment-cli/internal/config"
)

// DefaultScoreConfig returns the score engine settings used when none are
// configured.
func DefaultScoreConfig() config.ScoreConfig {
	return config.ScoreConfig{
		StrongAxisThreshold: 30.0,
		BonusPerAxis:        10,
	}
}

// ValidateSettings checks that user-adjustable score settings are sane. The
// engine itself trusts its input; callers validate at the boundary.
func ValidateSettings(c config.ScoreConfig) error {
	var errs []string

	if c.StrongAxisThreshold < 0 {
		errs = append(errs, "strong_axis_threshold must be >= 0")
	}
	if c.StrongAxisThreshold > 100 {
		errs = append(errs, fmt.Sprintf("strong_axis_threshold must be <= 100, got %.1f", c.StrongAxisThreshold))
	}
	if c.BonusPerAxis < 0 {
		errs = append(errs, "bonus_per_axis must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: settings validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
