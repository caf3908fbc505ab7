// Package loader builds ProductMetrics lots at the input boundary: monthly
// per-store sales are aggregated over the trailing window, and
// pre-aggregated lots are read from yaml or json.
package loader

import (
	"regexp"
	"strings"

	"github.com/sells-group/assortment-cli/internal/model"
)

var (
	nomenclaturePrefix = regexp.MustCompile(`^(\d{4})`)
	labelPrefix        = regexp.MustCompile(`^(\d+)`)
)

// RayonKey derives the cohort key of a product: the first four digits of the
// nomenclature, else the leading number of the rayon label, else the trimmed
// label, else model.DefaultRayonKey.
func RayonKey(nomenclature, rayonLabel string) string {
	if m := nomenclaturePrefix.FindStringSubmatch(strings.TrimSpace(nomenclature)); m != nil {
		return m[1]
	}
	label := strings.TrimSpace(rayonLabel)
	if m := labelPrefix.FindStringSubmatch(label); m != nil {
		return m[1]
	}
	if label != "" {
		return label
	}
	return model.DefaultRayonKey
}
