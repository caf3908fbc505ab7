package loader

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/assortment-cli/internal/model"
)

// Lot is a pre-aggregated supplier lot.
type Lot struct {
	Supplier string                 `json:"supplier" yaml:"supplier"`
	Products []model.ProductMetrics `json:"products" yaml:"products"`
}

// ReadLot reads a lot from a .json, .yaml or .yml file. The document is
// either a Lot or a bare list of products. Missing rayon keys are derived
// from the rayon label.
func ReadLot(path string) (*Lot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "loader: read lot")
	}

	var lot Lot
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = decodeJSONLot(data, &lot)
	case ".yaml", ".yml":
		err = decodeYAMLLot(data, &lot)
	default:
		return nil, eris.Errorf("loader: unsupported lot format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, eris.Wrapf(err, "loader: decode lot %s", path)
	}
	if len(lot.Products) == 0 {
		return nil, eris.Wrapf(model.ErrEmptyCohort, "loader: lot %s has no products", path)
	}

	for i := range lot.Products {
		p := &lot.Products[i]
		if p.RayonKey == "" {
			p.RayonKey = RayonKey("", p.RayonLabel)
		}
	}
	return &lot, nil
}

func decodeJSONLot(data []byte, lot *Lot) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &lot.Products)
	}
	return json.Unmarshal(data, lot)
}

func decodeYAMLLot(data []byte, lot *Lot) error {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		return node.Content[0].Decode(&lot.Products)
	}
	return node.Decode(lot)
}
