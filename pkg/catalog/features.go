package catalog

import (
	_ "embed"
	"encoding/json"
)

//go:embed it_features.json
var defaultFeaturesJSON []byte

// DefaultFeatures parses the bundled shape->feature overlay, the Go
// equivalent of the source's it_features.json sibling file.
func DefaultFeatures() (map[string]map[string]float64, error) {
	var out map[string]map[string]float64
	if err := json.Unmarshal(defaultFeaturesJSON, &out); err != nil {
		return nil, err
	}
	return out, nil
}
