package listing

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	FeatureBedrooms  = "bedrooms"
	FeatureBathrooms = "bathrooms"
	FeatureCarSpaces = "carSpaces"
	FeatureLandSize  = "landSize"
)

// Feature is one bedBathCarLand entry. Values are always strings.
type Feature struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

var featureLabels = map[string]string{
	FeatureBedrooms:  "Bedrooms",
	FeatureBathrooms: "Bathrooms",
	FeatureCarSpaces: "Car Spaces",
	FeatureLandSize:  "Land Size",
}

// FeatureOrder is the order synthesised feature lists use.
var FeatureOrder = []string{FeatureBedrooms, FeatureBathrooms, FeatureCarSpaces, FeatureLandSize}

func FeatureLabel(key string) string {
	if l, ok := featureLabels[key]; ok {
		return l
	}
	return key
}

// IsAbsent reports whether a feature value carries no information:
// empty, "N/A", or any numeric zero.
func IsAbsent(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "n/a") || strings.EqualFold(v, "na") {
		return true
	}
	if d, err := decimal.NewFromString(v); err == nil {
		return d.IsZero()
	}
	return false
}

// DisplayFeatures drops absent values; the result is what gets rendered.
func DisplayFeatures(fs []Feature) []Feature {
	out := make([]Feature, 0, len(fs))
	for _, f := range fs {
		if IsAbsent(f.Value) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// FeatureValue returns the value for key, or "".
func (l Listing) FeatureValue(key string) string {
	for _, f := range l.BedBathCarLand {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}

// LandSize parses the land size feature, tolerating unit suffixes like "650m²".
func (l Listing) LandSize() (decimal.Decimal, bool) {
	v := strings.TrimSpace(l.FeatureValue(FeatureLandSize))
	if IsAbsent(v) {
		return decimal.Zero, false
	}
	end := 0
	for end < len(v) && (v[end] == '.' || v[end] == ',' || (v[end] >= '0' && v[end] <= '9')) {
		end++
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v[:end], ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
