package stations

import "strconv"

// SourceRecord is one row of the station price list (list A).
type SourceRecord struct {
	ID      string `json:"id" yaml:"id"`
	RawName string `json:"name" yaml:"name"`

	// Payload carried through to the output untouched.
	Code              string   `json:"code,omitempty" yaml:"code,omitempty"`
	Category          string   `json:"category,omitempty" yaml:"category,omitempty"`
	Region            string   `json:"region,omitempty" yaml:"region,omitempty"`
	PriceRegional     *float64 `json:"price_regional,omitempty" yaml:"price_regional,omitempty"`
	PriceLongDistance *float64 `json:"price_long_distance,omitempty" yaml:"price_long_distance,omitempty"`
	Remark            string   `json:"remark,omitempty" yaml:"remark,omitempty"`
}

// Tag is a single extra column of a target record, kept in file order.
type Tag struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// TargetRecord is one row of the geospatial export (list B).
type TargetRecord struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`

	Lat             *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
	Lon             *float64 `json:"lon,omitempty" yaml:"lon,omitempty"`
	Railway         string   `json:"railway,omitempty" yaml:"railway,omitempty"`
	PublicTransport string   `json:"public_transport,omitempty" yaml:"public_transport,omitempty"`
	Tags            []Tag    `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Tag returns the value of the named extra column.
func (t TargetRecord) Tag(key string) (string, bool) {
	for _, tag := range t.Tags {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// FormatFloat renders an optional number, using the empty string for missing values.
func FormatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
