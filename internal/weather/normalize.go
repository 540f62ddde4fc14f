package weather

import (
	"encoding/json"
	"errors"
	"time"
)

// LastUpdatedLayout is the provider's format for current.last_updated.
const LastUpdatedLayout = "2006-01-02 15:04"

// currentPayload mirrors the subset of the WeatherAPI "current" response we read.
// Pointers distinguish a missing field from a zero value.
type currentPayload struct {
	Location *struct {
		Name *string `json:"name"`
	} `json:"location"`
	Current *struct {
		TempC       *float32 `json:"temp_c"`
		WindKph     *float32 `json:"wind_kph"`
		PressureMb  *float32 `json:"pressure_mb"`
		Humidity    *float32 `json:"humidity"`
		LastUpdated *string  `json:"last_updated"`
	} `json:"current"`
}

var errMissing = errors.New("required field is missing")

// ParseCurrent turns a WeatherAPI current-conditions payload into a Record without an id.
// Unknown fields are ignored. Any failure is a *ParseError and no record is returned.
func ParseCurrent(raw []byte) (Record, error) {
	var p currentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Record{}, &ParseError{Err: err}
	}

	if p.Location == nil {
		return Record{}, &ParseError{Field: "location", Err: errMissing}
	}
	if p.Location.Name == nil {
		return Record{}, &ParseError{Field: "location.name", Err: errMissing}
	}
	c := p.Current
	if c == nil {
		return Record{}, &ParseError{Field: "current", Err: errMissing}
	}

	required := []struct {
		field string
		value *float32
	}{
		{"current.temp_c", c.TempC},
		{"current.wind_kph", c.WindKph},
		{"current.pressure_mb", c.PressureMb},
		{"current.humidity", c.Humidity},
	}
	for _, f := range required {
		if f.value == nil {
			return Record{}, &ParseError{Field: f.field, Err: errMissing}
		}
	}
	if c.LastUpdated == nil {
		return Record{}, &ParseError{Field: "current.last_updated", Err: errMissing}
	}

	ts, err := time.Parse(LastUpdatedLayout, *c.LastUpdated)
	if err != nil {
		return Record{}, &ParseError{Field: "current.last_updated", Err: err}
	}

	return Record{
		Temperature: *c.TempC,
		Wind:        *c.WindKph,
		Pressure:    *c.PressureMb,
		Humidity:    *c.Humidity,
		Location:    *p.Location.Name,
		Timestamp:   Naive(ts),
	}, nil
}
