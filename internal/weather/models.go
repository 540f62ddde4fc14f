package weather

import (
	"encoding/json"
	"time"
)

// LocalDateTimeLayout is the wire form of a naive date-time. The fractional part is
// only rendered when non-zero.
const LocalDateTimeLayout = "2006-01-02T15:04:05.999999999"

// Record is one weather observation tied to a location and a timestamp.
// ID is zero until the record has been stored.
type Record struct {
	ID          int64     `json:"id,omitempty"`
	Temperature float32   `json:"temperature"` // °C
	Wind        float32   `json:"wind"`        // km/h
	Pressure    float32   `json:"pressure"`    // mb
	Humidity    float32   `json:"humidity"`    // %
	Location    string    `json:"location"`
	Timestamp   time.Time `json:"timestamp"` // naive, see Naive
}

// Key returns the deduplication key of the record.
func (r Record) Key() string {
	return r.Location + "@" + r.Timestamp.Format(LocalDateTimeLayout)
}

func (r Record) MarshalJSON() ([]byte, error) {
	type alias Record
	return json.Marshal(struct {
		alias
		Timestamp string `json:"timestamp"`
	}{
		alias:     alias(r),
		Timestamp: r.Timestamp.Format(LocalDateTimeLayout),
	})
}

// Average holds per-field arithmetic means over a set of records. It is never stored
// and has no id, location or timestamp.
type Average struct {
	Temperature float32
	Wind        float32
	Pressure    float32
	Humidity    float32
}

// MarshalJSON renders the average in the record shape with null identity fields.
func (a Average) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          *int64  `json:"id"`
		Temperature float32 `json:"temperature"`
		Wind        float32 `json:"wind"`
		Pressure    float32 `json:"pressure"`
		Humidity    float32 `json:"humidity"`
		Location    *string `json:"location"`
		Timestamp   *string `json:"timestamp"`
	}{
		Temperature: a.Temperature,
		Wind:        a.Wind,
		Pressure:    a.Pressure,
		Humidity:    a.Humidity,
	})
}

// Naive drops the zone of t while keeping its wall clock. All timestamps that reach a
// Store go through it so that comparisons never depend on a location.
func Naive(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// StartOfDay returns d at 00:00:00.000000000.
func StartOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns d at 23:59:59.999999999.
func EndOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}
