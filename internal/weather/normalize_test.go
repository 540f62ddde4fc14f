package weather_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

func TestParseCurrent(t *testing.T) {
	raw := []byte(`{
		"location": {"name": "Minsk", "country": "Belarus", "lat": 53.9},
		"current": {
			"last_updated": "2023-12-04 12:30",
			"temp_c": 25.0,
			"wind_kph": 10.0,
			"pressure_mb": 1010.0,
			"humidity": 60,
			"condition": {"text": "Sunny"}
		}
	}`)

	rec, err := weather.ParseCurrent(raw)
	require.NoError(t, err)

	assert.Equal(t, weather.Record{
		Temperature: 25,
		Wind:        10,
		Pressure:    1010,
		Humidity:    60,
		Location:    "Minsk",
		Timestamp:   time.Date(2023, 12, 4, 12, 30, 0, 0, time.UTC),
	}, rec)
}

func TestParseCurrent_Errors(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{
			name:  "invalid json",
			raw:   `{"location":`,
			field: "",
		},
		{
			name:  "missing location",
			raw:   `{"current":{"last_updated":"2023-12-04 12:30","temp_c":1,"wind_kph":1,"pressure_mb":1,"humidity":1}}`,
			field: "location",
		},
		{
			name:  "missing location name",
			raw:   `{"location":{},"current":{"last_updated":"2023-12-04 12:30","temp_c":1,"wind_kph":1,"pressure_mb":1,"humidity":1}}`,
			field: "location.name",
		},
		{
			name:  "missing current",
			raw:   `{"location":{"name":"Minsk"}}`,
			field: "current",
		},
		{
			name:  "missing temperature",
			raw:   `{"location":{"name":"Minsk"},"current":{"last_updated":"2023-12-04 12:30","wind_kph":1,"pressure_mb":1,"humidity":1}}`,
			field: "current.temp_c",
		},
		{
			name:  "missing humidity",
			raw:   `{"location":{"name":"Minsk"},"current":{"last_updated":"2023-12-04 12:30","temp_c":1,"wind_kph":1,"pressure_mb":1}}`,
			field: "current.humidity",
		},
		{
			name:  "missing last_updated",
			raw:   `{"location":{"name":"Minsk"},"current":{"temp_c":1,"wind_kph":1,"pressure_mb":1,"humidity":1}}`,
			field: "current.last_updated",
		},
		{
			name:  "bad last_updated",
			raw:   `{"location":{"name":"Minsk"},"current":{"last_updated":"04.12.2023 12:30","temp_c":1,"wind_kph":1,"pressure_mb":1,"humidity":1}}`,
			field: "current.last_updated",
		},
		{
			name:  "temperature is a string",
			raw:   `{"location":{"name":"Minsk"},"current":{"last_updated":"2023-12-04 12:30","temp_c":"warm","wind_kph":1,"pressure_mb":1,"humidity":1}}`,
			field: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := weather.ParseCurrent([]byte(tt.raw))
			require.Error(t, err)
			assert.Zero(t, rec)

			var pe *weather.ParseError
			require.True(t, errors.As(err, &pe), "got %T", err)
			assert.Equal(t, tt.field, pe.Field)
		})
	}
}
