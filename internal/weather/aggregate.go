package weather

// Aggregate averages the numeric fields of records independently. An empty input
// yields a zero Average.
func Aggregate(records []Record) Average {
	if len(records) == 0 {
		return Average{}
	}

	var (
		sumTemp     float64
		sumWind     float64
		sumPressure float64
		sumHumidity float64
	)

	for _, r := range records {
		sumTemp += float64(r.Temperature)
		sumWind += float64(r.Wind)
		sumPressure += float64(r.Pressure)
		sumHumidity += float64(r.Humidity)
	}

	n := float64(len(records))

	return Average{
		Temperature: float32(sumTemp / n),
		Wind:        float32(sumWind / n),
		Pressure:    float32(sumPressure / n),
		Humidity:    float32(sumHumidity / n),
	}
}
