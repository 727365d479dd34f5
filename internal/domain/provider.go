package domain

import (
	"context"
	"fmt"
)

// UnavailableForecast stands in for the provider answer when the call fails.
// It matches no reading, so it normalizes to an all-default snapshot.
const UnavailableForecast = "Weather data unavailable"

// ForecastProvider asks a generative model for a weather forecast and returns
// its answer verbatim.
type ForecastProvider interface {
	FetchForecast(ctx context.Context, location, date string) (string, error)
}

// ForecastPrompt builds the request sent to the provider. The requested line
// format mirrors the labels the normalizer looks for.
func ForecastPrompt(location, date string) string {
	return fmt.Sprintf(`Provide a weather forecast for %s on %s with farming insights.
Start the answer with these lines, using numbers only where shown:
Temperature: <min>-<max>°C
Humidity: <value>%%
Wind: <value> km/h
Rainfall: <value> mm
UV Index: <value>
Soil Moisture: <value>%%
Then add any extreme weather warnings and advice for farmers in plain text.`, location, date)
}
