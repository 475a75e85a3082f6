package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/awaistahir/solarhub/internal/engine"
)

const (
	openMeteoAPIBase = "https://api.open-meteo.com/v1/forecast"

	// substituted for null entries in the hourly series
	fallbackTempC = 20.0
)

// ErrMissingCurrent is returned when the response carries no current conditions
var ErrMissingCurrent = errors.New("weather response has no current conditions")

// OpenMeteoClient fetches hourly temperature and irradiance from the Open-Meteo API
type OpenMeteoClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewOpenMeteoClient creates a new Open-Meteo client. An empty baseURL uses
// the public API endpoint.
func NewOpenMeteoClient(baseURL string, timeout time.Duration) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = openMeteoAPIBase
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenMeteoClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// openMeteoResponse represents the API response. Hourly values are pointers
// because the API reports missing readings as null.
type openMeteoResponse struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	CurrentWeather *struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
	} `json:"current_weather"`
	Hourly struct {
		Time               []string   `json:"time"`
		Temperature2m      []*float64 `json:"temperature_2m"`
		ShortwaveRadiation []*float64 `json:"shortwave_radiation"`
		DirectRadiation    []*float64 `json:"direct_radiation"`
		DiffuseRadiation   []*float64 `json:"diffuse_radiation"`
	} `json:"hourly"`
}

// HourlySolar fetches today's current conditions plus the first 24 hours of
// temperature and irradiance for a location
func (c *OpenMeteoClient) HourlySolar(ctx context.Context, lat, lon float64) (*engine.SolarWeather, error) {
	params := url.Values{}
	params.Add("latitude", fmt.Sprintf("%.4f", lat))
	params.Add("longitude", fmt.Sprintf("%.4f", lon))
	params.Add("current_weather", "true")
	params.Add("hourly", "temperature_2m,shortwave_radiation,direct_radiation,diffuse_radiation")
	params.Add("forecast_days", "1")
	params.Add("timezone", "auto")

	fullURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var meteoResp openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&meteoResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return meteoResp.toSolarWeather()
}

func (r *openMeteoResponse) toSolarWeather() (*engine.SolarWeather, error) {
	if r.CurrentWeather == nil {
		return nil, ErrMissingCurrent
	}

	// Today only; the temperature series decides how many hours we have
	n := min(engine.HoursPerDay, len(r.Hourly.Temperature2m))

	w := &engine.SolarWeather{
		Current: engine.CurrentWeather{
			TempC:        r.CurrentWeather.Temperature,
			WindSpeedKmh: r.CurrentWeather.WindSpeed,
		},
		Temperatures: make([]float64, 0, n),
		Irradiance:   make([]engine.IrradianceSample, 0, n),
	}

	for i := 0; i < n; i++ {
		w.Temperatures = append(w.Temperatures, valueAt(r.Hourly.Temperature2m, i, fallbackTempC))
		w.Irradiance = append(w.Irradiance, engine.IrradianceSample{
			Hour: i,
			GHI:  valueAt(r.Hourly.ShortwaveRadiation, i, 0),
			DNI:  valueAt(r.Hourly.DirectRadiation, i, 0),
			DHI:  valueAt(r.Hourly.DiffuseRadiation, i, 0),
		})
	}

	return w, nil
}

// valueAt returns series[i], or def when the entry is null or missing
func valueAt(series []*float64, i int, def float64) float64 {
	if i >= len(series) || series[i] == nil {
		return def
	}
	return *series[i]
}
