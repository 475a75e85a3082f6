package weather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hourlySeries renders n JSON numbers, replacing the listed indexes with null
func hourlySeries(n int, value func(i int) float64, nulls ...int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%g", value(i))
	}
	for _, i := range nulls {
		parts[i] = "null"
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestHourlySolar(t *testing.T) {
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}

		// 48 hours to check truncation to today
		fmt.Fprintf(w, `{
			"latitude": 35.0,
			"longitude": 139.7,
			"current_weather": {"temperature": 18.5, "windspeed": 12.3},
			"hourly": {
				"temperature_2m": %s,
				"shortwave_radiation": %s,
				"direct_radiation": %s,
				"diffuse_radiation": %s
			}
		}`,
			hourlySeries(48, func(i int) float64 { return float64(10 + i) }, 3),
			hourlySeries(48, func(i int) float64 { return float64(100 * i) }, 12),
			hourlySeries(48, func(i int) float64 { return float64(50 * i) }),
			hourlySeries(48, func(i int) float64 { return float64(i) }, 0, 47),
		)
	}))
	defer srv.Close()

	client := NewOpenMeteoClient(srv.URL, time.Second)
	w, err := client.HourlySolar(context.Background(), 35, 139.7)
	require.NoError(t, err)

	assert.Equal(t, "35.0000", gotQuery["latitude"])
	assert.Equal(t, "139.7000", gotQuery["longitude"])
	assert.Equal(t, "true", gotQuery["current_weather"])
	assert.Equal(t, "temperature_2m,shortwave_radiation,direct_radiation,diffuse_radiation", gotQuery["hourly"])
	assert.Equal(t, "1", gotQuery["forecast_days"])
	assert.Equal(t, "auto", gotQuery["timezone"])

	assert.Equal(t, 18.5, w.Current.TempC)
	assert.Equal(t, 12.3, w.Current.WindSpeedKmh)

	require.Len(t, w.Temperatures, 24)
	require.Len(t, w.Irradiance, 24)

	assert.Equal(t, 10.0, w.Temperatures[0])
	assert.Equal(t, 20.0, w.Temperatures[3], "null temperature falls back to 20°C")
	assert.Equal(t, 33.0, w.Temperatures[23])

	assert.Equal(t, 1100.0, w.Irradiance[11].GHI)
	assert.Zero(t, w.Irradiance[12].GHI, "null irradiance falls back to 0")
	assert.Equal(t, 600.0, w.Irradiance[12].DNI)
	assert.Zero(t, w.Irradiance[0].DHI)
	for i, s := range w.Irradiance {
		assert.Equal(t, i, s.Hour)
	}
}

func TestHourlySolar_ShortSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"current_weather": {"temperature": 5, "windspeed": 0},
			"hourly": {
				"temperature_2m": [1, 2, 3],
				"shortwave_radiation": [10],
				"direct_radiation": [],
				"diffuse_radiation": [null, 4]
			}
		}`)
	}))
	defer srv.Close()

	w, err := NewOpenMeteoClient(srv.URL, 0).HourlySolar(context.Background(), 0, 0)
	require.NoError(t, err)

	require.Len(t, w.Temperatures, 3)
	assert.Equal(t, []float64{1, 2, 3}, w.Temperatures)
	assert.Equal(t, 10.0, w.Irradiance[0].GHI)
	assert.Zero(t, w.Irradiance[1].GHI)
	assert.Zero(t, w.Irradiance[2].DNI)
	assert.Equal(t, 4.0, w.Irradiance[1].DHI)
}

func TestHourlySolar_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
		is      error
	}{
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    "boom",
			wantErr: "API returned status 500: boom",
		},
		{
			name:    "malformed json",
			status:  http.StatusOK,
			body:    `{"hourly": `,
			wantErr: "decoding response",
		},
		{
			name:   "missing current weather",
			status: http.StatusOK,
			body:   `{"hourly": {"temperature_2m": [1]}}`,
			is:     ErrMissingCurrent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewOpenMeteoClient(srv.URL, time.Second).HourlySolar(context.Background(), 1, 2)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestHourlySolar_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewOpenMeteoClient(srv.URL, time.Second).HourlySolar(context.Background(), 1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching weather")
}
