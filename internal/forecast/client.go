package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/openvine/budbreak/internal/gdd"
)

const defaultAPIEndpoint = "https://api.open-meteo.com/v1/forecast"

// Client fetches an hourly temperature forecast from Open-Meteo and
// reduces it to expected daily GDD contributions.
type Client struct {
	endpoint  string
	latitude  float64
	longitude float64
	params    gdd.Parameters
	timeout   time.Duration
	logger    *zap.SugaredLogger
}

// openMeteoResponse mirrors the subset of the Open-Meteo payload we use
type openMeteoResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature2M []float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

func NewClient(endpoint string, latitude, longitude float64, params gdd.Parameters, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	if endpoint == "" {
		endpoint = defaultAPIEndpoint
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:  endpoint,
		latitude:  latitude,
		longitude: longitude,
		params:    params,
		timeout:   timeout,
		logger:    logger,
	}
}

// DailyGDD returns the expected GDD contribution for each of the next
// `days` days, computed from the hourly forecast. Index 0 is today.
func (c *Client) DailyGDD(ctx context.Context, days int) ([]float64, error) {
	v := url.Values{}
	v.Set("latitude", fmt.Sprintf("%.6f", c.latitude))
	v.Set("longitude", fmt.Sprintf("%.6f", c.longitude))
	v.Set("hourly", "temperature_2m")
	v.Set("temperature_unit", "fahrenheit")
	v.Set("timezone", "UTC")
	v.Set("forecast_days", strconv.Itoa(days))

	reqURL := c.endpoint + "?" + v.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating forecast request: %v", err)
	}

	client := http.Client{
		Timeout: c.timeout,
	}

	c.logger.Debugf("fetching forecast from %v", reqURL)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making forecast request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad response from forecast server: %s", resp.Status)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading forecast response: %v", err)
	}

	response := &openMeteoResponse{}
	decoder := json.NewDecoder(bytes.NewReader(bodyBytes))
	if err := decoder.Decode(response); err != nil {
		return nil, fmt.Errorf("unable to decode forecast response: %v", err)
	}

	if len(response.Hourly.Time) == 0 || len(response.Hourly.Time) != len(response.Hourly.Temperature2M) {
		return nil, fmt.Errorf("forecast response missing hourly temperatures")
	}

	return c.reduceToDaily(response, days)
}

// reduceToDaily averages the hourly temperatures within each forecast day
// and converts each day's mean to a GDD contribution
func (c *Client) reduceToDaily(response *openMeteoResponse, days int) ([]float64, error) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	order := make([]string, 0, days)

	for i, stamp := range response.Hourly.Time {
		if len(stamp) < 10 {
			return nil, fmt.Errorf("malformed forecast timestamp %q", stamp)
		}
		day := stamp[:10]
		if _, seen := counts[day]; !seen {
			order = append(order, day)
		}
		sums[day] += response.Hourly.Temperature2M[i]
		counts[day]++
	}

	if len(order) > days {
		order = order[:days]
	}

	daily := make([]float64, len(order))
	for i, day := range order {
		mean := sums[day] / float64(counts[day])
		daily[i] = c.params.DailyContribution(mean)
	}
	return daily, nil
}
