// Package weather looks up current conditions for a location.
package weather

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

var ErrUnavailable = errors.New("weather data unavailable")

// Conditions is the subset of the current weather used for recommendations
type Conditions struct {
	Location     string  `json:"location"`
	TemperatureC float64 `json:"temperature_c"`
	Humidity     float64 `json:"humidity"`
	Condition    string  `json:"condition"`
}

type Provider interface {
	Current(ctx context.Context, location string) (Conditions, error)
}

// WeatherAPIClient queries the WeatherAPI.com current.json endpoint
type WeatherAPIClient struct {
	baseURL string
	apiKey  string
	timeout time.Duration
}

func NewWeatherAPIClient(baseURL, apiKey string, timeout time.Duration) *WeatherAPIClient {
	return &WeatherAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
	}
}

type currentResponse struct {
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
	Current struct {
		TempC     float64 `json:"temp_c"`
		Humidity  float64 `json:"humidity"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *WeatherAPIClient) Current(ctx context.Context, location string) (Conditions, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("q", location)
	q.Set("aqi", "no")

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left > 0 && left < timeout {
			timeout = left
		}
	}

	var resp currentResponse
	code, _, errs := fiber.Get(c.baseURL + "/current.json?" + q.Encode()).
		Timeout(timeout).
		Struct(&resp)
	if len(errs) > 0 {
		return Conditions{}, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		msg := ""
		if resp.Error != nil {
			msg = resp.Error.Message
		}
		return Conditions{}, fmt.Errorf("%w: status %d %s", ErrUnavailable, code, msg)
	}

	name := resp.Location.Name
	if name == "" {
		name = location
	}
	return Conditions{
		Location:     name,
		TemperatureC: resp.Current.TempC,
		Humidity:     resp.Current.Humidity,
		Condition:    resp.Current.Condition.Text,
	}, nil
}
