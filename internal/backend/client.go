// Package backend is the typed request/response facade over the AgriBot
// backend API. It performs no retries, no caching and no request
// deduplication: every method issues exactly one HTTP request and returns
// the parsed payload or the classified failure.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/smartroots/agribot/internal/core"
	"github.com/smartroots/agribot/internal/metrics"
)

const (
	agribotPrefix = "/api/agribot"
	authPrefix    = "/api/auth"
)

// Client talks to the AgriBot backend. The bearer token is shared by all
// operations and is set by the auth store after login or restore.
type Client struct {
	baseURL string
	client  *http.Client
	metrics *metrics.Registry

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records per-operation request metrics.
func WithMetrics(reg *metrics.Registry) Option {
	return func(c *Client) { c.metrics = reg }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New creates a new backend client.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken sets the bearer token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken removes the bearer token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token returns the current bearer token, if any.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SensorData fetches the current sensor snapshot and the crop derived
// from it.
func (c *Client) SensorData(ctx context.Context) (*core.SensorReport, error) {
	var report core.SensorReport
	if err := c.do(ctx, "sensor_data", http.MethodGet, agribotPrefix+"/sensor-data", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// RefreshSensorData forces a fresh reading and returns the new report.
func (c *Client) RefreshSensorData(ctx context.Context) (*core.SensorReport, error) {
	var report core.SensorReport
	if err := c.do(ctx, "refresh_data", http.MethodPost, agribotPrefix+"/refresh-data", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

type forecastResponse struct {
	Forecast []core.WeatherForecastEntry `json:"forecast"`
	City     string                      `json:"city"`
}

// WeatherForecast fetches the multi-day forecast for a city.
func (c *Client) WeatherForecast(ctx context.Context, city string) ([]core.WeatherForecastEntry, error) {
	if city == "" {
		city = "Delhi"
	}
	path := fmt.Sprintf("%s/weather?city=%s", agribotPrefix, url.QueryEscape(city))

	var resp forecastResponse
	if err := c.do(ctx, "weather", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Forecast, nil
}

type recommendationsRequest struct {
	Forecast []core.WeatherForecastEntry `json:"forecast"`
	Crop     string                      `json:"crop"`
}

type recommendationsResponse struct {
	Recommendations string `json:"recommendations"`
}

// WeatherRecommendations asks for advice derived from a forecast and crop.
func (c *Client) WeatherRecommendations(ctx context.Context, forecast []core.WeatherForecastEntry, crop string) (string, error) {
	if crop == "" {
		return "", core.WrapError(core.ErrCropUnknown, fmt.Errorf("crop is required"))
	}
	body := recommendationsRequest{Forecast: forecast, Crop: crop}

	var resp recommendationsResponse
	if err := c.do(ctx, "weather_recommendations", http.MethodPost, agribotPrefix+"/weather-recommendations", body, &resp); err != nil {
		return "", err
	}
	return resp.Recommendations, nil
}

type chatRequest struct {
	Question   string              `json:"question"`
	Crop       string              `json:"crop"`
	SensorData core.SensorSnapshot `json:"sensor_data"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Chat sends one question to the assistant, keyed by the crop and sensor
// snapshot current at submit time.
func (c *Client) Chat(ctx context.Context, question, crop string, sensor *core.SensorSnapshot) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", core.WrapError(core.ErrValidationFailed, fmt.Errorf("question cannot be blank"))
	}
	if crop == "" {
		return "", core.WrapError(core.ErrCropUnknown, fmt.Errorf("crop is required"))
	}
	body := chatRequest{Question: question, Crop: crop}
	if sensor != nil {
		body.SensorData = *sensor
	}

	var resp chatResponse
	if err := c.do(ctx, "chat", http.MethodPost, agribotPrefix+"/chat", body, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// YieldPrediction fetches the yield estimate for the farm.
func (c *Client) YieldPrediction(ctx context.Context) (*core.YieldPrediction, error) {
	var pred core.YieldPrediction
	if err := c.do(ctx, "yield_prediction", http.MethodGet, agribotPrefix+"/yield-prediction", nil, &pred); err != nil {
		return nil, err
	}
	return &pred, nil
}

type marketsResponse struct {
	Crop    string             `json:"crop"`
	Markets []core.MarketEntry `json:"markets"`
}

// MarketRecommendations fetches ranked market prices for a crop.
func (c *Client) MarketRecommendations(ctx context.Context, crop string) ([]core.MarketEntry, error) {
	if crop == "" {
		return nil, core.WrapError(core.ErrCropUnknown, fmt.Errorf("crop is required"))
	}
	path := fmt.Sprintf("%s/market-recommendations?crop=%s", agribotPrefix, url.QueryEscape(crop))

	var resp marketsResponse
	if err := c.do(ctx, "market_recommendations", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Markets, nil
}

// errorBody is the FastAPI-style error payload.
type errorBody struct {
	Detail string `json:"detail"`
}

func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.record(operation, "error", start)
		return core.WrapError(core.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.record(operation, "error", start)
		return statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.record(operation, "error", start)
			return core.WrapError(core.ErrBadPayload, err)
		}
	}

	c.record(operation, "ok", start)
	return nil
}

func (c *Client) record(operation, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordBackendRequest(operation, status, time.Since(start).Seconds())
}

func statusError(resp *http.Response) error {
	var eb errorBody
	// Best effort: error bodies are not always JSON
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&eb)

	detail := eb.Detail
	if detail == "" {
		detail = resp.Status
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return core.WrapError(core.ErrUnauthorized, errors.New(detail))
	}
	return core.WrapError(core.ErrBackendStatus, errors.New(detail))
}

// ErrorDetail extracts the backend-supplied detail message from an error
// returned by this package, or "" when there is none.
func ErrorDetail(err error) string {
	var cerr *core.Error
	if errors.As(err, &cerr) && cerr.Cause != nil {
		return cerr.Cause.Error()
	}
	return ""
}
