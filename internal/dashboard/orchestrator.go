// Package dashboard sequences the data loads behind the advisory view:
// the initial sensor/weather chain, manual refresh, the lazily loaded
// yield and market sections, and the chat sub-session. All state lives in
// one Orchestrator scoped to a single mounted view.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smartroots/agribot/internal/core"
	"github.com/smartroots/agribot/internal/metrics"
	"go.uber.org/zap"
)

// Flag names one of the fixed, independently owned loading states. Every
// operation toggles only its own flag.
type Flag string

const (
	FlagDashboard Flag = "dashboard"
	FlagWeather   Flag = "weather"
	FlagChat      Flag = "chat"
	FlagYield     Flag = "yield"
	FlagMarket    Flag = "market"
	FlagRefresh   Flag = "refresh"
)

var allFlags = []Flag{FlagDashboard, FlagWeather, FlagChat, FlagYield, FlagMarket, FlagRefresh}

// User-facing messages. Chat failures degrade into the transcript instead
// of surfacing as a page error.
const (
	loadErrorMessage    = "Failed to load dashboard data. Please try again."
	refreshErrorMessage = "Failed to refresh data. Please try again."
	yieldErrorMessage   = "Failed to load the yield prediction. Recalculate to retry."
	marketErrorMessage  = "Failed to load market prices. Please try again."
	fallbackChatReply   = "Sorry, I encountered an error. Please try again."
)

// Backend is the slice of the API client the orchestrator depends on.
type Backend interface {
	SensorData(ctx context.Context) (*core.SensorReport, error)
	RefreshSensorData(ctx context.Context) (*core.SensorReport, error)
	WeatherForecast(ctx context.Context, city string) ([]core.WeatherForecastEntry, error)
	WeatherRecommendations(ctx context.Context, forecast []core.WeatherForecastEntry, crop string) (string, error)
	Chat(ctx context.Context, question, crop string, sensor *core.SensorSnapshot) (string, error)
	YieldPrediction(ctx context.Context) (*core.YieldPrediction, error)
	MarketRecommendations(ctx context.Context, crop string) ([]core.MarketEntry, error)
}

// Orchestrator holds all dashboard state for one mounted view.
type Orchestrator struct {
	backend Backend
	logger  *zap.Logger
	metrics *metrics.Registry
	city    string

	mu         sync.RWMutex
	flags      map[Flag]bool
	sensor     *core.SensorSnapshot
	crop       string
	sensorAt   time.Time
	forecast   []core.WeatherForecastEntry
	weatherRec string
	yield      *core.YieldPrediction
	yieldErr   string
	market     []core.MarketEntry
	marketErr  string
	pageErr    string

	transcript *Transcript
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = log }
}

// WithMetrics records load and chat metrics.
func WithMetrics(reg *metrics.Registry) Option {
	return func(o *Orchestrator) { o.metrics = reg }
}

// WithCity overrides the forecast city.
func WithCity(city string) Option {
	return func(o *Orchestrator) { o.city = city }
}

// New creates an orchestrator bound to a backend.
func New(b Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend:    b,
		logger:     zap.NewNop(),
		city:       "Delhi",
		flags:      make(map[Flag]bool, len(allFlags)),
		transcript: NewTranscript(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load runs the initial sequence: sensor report, then forecast, then
// weather recommendations. Recommendations are skipped, not retried, when
// the forecast comes back empty. Any step failure aborts the rest and
// sets the page error; the dashboard flag always clears.
func (o *Orchestrator) Load(ctx context.Context) error {
	o.setFlag(FlagDashboard, true)
	defer o.setFlag(FlagDashboard, false)

	report, err := o.backend.SensorData(ctx)
	if err != nil {
		return o.failPage("load", loadErrorMessage, err)
	}
	o.applyReport(report)

	forecast, err := o.backend.WeatherForecast(ctx, o.city)
	if err != nil {
		return o.failPage("load", loadErrorMessage, err)
	}
	o.mu.Lock()
	o.forecast = forecast
	o.mu.Unlock()

	if len(forecast) > 0 {
		rec, err := o.backend.WeatherRecommendations(ctx, forecast, report.RecommendedCrop)
		if err != nil {
			return o.failPage("load", loadErrorMessage, err)
		}
		o.mu.Lock()
		o.weatherRec = rec
		o.mu.Unlock()
	}

	o.recordLoad("load", "ok")
	o.logger.Info("dashboard loaded",
		zap.String("crop", report.RecommendedCrop),
		zap.Int("forecast_days", len(forecast)),
	)
	return nil
}

// Refresh re-fetches the sensor report and, only when a forecast already
// exists from a prior load, recomputes the weather recommendations with
// the new crop. The forecast itself is never re-fetched or mutated here.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	o.setFlag(FlagRefresh, true)
	defer o.setFlag(FlagRefresh, false)

	report, err := o.backend.RefreshSensorData(ctx)
	if err != nil {
		return o.failPage("refresh", refreshErrorMessage, err)
	}
	o.applyReport(report)

	o.mu.RLock()
	forecast := o.forecast
	o.mu.RUnlock()

	if len(forecast) > 0 {
		rec, err := o.backend.WeatherRecommendations(ctx, forecast, report.RecommendedCrop)
		if err != nil {
			return o.failPage("refresh", refreshErrorMessage, err)
		}
		o.mu.Lock()
		o.weatherRec = rec
		o.mu.Unlock()
	}

	o.recordLoad("refresh", "ok")
	return nil
}

// EnsureYield loads the yield prediction the first time the section is
// activated. It is idempotent: once a prediction is held it does nothing.
func (o *Orchestrator) EnsureYield(ctx context.Context) error {
	o.mu.RLock()
	loaded := o.yield != nil
	o.mu.RUnlock()
	if loaded {
		return nil
	}
	return o.loadYield(ctx)
}

// RecalculateYield always re-fetches, replacing any prediction held.
func (o *Orchestrator) RecalculateYield(ctx context.Context) error {
	return o.loadYield(ctx)
}

func (o *Orchestrator) loadYield(ctx context.Context) error {
	o.setFlag(FlagYield, true)
	defer o.setFlag(FlagYield, false)

	pred, err := o.backend.YieldPrediction(ctx)
	if err != nil {
		o.logger.Error("loading yield prediction failed", zap.Error(err))
		o.mu.Lock()
		o.yieldErr = yieldErrorMessage
		o.mu.Unlock()
		o.recordSection("yield", "error")
		return err
	}

	o.mu.Lock()
	o.yield = pred
	o.yieldErr = ""
	o.mu.Unlock()
	o.recordSection("yield", "ok")
	return nil
}

// EnsureMarket loads market prices the first time the section is
// activated. It refuses to issue a network call until a recommended crop
// exists, and does nothing once prices are held.
func (o *Orchestrator) EnsureMarket(ctx context.Context) error {
	o.mu.RLock()
	crop := o.crop
	loaded := o.market != nil
	o.mu.RUnlock()

	if crop == "" {
		return core.WrapError(core.ErrCropUnknown, fmt.Errorf("market prices need a recommended crop"))
	}
	if loaded {
		return nil
	}
	return o.loadMarket(ctx, crop)
}

// ReloadMarket re-fetches market prices for the current crop.
func (o *Orchestrator) ReloadMarket(ctx context.Context) error {
	o.mu.RLock()
	crop := o.crop
	o.mu.RUnlock()

	if crop == "" {
		return core.WrapError(core.ErrCropUnknown, fmt.Errorf("market prices need a recommended crop"))
	}
	return o.loadMarket(ctx, crop)
}

func (o *Orchestrator) loadMarket(ctx context.Context, crop string) error {
	o.setFlag(FlagMarket, true)
	defer o.setFlag(FlagMarket, false)

	markets, err := o.backend.MarketRecommendations(ctx, crop)
	if err != nil {
		o.logger.Error("loading market prices failed", zap.String("crop", crop), zap.Error(err))
		o.mu.Lock()
		o.marketErr = marketErrorMessage
		o.mu.Unlock()
		o.recordSection("market", "error")
		return err
	}

	o.mu.Lock()
	o.market = markets
	o.marketErr = ""
	o.mu.Unlock()
	o.recordSection("market", "ok")
	return nil
}

// SubmitChat appends the question to the transcript immediately, then
// asks the backend. On failure the reply degrades into a fixed apology in
// the transcript; it never becomes a page error. Exactly one user message
// and one bot message are appended per accepted submit.
func (o *Orchestrator) SubmitChat(ctx context.Context, input string) (core.ChatMessage, error) {
	question := strings.TrimSpace(input)
	if question == "" {
		return core.ChatMessage{}, core.WrapError(core.ErrValidationFailed, fmt.Errorf("question cannot be blank"))
	}

	// Freeze the crop and sensor snapshot at submit time so a refresh
	// landing mid-flight cannot change what this question is answered
	// against.
	o.mu.RLock()
	crop := o.crop
	var sensor *core.SensorSnapshot
	if o.sensor != nil {
		s := *o.sensor
		sensor = &s
	}
	o.mu.RUnlock()

	if crop == "" {
		return core.ChatMessage{}, core.WrapError(core.ErrCropUnknown, fmt.Errorf("chat needs a recommended crop"))
	}

	userID := o.transcript.AppendPending(core.RoleUser, question)
	o.recordChat(core.RoleUser)

	o.setFlag(FlagChat, true)
	defer o.setFlag(FlagChat, false)

	answer, err := o.backend.Chat(ctx, question, crop, sensor)
	if err != nil {
		o.logger.Error("chat request failed", zap.Error(err))
		answer = fallbackChatReply
	}

	reply := o.transcript.Append(core.RoleBot, answer)
	o.transcript.Settle(userID)
	o.recordChat(core.RoleBot)
	return reply, nil
}

// Messages returns the chat transcript in append order.
func (o *Orchestrator) Messages() []core.ChatMessage {
	return o.transcript.Messages()
}

// Loading reports one loading flag.
func (o *Orchestrator) Loading(f Flag) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.flags[f]
}

// State is an immutable snapshot of everything the view renders.
type State struct {
	SensorData             *core.SensorSnapshot        `json:"sensor_data,omitempty"`
	RecommendedCrop        string                      `json:"recommended_crop"`
	SensorTimestamp        time.Time                   `json:"sensor_timestamp,omitzero"`
	Forecast               []core.WeatherForecastEntry `json:"forecast"`
	WeatherRecommendations string                      `json:"weather_recommendations,omitempty"`
	Yield                  *core.YieldPrediction       `json:"yield,omitempty"`
	YieldError             string                      `json:"yield_error,omitempty"`
	Markets                []core.MarketEntry          `json:"markets"`
	MarketError            string                      `json:"market_error,omitempty"`
	Messages               []core.ChatMessage          `json:"messages"`
	Loading                map[Flag]bool               `json:"loading"`
	Error                  string                      `json:"error,omitempty"`
}

// State returns a copy of the current dashboard state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()

	st := State{
		RecommendedCrop:        o.crop,
		SensorTimestamp:        o.sensorAt,
		WeatherRecommendations: o.weatherRec,
		YieldError:             o.yieldErr,
		MarketError:            o.marketErr,
		Error:                  o.pageErr,
		Loading:                make(map[Flag]bool, len(allFlags)),
	}
	if o.sensor != nil {
		s := *o.sensor
		st.SensorData = &s
	}
	st.Forecast = append([]core.WeatherForecastEntry(nil), o.forecast...)
	if o.yield != nil {
		y := *o.yield
		st.Yield = &y
	}
	st.Markets = append([]core.MarketEntry(nil), o.market...)
	for _, f := range allFlags {
		st.Loading[f] = o.flags[f]
	}
	st.Messages = o.transcript.Messages()
	return st
}

// applyReport installs a sensor report. Snapshot and crop always change
// together; they never update independently.
func (o *Orchestrator) applyReport(report *core.SensorReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap := report.Snapshot
	o.sensor = &snap
	o.crop = report.RecommendedCrop
	o.sensorAt = report.Timestamp
}

func (o *Orchestrator) setFlag(f Flag, v bool) {
	o.mu.Lock()
	o.flags[f] = v
	o.mu.Unlock()
}

// failPage converts a step failure into the shared page-level error. The
// message overwrites any previous one; errors are not accumulated.
func (o *Orchestrator) failPage(operation, message string, err error) error {
	o.logger.Error("dashboard operation failed",
		zap.String("operation", operation),
		zap.Error(err),
	)
	o.mu.Lock()
	o.pageErr = message
	o.mu.Unlock()
	o.recordLoad(operation, "error")
	return err
}

func (o *Orchestrator) recordLoad(operation, status string) {
	if o.metrics != nil {
		o.metrics.RecordDashboardLoad(operation, status)
	}
}

func (o *Orchestrator) recordSection(section, status string) {
	if o.metrics != nil {
		o.metrics.RecordSectionLoad(section, status)
	}
}

func (o *Orchestrator) recordChat(role core.MessageRole) {
	if o.metrics != nil {
		o.metrics.RecordChatMessage(string(role))
		o.metrics.SetTranscriptLength(o.transcript.Len())
	}
}
