package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smartroots/agribot/internal/core"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 5*time.Second), srv
}

func TestClient_SensorData(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/api/agribot/sensor-data" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"sensor_data": map[string]float64{
				"temperature": 28.0, "humidity": 75.5, "ph": 6.8,
				"rainfall": 120.0, "N": 85, "P": 42, "K": 60,
			},
			"recommended_crop": "rice",
		})
	})

	report, err := c.SensorData(context.Background())
	if err != nil {
		t.Fatalf("SensorData failed: %v", err)
	}
	if report.RecommendedCrop != "rice" {
		t.Errorf("expected rice, got %s", report.RecommendedCrop)
	}
	if report.Snapshot.Temperature != 28.0 {
		t.Errorf("expected temperature 28, got %f", report.Snapshot.Temperature)
	}
	if report.Snapshot.N != 85 {
		t.Errorf("expected N 85, got %f", report.Snapshot.N)
	}
}

func TestClient_RefreshSensorData_UsesPost(t *testing.T) {
	var gotMethod, gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{
			"sensor_data":      map[string]float64{"temperature": 30},
			"recommended_crop": "maize",
		})
	})

	report, err := c.RefreshSensorData(context.Background())
	if err != nil {
		t.Fatalf("RefreshSensorData failed: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotPath != "/api/agribot/refresh-data" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if report.RecommendedCrop != "maize" {
		t.Errorf("expected maize, got %s", report.RecommendedCrop)
	}
}

func TestClient_WeatherForecast(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("city"); got != "New Delhi" {
			t.Errorf("unexpected city: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"forecast": []map[string]any{
				{"day": "Monday", "temp": 28.5, "description": "Sunny"},
				{"day": "Tuesday", "temp": 26.2, "description": "Partly Cloudy"},
			},
			"city": "New Delhi",
		})
	})

	forecast, err := c.WeatherForecast(context.Background(), "New Delhi")
	if err != nil {
		t.Fatalf("WeatherForecast failed: %v", err)
	}
	if len(forecast) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(forecast))
	}
	// Order must be exactly what the backend returned
	if forecast[0].Day != "Monday" || forecast[1].Day != "Tuesday" {
		t.Errorf("forecast order changed: %+v", forecast)
	}
}

func TestClient_WeatherForecast_DefaultCity(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("city"); got != "Delhi" {
			t.Errorf("expected default city Delhi, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"forecast": []any{}})
	})

	if _, err := c.WeatherForecast(context.Background(), ""); err != nil {
		t.Fatalf("WeatherForecast failed: %v", err)
	}
}

func TestClient_WeatherRecommendations(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req recommendationsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Crop != "rice" {
			t.Errorf("expected crop rice, got %s", req.Crop)
		}
		if len(req.Forecast) != 1 {
			t.Errorf("expected 1 forecast entry, got %d", len(req.Forecast))
		}
		json.NewEncoder(w).Encode(map[string]string{"recommendations": "Irrigate early."})
	})

	forecast := []core.WeatherForecastEntry{{Day: "Monday", Temp: 28.5, Description: "Sunny"}}
	rec, err := c.WeatherRecommendations(context.Background(), forecast, "rice")
	if err != nil {
		t.Fatalf("WeatherRecommendations failed: %v", err)
	}
	if rec != "Irrigate early." {
		t.Errorf("unexpected recommendations: %s", rec)
	}
}

func TestClient_Chat(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Question != "when should I water?" {
			t.Errorf("unexpected question: %s", req.Question)
		}
		if req.Crop != "rice" {
			t.Errorf("unexpected crop: %s", req.Crop)
		}
		if req.SensorData.Temperature != 28 {
			t.Errorf("sensor data not forwarded: %+v", req.SensorData)
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "Water every 3 days."})
	})

	sensor := &core.SensorSnapshot{Temperature: 28}
	answer, err := c.Chat(context.Background(), "when should I water?", "rice", sensor)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if answer != "Water every 3 days." {
		t.Errorf("unexpected answer: %s", answer)
	}
}

func TestClient_Chat_RequiresCrop(t *testing.T) {
	called := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.Chat(context.Background(), "anything", "", nil)
	if !errors.Is(err, core.ErrCropUnknown) {
		t.Errorf("expected ErrCropUnknown, got %v", err)
	}
	if called {
		t.Error("no network call expected without a crop")
	}
}

func TestClient_YieldPrediction(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"predicted_yield": 412.73,
			"farm_data": map[string]any{
				"Farm_Area(acres)": 120.5,
				"Irrigation_Type":  "Sprinkler",
			},
		})
	})

	pred, err := c.YieldPrediction(context.Background())
	if err != nil {
		t.Fatalf("YieldPrediction failed: %v", err)
	}
	if pred.PredictedYield != 412.73 {
		t.Errorf("unexpected yield: %f", pred.PredictedYield)
	}
	if pred.FarmData["Irrigation_Type"] != "Sprinkler" {
		t.Errorf("farm data not decoded: %+v", pred.FarmData)
	}
}

func TestClient_MarketRecommendations(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("crop"); got != "rice" {
			t.Errorf("unexpected crop: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"crop": "rice",
			"markets": []map[string]any{
				{"Market": "Delhi Azadpur Market", "AvgPrice": 2950.0},
				{"Market": "Mumbai APMC", "AvgPrice": 2730.5},
			},
		})
	})

	markets, err := c.MarketRecommendations(context.Background(), "rice")
	if err != nil {
		t.Fatalf("MarketRecommendations failed: %v", err)
	}
	if len(markets) != 2 {
		t.Fatalf("expected 2 markets, got %d", len(markets))
	}
	// Rank is positional; the backend's order must be preserved
	if markets[0].Market != "Delhi Azadpur Market" {
		t.Errorf("market order changed: %+v", markets)
	}
}

func TestClient_MarketRecommendations_RequiresCrop(t *testing.T) {
	called := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.MarketRecommendations(context.Background(), "")
	if !errors.Is(err, core.ErrCropUnknown) {
		t.Errorf("expected ErrCropUnknown, got %v", err)
	}
	if called {
		t.Error("no network call expected without a crop")
	}
}

func TestClient_AttachesBearerToken(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("unexpected auth header: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"sensor_data": map[string]float64{}})
	})

	c.SetToken("tok-123")
	if _, err := c.SensorData(context.Background()); err != nil {
		t.Fatalf("SensorData failed: %v", err)
	}
}

func TestClient_StatusError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "model offline"})
	})

	_, err := c.SensorData(context.Background())
	if !errors.Is(err, core.ErrBackendStatus) {
		t.Fatalf("expected ErrBackendStatus, got %v", err)
	}
}

func TestClient_UnauthorizedError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Could not validate credentials"})
	})

	_, err := c.SensorData(context.Background())
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if got := ErrorDetail(err); got != "Could not validate credentials" {
		t.Errorf("unexpected detail: %q", got)
	}
}

func TestClient_MalformedPayload(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := c.SensorData(context.Background())
	if !errors.Is(err, core.ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Connection refused from here on

	c := New(srv.URL, time.Second)
	_, err := c.SensorData(context.Background())
	if !errors.Is(err, core.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}
