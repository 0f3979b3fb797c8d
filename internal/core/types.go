package core

import "time"

// User is the authenticated account returned by the backend auth endpoints.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	IsActive  bool      `json:"is_active,omitempty"`
}

// Session is the process-wide authentication state. Loading is true only
// while the silent restore check at startup is still in flight.
type Session struct {
	User            *User `json:"user,omitempty"`
	IsAuthenticated bool  `json:"is_authenticated"`
	Loading         bool  `json:"loading"`
}

// SensorSnapshot holds one complete set of field readings. Snapshots are
// replaced wholesale on every load or refresh, never merged.
type SensorSnapshot struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	PH          float64 `json:"ph"`
	Rainfall    float64 `json:"rainfall"`
	N           float64 `json:"N"`
	P           float64 `json:"P"`
	K           float64 `json:"K"`
}

// SensorReport couples a snapshot with the crop the backend derived from it.
// The two always travel together: they come from the same backend call and
// are never updated independently.
type SensorReport struct {
	Snapshot        SensorSnapshot `json:"sensor_data"`
	RecommendedCrop string         `json:"recommended_crop"`
	Timestamp       time.Time      `json:"timestamp,omitzero"`
}

// WeatherForecastEntry is one day of the forecast. Entries keep the order
// the backend returned them in; the client never re-sorts.
type WeatherForecastEntry struct {
	Day         string  `json:"day"`
	Date        string  `json:"date,omitempty"`
	Temp        float64 `json:"temp"`
	Humidity    float64 `json:"humidity,omitempty"`
	Description string  `json:"description"`
	Icon        string  `json:"icon,omitempty"`
}

// YieldPrediction is the lazily loaded yield estimate for the farm.
type YieldPrediction struct {
	PredictedYield float64        `json:"predicted_yield"`
	FarmData       map[string]any `json:"farm_data"`
}

// MarketEntry is one market price quote. The backend returns entries ranked
// by price; rank is derived from position in the slice.
type MarketEntry struct {
	Market   string  `json:"Market"`
	AvgPrice float64 `json:"AvgPrice"`
	Score    float64 `json:"Score,omitempty"`
}

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	RoleUser MessageRole = "user"
	RoleBot  MessageRole = "bot"
)

// ChatMessage is one entry in the chat transcript. Pending marks an
// optimistic entry whose backend call has not settled yet; entries are
// never removed once appended.
type ChatMessage struct {
	ID      string      `json:"id"`
	Role    MessageRole `json:"type"`
	Text    string      `json:"text"`
	Pending bool        `json:"pending,omitempty"`
	SentAt  time.Time   `json:"sent_at,omitzero"`
}
