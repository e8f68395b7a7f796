package models

import "time"

// IntentTag identifies one of the fixed intent categories the classifier
// can produce.
type IntentTag string

const (
	IntentConfirm  IntentTag = "CONFIRM"
	IntentDecline  IntentTag = "DECLINE"
	IntentRepeat   IntentTag = "REPEAT"
	IntentSchedule IntentTag = "SCHEDULE"
	IntentQuestion IntentTag = "QUESTION"
)

// Intent is a single classification result.
type Intent struct {
	Tag           IntentTag `json:"tag"`
	Confidence    float64   `json:"confidence"`
	MatchedPhrase string    `json:"matched_phrase"`
	Priority      int       `json:"priority"`
	PositionScore float64   `json:"position_score"`
}

// PromptType tags what kind of input the last turn solicited, used to pick
// fallback wording on the next turn.
type PromptType string

const (
	PromptYesNo        PromptType = "YES_NO_QUESTION"
	PromptLLMResponse  PromptType = "LLM_RESPONSE"
	PromptOpenResponse PromptType = "OPEN_RESPONSE"
)

// Modality describes how the caller's input arrived.
type Modality string

const (
	ModalitySpeech Modality = "speech"
	ModalityDTMF   Modality = "dtmf"
	ModalityNone   Modality = "none"
)

// ProductContext holds the campaign substitution values fixed at call
// initiation. Read-only after the first turn.
type ProductContext struct {
	ManagerName        string `json:"manager_name"`
	HotelName          string `json:"hotel_name"`
	RecommendedProduct string `json:"recommended_product"`
	LastProduct        string `json:"last_product"`
}

// SpeechTurn is one entry of a session's input history.
type SpeechTurn struct {
	Input      string    `json:"input"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	Modality   Modality  `json:"modality"`
}

// GenerativeExchange records one round trip through the generative gateway.
type GenerativeExchange struct {
	Query     string        `json:"query"`
	Response  string        `json:"response"`
	Timestamp time.Time     `json:"timestamp"`
	Latency   time.Duration `json:"latency"`
	CacheHit  bool          `json:"cache_hit"`
}

// Session is the per-call conversation context shared across webhook turns.
// All history slices are append-only; eviction removes the whole session.
type Session struct {
	CallSID           string               `json:"call_sid"`
	StartTime         time.Time            `json:"start_time"`
	LastUpdated       time.Time            `json:"last_updated"`
	ProductContext    ProductContext       `json:"product_context"`
	LastIntent        IntentTag            `json:"last_intent,omitempty"`
	LastPromptType    PromptType           `json:"last_prompt_type,omitempty"`
	SpeechHistory     []SpeechTurn         `json:"speech_history"`
	Intents           []Intent             `json:"intents"`
	GenerativeCache   map[string]string    `json:"generative_cache"`
	GenerativeHistory []GenerativeExchange `json:"generative_history"`
}

// NewSession returns a session with defaults for a call identifier.
func NewSession(callSID string) *Session {
	now := time.Now()
	return &Session{
		CallSID:         callSID,
		StartTime:       now,
		LastUpdated:     now,
		GenerativeCache: make(map[string]string),
	}
}

// Call status values the telephony provider reports on the status callback.
const (
	CallStatusCompleted = "completed"
	CallStatusFailed    = "failed"
	CallStatusBusy      = "busy"
	CallStatusNoAnswer  = "no-answer"
	CallStatusCanceled  = "canceled"
)

// IsTerminalCallStatus reports whether a provider call status ends the call
// and should trigger session cleanup.
func IsTerminalCallStatus(status string) bool {
	switch status {
	case CallStatusCompleted, CallStatusFailed, CallStatusBusy, CallStatusNoAnswer, CallStatusCanceled:
		return true
	}
	return false
}
