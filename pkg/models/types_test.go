package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	s := NewSession("CA123")

	assert.Equal(t, "CA123", s.CallSID)
	assert.False(t, s.StartTime.IsZero())
	assert.False(t, s.LastUpdated.IsZero())
	assert.NotNil(t, s.GenerativeCache)
	assert.Empty(t, s.SpeechHistory)
}

func TestIsTerminalCallStatus(t *testing.T) {
	for _, status := range []string{
		CallStatusCompleted, CallStatusFailed, CallStatusBusy, CallStatusNoAnswer, CallStatusCanceled,
	} {
		assert.True(t, IsTerminalCallStatus(status), status)
	}

	for _, status := range []string{"queued", "initiated", "ringing", "in-progress", ""} {
		assert.False(t, IsTerminalCallStatus(status), status)
	}
}

func TestSession_JSONRoundTrip(t *testing.T) {
	s := NewSession("CA123")
	s.LastIntent = IntentQuestion
	s.LastPromptType = PromptLLMResponse
	s.GenerativeCache["key"] = "answer"
	s.SpeechHistory = append(s.SpeechHistory, SpeechTurn{Input: "what is it", Confidence: 0.9, Modality: ModalitySpeech})

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded Session
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, s.CallSID, decoded.CallSID)
	assert.Equal(t, s.LastIntent, decoded.LastIntent)
	assert.Equal(t, s.LastPromptType, decoded.LastPromptType)
	assert.Equal(t, "answer", decoded.GenerativeCache["key"])
	require.Len(t, decoded.SpeechHistory, 1)
	assert.Equal(t, "what is it", decoded.SpeechHistory[0].Input)
}
