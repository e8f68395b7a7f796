package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/config"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/llm"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/metrics"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/orchestrator"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/session"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/telephony"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/twiml"
)

// The metric vectors register against the default registry, so the package
// shares a single instance across tests.
var (
	testMetricsOnce sync.Once
	testMetrics     *metrics.Metrics
)

// fakeCallAPI captures the outbound-call request and answers with a scripted
// result.
type fakeCallAPI struct {
	sid    string
	err    error
	params *openapi.CreateCallParams
}

func (f *fakeCallAPI) CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &openapi.ApiV2010Call{Sid: &f.sid}, nil
}

type fixture struct {
	handler *Handler
	store   session.Store
	api     *fakeCallAPI
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	testMetricsOnce.Do(func() {
		testMetrics = metrics.NewMetrics()
	})

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg := &config.Config{
		BaseURL:      "http://example.com",
		LLMTimeoutMS: 3000,
	}

	store := session.NewMemoryStore(logger, testMetrics)
	gateway := llm.NewGateway(&llm.StaticClient{Response: "It brews faster."}, logger, testMetrics)
	orch := orchestrator.New(store, gateway, cfg, logger, testMetrics)

	api := &fakeCallAPI{sid: "CA_OUTBOUND"}
	tel := telephony.NewClientWithAPI(api, "+15550001111", cfg.BaseURL, logger, testMetrics)

	return &fixture{
		handler: NewHandler(orch, store, tel, logger),
		store:   store,
		api:     api,
	}
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func scriptForm() url.Values {
	return url.Values{
		"CallSid":            {"CA1"},
		"managerName":        {"Sarah"},
		"hotelName":          {"Grand Plaza Hotel"},
		"recommendedProduct": {"organic breakfast blend"},
		"lastProduct":        {"house coffee"},
	}
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestCallScript_ReturnsGreetingDocument(t *testing.T) {
	f := newFixture(t)

	rec := serve(http.HandlerFunc(f.handler.CallScript), postForm("/api/call-script", scriptForm()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, twiml.Declaration), "declaration must be the first bytes")
	require.NoError(t, twiml.Validate(body))
	assert.Contains(t, body, "Hello Sarah")
}

func TestCallScript_QueryParameters(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/call-script?"+scriptForm().Encode(), nil)
	rec := serve(http.HandlerFunc(f.handler.CallScript), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Grand Plaza Hotel")
}

func TestCallScript_MissingParameters(t *testing.T) {
	f := newFixture(t)

	form := scriptForm()
	form.Del("hotelName")
	rec := serve(http.HandlerFunc(f.handler.CallScript), postForm("/api/call-script", form))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "Missing required parameters", payload["error"])
}

func TestCallScript_SynthesizesSessionID(t *testing.T) {
	f := newFixture(t)

	form := scriptForm()
	form.Del("CallSid")
	rec := serve(http.HandlerFunc(f.handler.CallScript), postForm("/api/call-script", form))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCallTurn_AlwaysValidDocument(t *testing.T) {
	f := newFixture(t)
	serve(http.HandlerFunc(f.handler.CallScript), postForm("/api/call-script", scriptForm()))

	forms := []url.Values{
		{"CallSid": {"CA1"}, "SpeechResult": {"yes"}, "Confidence": {"0.9"}},
		{"CallSid": {"CA1"}, "SpeechResult": {"what is the difference"}, "Confidence": {"0.9"}},
		{"CallSid": {"CA1"}},
		{},
	}
	for _, form := range forms {
		rec := serve(http.HandlerFunc(f.handler.CallTurn), postForm("/api/call-response", form))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NoError(t, twiml.Validate(rec.Body.String()), form.Encode())
	}
}

func TestCallStatus_TerminalEvictsSession(t *testing.T) {
	f := newFixture(t)
	serve(http.HandlerFunc(f.handler.CallScript), postForm("/api/call-script", scriptForm()))

	n, err := f.store.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	rec := serve(http.HandlerFunc(f.handler.CallStatus), postForm("/api/call-status", url.Values{
		"CallSid":    {"CA1"},
		"CallStatus": {"completed"},
	}))
	assert.Equal(t, http.StatusOK, rec.Code)

	n, err = f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCallStatus_NonTerminalKeepsSession(t *testing.T) {
	f := newFixture(t)
	serve(http.HandlerFunc(f.handler.CallScript), postForm("/api/call-script", scriptForm()))

	serve(http.HandlerFunc(f.handler.CallStatus), postForm("/api/call-status", url.Values{
		"CallSid":    {"CA1"},
		"CallStatus": {"ringing"},
	}))

	n, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOutreach_Success(t *testing.T) {
	f := newFixture(t)

	body := `{
		"phoneNumber": "+15551234567",
		"managerName": "Sarah",
		"hotelName": "Grand Plaza Hotel",
		"recommendedProduct": "organic breakfast blend",
		"prospectId": "prospect-42"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/outreach", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(http.HandlerFunc(f.handler.Outreach), req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "CA_OUTBOUND", payload["callSid"])
	assert.Contains(t, payload["message"], "prospect-42")

	require.NotNil(t, f.api.params)
	assert.Equal(t, "+15551234567", *f.api.params.To)
	assert.Contains(t, *f.api.params.Url, "/api/call-script?")
	assert.Contains(t, *f.api.params.Url, "hotelName=Grand+Plaza+Hotel")
}

func TestOutreach_SchemaRejection(t *testing.T) {
	f := newFixture(t)

	cases := []string{
		`{"phoneNumber": "+15551234567"}`,
		`{"phoneNumber": "", "managerName": "Sarah", "hotelName": "H", "recommendedProduct": "P"}`,
		`{"phoneNumber": 12345, "managerName": "Sarah", "hotelName": "H", "recommendedProduct": "P"}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/outreach", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := serve(http.HandlerFunc(f.handler.Outreach), req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)

		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
		assert.Equal(t, false, payload["success"], body)
	}
}

func TestOutreach_ProviderFailure(t *testing.T) {
	f := newFixture(t)
	f.api.err = &twilioclient.TwilioRestError{Status: 400, Message: "invalid phone number"}

	body := `{
		"phoneNumber": "+15551234567",
		"managerName": "Sarah",
		"hotelName": "Grand Plaza Hotel",
		"recommendedProduct": "organic breakfast blend"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/outreach", strings.NewReader(body))
	rec := serve(http.HandlerFunc(f.handler.Outreach), req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, false, payload["success"])
}

func TestDebugResponse(t *testing.T) {
	f := newFixture(t)

	rec := serve(http.HandlerFunc(f.handler.DebugResponse), httptest.NewRequest(http.MethodGet, "/api/debug-response", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, twiml.Validate(rec.Body.String()))
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := serve(http.HandlerFunc(f.handler.Health), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "healthy", payload["status"])
	assert.EqualValues(t, 0, payload["active_sessions"])
}

func TestMethodNotAllowed(t *testing.T) {
	h := MethodNotAllowed("POST")

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/call-response", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get("Allow"))
}
