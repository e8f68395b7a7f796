package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonschema"
	"github.com/sirupsen/logrus"

	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/models"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/orchestrator"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/session"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/telephony"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/twiml"
)

const outreachSchemaJSON = `{
	"type": "object",
	"required": ["phoneNumber", "managerName", "hotelName", "recommendedProduct"],
	"properties": {
		"phoneNumber": {"type": "string", "minLength": 1},
		"managerName": {"type": "string", "minLength": 1},
		"hotelName": {"type": "string", "minLength": 1},
		"recommendedProduct": {"type": "string", "minLength": 1},
		"lastProduct": {"type": "string"},
		"prospectId": {"type": "string"}
	}
}`

var outreachSchema = mustCompileOutreachSchema()

func mustCompileOutreachSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile([]byte(outreachSchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid outreach schema: %v", err))
	}
	return schema
}

type OutreachRequest struct {
	PhoneNumber        string `json:"phoneNumber"`
	ManagerName        string `json:"managerName"`
	HotelName          string `json:"hotelName"`
	RecommendedProduct string `json:"recommendedProduct"`
	LastProduct        string `json:"lastProduct,omitempty"`
	ProspectID         string `json:"prospectId,omitempty"`
}

type Handler struct {
	orchestrator *orchestrator.Orchestrator
	store        session.Store
	telephony    *telephony.Client
	logger       *logrus.Logger
}

func NewHandler(o *orchestrator.Orchestrator, store session.Store, tel *telephony.Client, logger *logrus.Logger) *Handler {
	return &Handler{
		orchestrator: o,
		store:        store,
		telephony:    tel,
		logger:       logger,
	}
}

// CallScript answers the provider's first fetch for a new call: it creates
// the session with the campaign context and returns the greeting document.
func (h *Handler) CallScript(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Malformed request")
		return
	}

	pc := models.ProductContext{
		ManagerName:        r.Form.Get("managerName"),
		HotelName:          r.Form.Get("hotelName"),
		RecommendedProduct: r.Form.Get("recommendedProduct"),
		LastProduct:        r.Form.Get("lastProduct"),
	}

	callSID := extractCallSID(r)

	doc, err := h.orchestrator.StartCall(r.Context(), callSID, pc)
	if err == orchestrator.ErrInvalidProductContext {
		h.logger.WithField("call_sid", callSID).Warn("Call-script request missing required parameters")
		writeJSONError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("call_sid", callSID).Error("Failed to initiate call session")
		writeTwiML(w, twiml.SafeFallback())
		return
	}

	writeTwiML(w, doc)
}

// CallTurn answers each subsequent webhook turn. It always returns HTTP 200
// with a valid document; malformed caller input is a re-prompt, never an
// error.
func (h *Handler) CallTurn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeTwiML(w, twiml.SafeFallback())
		return
	}

	callSID := r.PostForm.Get("CallSid")
	if callSID == "" {
		h.logger.Warn("Turn webhook received without CallSid")
		callSID = "unknown"
	}

	in := orchestrator.NormalizeWebhookInput(r.PostForm)
	doc := h.orchestrator.HandleTurn(r.Context(), callSID, in)
	writeTwiML(w, doc)
}

// CallStatus acknowledges provider status callbacks and evicts the session
// once the call reaches a terminal state.
func (h *Handler) CallStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	callSID := r.PostForm.Get("CallSid")
	status := r.PostForm.Get("CallStatus")

	h.logger.WithFields(logrus.Fields{
		"call_sid": callSID,
		"status":   status,
		"duration": r.PostForm.Get("CallDuration"),
		"from":     r.PostForm.Get("From"),
		"to":       r.PostForm.Get("To"),
	}).Info("Call status update")

	if callSID != "" {
		h.orchestrator.EndCall(r.Context(), callSID, status)
	}

	w.WriteHeader(http.StatusOK)
}

// Outreach is the dashboard-facing trigger that places a new outbound call.
func (h *Handler) Outreach(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeOutreachError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	var instance interface{}
	var result *jsonschema.EvaluationResult
	if err := json.Unmarshal(body, &instance); err != nil {
		result = jsonschema.NewEvaluationResult(outreachSchema)
		result.AddError(jsonschema.NewEvaluationError("format", "invalid_json", "Invalid JSON format"))
	} else {
		result = outreachSchema.Validate(instance)
	}
	if !result.IsValid() {
		h.logger.WithField("errors", result.Errors).Warn("Outreach request failed validation")
		writeOutreachError(w, http.StatusBadRequest,
			"Missing required fields: phoneNumber, managerName, hotelName, and recommendedProduct are required", "")
		return
	}

	var req OutreachRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeOutreachError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	pc := models.ProductContext{
		ManagerName:        req.ManagerName,
		HotelName:          req.HotelName,
		RecommendedProduct: req.RecommendedProduct,
		LastProduct:        req.LastProduct,
	}

	callSID, err := h.telephony.PlaceCall(r.Context(), req.PhoneNumber, pc)
	if err != nil {
		h.logger.WithError(err).WithField("hotel", req.HotelName).Error("Failed to initiate outreach call")
		writeOutreachError(w, http.StatusBadGateway, "Failed to initiate call", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Outreach call initiated for prospect ID: %s", req.ProspectID),
		"callSid": callSID,
	})
}

// DebugResponse echoes a minimal valid document for webhook connectivity
// checks.
func (h *Handler) DebugResponse(w http.ResponseWriter, r *http.Request) {
	writeTwiML(w, twiml.Document(twiml.Say("Debug endpoint received your request.")))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Count(r.Context())
	if err != nil {
		http.Error(w, "Health check failed", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"active_sessions": count,
	})
}

// MethodNotAllowed returns a handler that rejects with 405 and the Allow
// header listing the permitted methods.
func MethodNotAllowed(allowed ...string) http.HandlerFunc {
	allow := strings.Join(allowed, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		http.Error(w, fmt.Sprintf("Method %s Not Allowed", r.Method), http.StatusMethodNotAllowed)
	}
}

// extractCallSID finds the provider call identifier wherever the provider
// put it (body for POST, query for GET, either casing), or synthesizes one.
func extractCallSID(r *http.Request) string {
	if sid := r.PostForm.Get("CallSid"); sid != "" {
		return sid
	}
	if sid := r.URL.Query().Get("CallSid"); sid != "" {
		return sid
	}
	if sid := r.URL.Query().Get("callSid"); sid != "" {
		return sid
	}
	return "session_" + uuid.New().String()
}

func writeTwiML(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeOutreachError(w http.ResponseWriter, status int, message, detail string) {
	payload := map[string]interface{}{
		"success": false,
		"message": message,
	}
	if detail != "" {
		payload["error"] = detail
	}
	writeJSON(w, status, payload)
}
