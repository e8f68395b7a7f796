// Package orchestrator drives one webhook turn of an outbound call: it
// classifies the caller's input, picks the fast, generative, or fallback
// path, and guarantees a valid TwiML document comes back no matter what
// fails along the way.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/config"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/intent"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/llm"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/metrics"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/models"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/session"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/twiml"
)

// ErrInvalidProductContext is returned by StartCall when a required campaign
// field is missing. No call leg exists yet, so this surfaces as an HTTP
// error rather than a document.
var ErrInvalidProductContext = errors.New("managerName, hotelName and recommendedProduct are required")

type Orchestrator struct {
	store   session.Store
	gateway *llm.Gateway
	config  *config.Config
	logger  *logrus.Logger
	metrics *metrics.Metrics
}

func New(store session.Store, gateway *llm.Gateway, cfg *config.Config, logger *logrus.Logger, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		store:   store,
		gateway: gateway,
		config:  cfg,
		logger:  logger,
		metrics: m,
	}
}

func (o *Orchestrator) responseURL() string {
	return o.config.BaseURL + "/api/call-response"
}

// StartCall is the first-turn entry point. It validates the campaign fields,
// creates the session with its immutable product context, and builds the
// greeting plus the opening yes/no gather.
func (o *Orchestrator) StartCall(ctx context.Context, callSID string, pc models.ProductContext) (string, error) {
	if pc.ManagerName == "" || pc.HotelName == "" || pc.RecommendedProduct == "" {
		return "", ErrInvalidProductContext
	}
	if pc.LastProduct == "" {
		pc.LastProduct = "your previous order"
	}

	doc, patch := twiml.BuildInitialPrompt(pc, o.responseURL())

	_, err := o.store.Update(ctx, callSID, func(s *models.Session) {
		if s.ProductContext == (models.ProductContext{}) {
			s.ProductContext = pc
		}
		patch.Apply(s)
	})
	if err != nil {
		return "", err
	}

	if err := twiml.Validate(doc); err != nil {
		o.metrics.MarkupValidationFailures.Inc()
		o.logger.WithError(err).WithField("call_sid", callSID).Error("Initial prompt failed validation")
		return twiml.SafeFallback(), nil
	}

	o.logger.WithFields(logrus.Fields{
		"call_sid": callSID,
		"hotel":    pc.HotelName,
	}).Info("Call session initiated")
	return doc, nil
}

// HandleTurn processes one caller response. It never fails: every error,
// validation rejection, or panic degrades to the safe fallback document.
func (o *Orchestrator) HandleTurn(ctx context.Context, callSID string, in NormalizedInput) (doc string) {
	start := time.Now()
	path := metrics.PathSafeFallback

	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(logrus.Fields{
				"call_sid": callSID,
				"panic":    r,
			}).Error("Turn pipeline panicked, substituting safe fallback")
			doc = twiml.SafeFallback()
			path = metrics.PathSafeFallback
		}
		o.metrics.TurnsProcessed.WithLabelValues(path).Inc()
		o.metrics.TurnDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}()

	detected := intent.DetectIntent(in.Text)
	multiple := intent.DetectMultipleIntents(in.Text)
	needsLLM := intent.NeedsLLMProcessing(in.Text)

	snapshot, err := o.store.Update(ctx, callSID, func(s *models.Session) {
		s.SpeechHistory = append(s.SpeechHistory, models.SpeechTurn{
			Input:      in.Raw,
			Confidence: in.Confidence,
			Timestamp:  time.Now(),
			Modality:   in.Modality,
		})
		if detected != nil {
			s.LastIntent = detected.Tag
			s.Intents = append(s.Intents, *detected)
		} else if needsLLM {
			// No clean classification but clearly a question: remember
			// that so the next fallback wording fits.
			s.LastIntent = models.IntentQuestion
		}
	})
	if err != nil {
		o.logger.WithError(err).WithField("call_sid", callSID).Error("Session update failed")
		return twiml.SafeFallback()
	}

	logEntry := o.logger.WithFields(logrus.Fields{
		"call_sid": callSID,
		"modality": in.Modality,
	})
	if detected != nil {
		logEntry = logEntry.WithFields(logrus.Fields{
			"intent":     detected.Tag,
			"confidence": detected.Confidence,
		})
	}

	// Fast path: a confident non-question intent gets a canned reply
	// without touching the generative gateway.
	if detected != nil && isFastPathIntent(detected.Tag) {
		logEntry.Debug("Taking fast path")
		built, patch := twiml.BuildIntentResponse(*detected, snapshot, o.responseURL())
		o.applyPatch(ctx, callSID, patch)
		path = metrics.PathFastPath
		return o.validated(built, callSID, &path)
	}

	if needsLLM || hasQuestionIntent(multiple) {
		logEntry.Debug("Taking generative path")
		built := o.generativeTurn(ctx, callSID, in, snapshot)
		path = metrics.PathGenerative
		return o.validated(built, callSID, &path)
	}

	logEntry.Debug("No intent matched, using context-aware fallback")
	built, patch := twiml.BuildContextAwareFallback(snapshot, o.responseURL())
	o.applyPatch(ctx, callSID, patch)
	path = metrics.PathFallback
	return o.validated(built, callSID, &path)
}

// generativeTurn answers an open-ended question: consult the per-session
// cache, otherwise call the gateway under the hard time budget, then record
// the exchange.
func (o *Orchestrator) generativeTurn(ctx context.Context, callSID string, in NormalizedInput, snapshot *models.Session) string {
	sanitized := llm.SanitizeUserInput(in.Raw)
	key := llm.CacheKey(sanitized, snapshot.ProductContext)

	start := time.Now()
	answer, cached := snapshot.GenerativeCache[key]
	if cached {
		o.metrics.GatewayRequests.WithLabelValues(metrics.GatewayResultCacheHit).Inc()
	} else {
		prompt := llm.BuildPrompt(sanitized, snapshot.ProductContext)
		answer = o.gateway.ResponseWithTimeout(ctx, prompt, o.config.LLMTimeout())
	}
	latency := time.Since(start)

	built, patch := twiml.BuildLLMResponse(answer, o.responseURL())

	// The gateway result is written here, on the turn's own update path. An
	// abandoned late completion never reaches the session.
	_, err := o.store.Update(ctx, callSID, func(s *models.Session) {
		if s.GenerativeCache == nil {
			s.GenerativeCache = make(map[string]string)
		}
		s.GenerativeCache[key] = answer
		s.GenerativeHistory = append(s.GenerativeHistory, models.GenerativeExchange{
			Query:     sanitized,
			Response:  answer,
			Timestamp: time.Now(),
			Latency:   latency,
			CacheHit:  cached,
		})
		patch.Apply(s)
	})
	if err != nil {
		o.logger.WithError(err).WithField("call_sid", callSID).Error("Failed to record generative exchange")
	}

	return built
}

// EndCall evicts the session when the provider reports a terminal status.
func (o *Orchestrator) EndCall(ctx context.Context, callSID, status string) {
	if !models.IsTerminalCallStatus(status) {
		return
	}
	if err := o.store.Delete(ctx, callSID); err != nil {
		o.logger.WithError(err).WithField("call_sid", callSID).Error("Failed to delete session")
		return
	}
	o.logger.WithFields(logrus.Fields{
		"call_sid": callSID,
		"status":   status,
	}).Info("Call ended, session evicted")
}

func (o *Orchestrator) applyPatch(ctx context.Context, callSID string, patch twiml.SessionPatch) {
	if patch == (twiml.SessionPatch{}) {
		return
	}
	if _, err := o.store.Update(ctx, callSID, patch.Apply); err != nil {
		o.logger.WithError(err).WithField("call_sid", callSID).Error("Failed to apply session patch")
	}
}

// validated returns the document if the validator accepts it, the safe
// fallback otherwise.
func (o *Orchestrator) validated(doc, callSID string, path *string) string {
	if err := twiml.Validate(doc); err != nil {
		o.metrics.MarkupValidationFailures.Inc()
		o.logger.WithError(err).WithField("call_sid", callSID).Error("Generated document failed validation, substituting safe fallback")
		*path = metrics.PathSafeFallback
		return twiml.SafeFallback()
	}
	return doc
}

func isFastPathIntent(tag models.IntentTag) bool {
	switch tag {
	case models.IntentConfirm, models.IntentDecline, models.IntentRepeat, models.IntentSchedule:
		return true
	}
	return false
}

func hasQuestionIntent(intents []models.Intent) bool {
	for _, it := range intents {
		if it.Tag == models.IntentQuestion {
			return true
		}
	}
	return false
}
