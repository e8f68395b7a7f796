// Package telephony places outbound calls through the provider REST API.
// Failures here surface to the triggering caller as errors; they never
// produce call-control documents because no call leg exists yet.
package telephony

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/config"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/constants"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/metrics"
	"github.com/RaviKunapareddy/Arraylink-Dashboard-Application/pkg/models"
)

// CallCreator is the slice of the provider REST API this service uses.
type CallCreator interface {
	CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error)
}

type Client struct {
	api           CallCreator
	from          string
	baseURL       string
	logger        *logrus.Logger
	metrics       *metrics.Metrics
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

func NewClient(cfg *config.Config, logger *logrus.Logger, m *metrics.Metrics) *Client {
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return NewClientWithAPI(rest.Api, cfg.TwilioPhoneNumber, cfg.BaseURL, logger, m)
}

// NewClientWithAPI wires an explicit API implementation; tests inject fakes
// here.
func NewClientWithAPI(api CallCreator, from, baseURL string, logger *logrus.Logger, m *metrics.Metrics) *Client {
	return &Client{
		api:           api,
		from:          from,
		baseURL:       baseURL,
		logger:        logger,
		metrics:       m,
		maxRetries:    constants.DefaultLLMMaxRetries,
		initialDelay:  constants.DefaultLLMRetryDelayMS * time.Millisecond,
		backoffFactor: constants.DefaultRetryBackoffFactor,
	}
}

// PlaceCall creates the outbound call leg pointed at the call-script
// webhook, retrying transient provider failures with exponential backoff.
// Returns the provider-assigned call SID.
func (c *Client) PlaceCall(ctx context.Context, to string, pc models.ProductContext) (string, error) {
	params := &openapi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetUrl(c.scriptURL(pc))
	params.SetStatusCallback(c.baseURL + "/api/call-status")
	params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	params.SetStatusCallbackMethod("POST")

	delay := c.initialDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		call, err := c.api.CreateCall(params)
		if err == nil {
			if call.Sid == nil {
				c.metrics.OutboundCalls.WithLabelValues("error").Inc()
				return "", errors.New("provider returned a call without a SID")
			}
			c.metrics.OutboundCalls.WithLabelValues("ok").Inc()
			c.logger.WithFields(logrus.Fields{
				"call_sid": *call.Sid,
				"to":       to,
			}).Info("Outbound call placed")
			return *call.Sid, nil
		}
		lastErr = err

		if attempt == c.maxRetries || !isRetryable(err) {
			break
		}

		c.logger.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"delay":   delay,
		}).Warn("Retrying outbound call placement")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			c.metrics.OutboundCalls.WithLabelValues("error").Inc()
			return "", ctx.Err()
		}
		delay = time.Duration(float64(delay) * c.backoffFactor)
	}

	c.metrics.OutboundCalls.WithLabelValues("error").Inc()
	return "", fmt.Errorf("failed to place outbound call: %w", lastErr)
}

// scriptURL builds the call-script webhook URL carrying the campaign
// context, which the provider fetches when the callee answers.
func (c *Client) scriptURL(pc models.ProductContext) string {
	q := url.Values{}
	q.Set("managerName", pc.ManagerName)
	q.Set("hotelName", pc.HotelName)
	q.Set("recommendedProduct", pc.RecommendedProduct)
	if pc.LastProduct != "" {
		q.Set("lastProduct", pc.LastProduct)
	}
	return c.baseURL + "/api/call-script?" + q.Encode()
}

// isRetryable distinguishes transport-class provider failures from hard
// rejections. Overload and server errors retry; everything the provider
// rejected outright does not.
func isRetryable(err error) bool {
	var restErr *twilioclient.TwilioRestError
	if errors.As(err, &restErr) {
		return restErr.Status == 429 || restErr.Status >= 500
	}
	return true
}
