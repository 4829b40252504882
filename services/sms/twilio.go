package smssvc

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Aarth-Web/ss-backend/core"
)

type twilioService struct {
	client     *twilio.RestClient
	fromNumber string
	fallback   bool
	logger     core.Logger
}

var _ core.SMSService = (*twilioService)(nil)

// NewTwilioService sends SMS through Twilio. When the provider is not
// configured, or when it fails and the fallback is enabled, messages are
// logged instead of sent so attendance flows keep working in development and
// during provider outages.
func NewTwilioService(conf *core.Config, logger core.Logger) core.SMSService {
	svc := &twilioService{
		fromNumber: conf.Twilio.FromNumber,
		fallback:   conf.Notify.FallbackOnProviderError,
		logger:     logger,
	}
	if conf.Twilio.Enabled() {
		svc.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: conf.Twilio.AccountSID,
			Password: conf.Twilio.AuthToken,
		})
	}
	return svc
}

func (svc *twilioService) Send(ctx context.Context, to, message string) error {
	to = normalizeNumber(to)

	if svc.client == nil {
		svc.logger.Info(fmt.Sprintf("[SMS FALLBACK] To: %s, Message: %s", to, message))
		return nil
	}

	params := new(openapi.CreateMessageParams)
	params.SetTo(to)
	params.SetFrom(svc.fromNumber)
	params.SetBody(message)

	if _, err := svc.client.Api.CreateMessage(params); err != nil {
		if svc.fallback {
			svc.logger.Warn(fmt.Sprintf("twilio send failed, falling back to log: %v", err))
			svc.logger.Info(fmt.Sprintf("[SMS FALLBACK] To: %s, Message: %s", to, message))
			return nil
		}
		return errors.Wrap(err, "sending SMS via twilio")
	}
	return nil
}

// normalizeNumber ensures the number is in E.164 form; bare 10-digit numbers
// get the Indian country code.
func normalizeNumber(to string) string {
	to = strings.TrimSpace(to)
	if strings.HasPrefix(to, "+") {
		return to
	}
	if len(to) == 10 {
		return "+91" + to
	}
	return "+" + to
}
