// Package notify delivers text messages to phone numbers.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/strongo/gotwilio"
)

// ErrUndeliverable is returned when the provider rejects the destination
// number itself (invalid, not a mobile, blocked region).
var ErrUndeliverable = errors.New("phone number cannot receive SMS")

// Sender sends a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, phonenumber, text string) error
}

// LogSender writes messages to the log instead of sending them. Used in
// development and tests.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, phonenumber, text string) error {
	s.logger.InfoContext(ctx, "SMS (not sent)", "to", phonenumber, "text", text)
	return nil
}

// twilioAPI is the part of *gotwilio.Twilio used here.
type twilioAPI interface {
	SendSMS(from, to, body, statusCallback, applicationSid string) (*gotwilio.SmsResponse, *gotwilio.Exception, error)
}

// TwilioSender sends messages through the Twilio REST API.
type TwilioSender struct {
	client twilioAPI
	from   string
	logger *slog.Logger
}

// NewTwilioSender creates a sender for the given account. The HTTP client
// gets a timeout so a slow provider cannot hang a request.
func NewTwilioSender(accountSid, authToken, from string, logger *slog.Logger) *TwilioSender {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	return &TwilioSender{
		client: gotwilio.NewTwilioClientCustomHTTP(accountSid, authToken, httpClient),
		from:   from,
		logger: logger,
	}
}

func (s *TwilioSender) Send(ctx context.Context, phonenumber, text string) error {
	resp, exception, err := s.client.SendSMS(s.from, phonenumber, text, "", "")
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	if exception != nil {
		s.logger.WarnContext(ctx, "Twilio rejected SMS",
			"to", phonenumber,
			"code", exception.Code,
			"message", exception.Message,
		)
		if isUndeliverable(exception.Code) {
			return fmt.Errorf("%w: %s", ErrUndeliverable, exception.Message)
		}
		return fmt.Errorf("twilio error %d: %s", exception.Code, exception.Message)
	}

	s.logger.DebugContext(ctx, "SMS sent", "to", phonenumber, "sid", resp.Sid, "status", resp.Status)
	return nil
}

// isUndeliverable reports Twilio error codes that are about the destination.
// https://www.twilio.com/docs/errors
func isUndeliverable(code int) bool {
	switch code {
	case 21211, // not a valid phone number
		21614, // not a mobile number
		21612, // not reachable from the 'From' number
		21408, // region not enabled
		21610: // From/To pair blacklisted
		return true
	}
	return false
}

// Instrumented counts deliveries of the wrapped Sender by result.
type Instrumented struct {
	Sender
	counter *prometheus.CounterVec
}

// NewInstrumented wraps s. counter must have a single "result" label.
func NewInstrumented(s Sender, counter *prometheus.CounterVec) *Instrumented {
	return &Instrumented{Sender: s, counter: counter}
}

func (s *Instrumented) Send(ctx context.Context, phonenumber, text string) error {
	err := s.Sender.Send(ctx, phonenumber, text)
	switch {
	case err == nil:
		s.counter.WithLabelValues("sent").Inc()
	case errors.Is(err, ErrUndeliverable):
		s.counter.WithLabelValues("undeliverable").Inc()
	default:
		s.counter.WithLabelValues("failed").Inc()
	}
	return err
}
