package core

import "context"

// SMSService is any service that can deliver a text message to a phone number.
type SMSService interface {
	Send(ctx context.Context, to, message string) error
}
