package smssvc

import (
	"context"
	"sync"

	"github.com/Aarth-Web/ss-backend/core"
)

// SentMessage is a message captured by the console service.
type SentMessage struct {
	To      string
	Message string
}

// SentMessages records every message the console service "sent"; tests
// inspect it.
var (
	SentMessages = make([]SentMessage, 0)
	mu           sync.Mutex
)

type consoleService struct {
	logger core.Logger
}

var _ core.SMSService = (*consoleService)(nil)

func NewConsoleService(logger core.Logger) core.SMSService {
	return &consoleService{logger: logger}
}

func (svc consoleService) Send(_ context.Context, to, message string) error {
	mu.Lock()
	SentMessages = append(SentMessages, SentMessage{To: to, Message: message})
	mu.Unlock()
	svc.logger.Info("[SMS] To: " + to + ", Message: " + message)
	return nil
}

// ClearSentMessages resets the captured messages between tests.
func ClearSentMessages() {
	mu.Lock()
	SentMessages = SentMessages[:0]
	mu.Unlock()
}

// Messages returns a copy of the captured messages.
func Messages() []SentMessage {
	mu.Lock()
	defer mu.Unlock()
	out := make([]SentMessage, len(SentMessages))
	copy(out, SentMessages)
	return out
}
