package smssvc

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aarth-Web/ss-backend/core"
	logsvc "github.com/Aarth-Web/ss-backend/services/logger"
)

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already E.164", in: "+911234567890", want: "+911234567890"},
		{name: "bare 10 digits get the Indian code", in: "1234567890", want: "+911234567890"},
		{name: "other lengths just get a plus", in: "441234567890", want: "+441234567890"},
		{name: "surrounding whitespace", in: " +911234567890 ", want: "+911234567890"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeNumber(tt.in))
		})
	}
}

func TestTwilioService_unconfigured(t *testing.T) {
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))
	svc := NewTwilioService(&core.Config{}, logger)

	// no credentials: messages are logged, never rejected
	assert.NoError(t, svc.Send(context.Background(), "1234567890", "hello"))
}
