package notify

import (
	"context"

	"golang.org/x/time/rate"

	kit "regwatch/internal/transport"
	logx "regwatch/pkg/logx"
)

type Config struct {
	Target kit.ChatTarget
	// RatePerSec caps outbound sends; Telegram throttles chatty bots.
	// Defaults to 1.
	RatePerSec int
}

// Service delivers formatted messages to the configured chat.
//
// Delivery is best-effort by contract: a failed send is logged and swallowed,
// never propagated. There is no notification-of-notification-failure.
type Service struct {
	adapter kit.Adapter
	target  kit.ChatTarget
	limiter *rate.Limiter
	log     logx.Logger
}

func New(cfg Config, adapter kit.Adapter, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	return &Service{
		adapter: adapter,
		target:  cfg.Target,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		log:     log,
	}
}

// Notify sends text as a Telegram HTML message.
func (s *Service) Notify(ctx context.Context, text string) {
	if s.adapter == nil || text == "" {
		return
	}
	if err := s.limiter.Wait(ctx); err != nil {
		s.log.Warn("notification skipped", logx.Err(err))
		return
	}

	_, err := s.adapter.SendText(ctx, s.target, text, &kit.SendOptions{
		ParseMode:      "HTML",
		DisablePreview: true,
	})
	if err != nil {
		s.log.Error("notification delivery failed", logx.Err(err), logx.Int64("chat_id", s.target.ChatID))
	}
}
