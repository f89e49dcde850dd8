package monitoring

import (
	"time"

	"github.com/lmarban/tasklane-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// TokenPurger deletes expired refresh tokens on a cron schedule.
type TokenPurger struct {
	tokens   services.TokenServiceProvider
	schedule cron.Schedule
	ticker   *time.Ticker
	done     chan bool
}

// NewTokenPurger creates a purger from a standard cron expression.
func NewTokenPurger(tokens services.TokenServiceProvider, cronExpr string) (*TokenPurger, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, err
	}
	return &TokenPurger{
		tokens:   tokens,
		schedule: schedule,
		// Buffered so Stop never blocks, whatever state Run is in.
		done: make(chan bool, 1),
	}, nil
}

// Run starts the purger's ticking loop.
func (p *TokenPurger) Run() {
	log.Info().Msg("Starting refresh token purger...")
	p.ticker = time.NewTicker(1 * time.Minute)
	defer p.ticker.Stop()

	// Run once immediately on start
	p.purge()
	next := p.schedule.Next(time.Now())

	for {
		select {
		case <-p.done:
			log.Info().Msg("Stopping refresh token purger.")
			return
		case now := <-p.ticker.C:
			if now.After(next) {
				p.purge()
				next = p.schedule.Next(now)
			}
		}
	}
}

// Stop halts the purger.
func (p *TokenPurger) Stop() {
	p.done <- true
}

func (p *TokenPurger) purge() {
	purged, err := p.tokens.PurgeExpired()
	if err != nil {
		log.Error().Err(err).Msg("TokenPurger: Failed to purge expired refresh tokens")
		return
	}
	if purged > 0 {
		log.Info().Int64("purged", purged).Msg("TokenPurger: Removed expired refresh tokens")
	}
}
