package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"school/internal/usecase"
)

const (
	sweepInterval    = time.Hour
	reminderInterval = 24 * time.Hour
)

// Sweeperは期限処理の定期実行。
// sweepは1時間ごと、リマインダーは24時間ごと（同じ暦日判定なので日1回で十分）
type Sweeper struct {
	entitlementUC *usecase.EntitlementUsecase
	tokenUC       *usecase.TokenUsecase
	clock         usecase.Clock
	logger        zerolog.Logger
}

func NewSweeper(entitlementUC *usecase.EntitlementUsecase, tokenUC *usecase.TokenUsecase, clock usecase.Clock, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		entitlementUC: entitlementUC,
		tokenUC:       tokenUC,
		clock:         clock,
		logger:        logger,
	}
}

// Runはctxが閉じるまでブロックする。goroutineで呼ぶこと
func (s *Sweeper) Run(ctx context.Context) {
	sweepTicker := time.NewTicker(sweepInterval)
	defer sweepTicker.Stop()

	reminderTicker := time.NewTicker(reminderInterval)
	defer reminderTicker.Stop()

	//起動直後に1回流しておく（再起動で溜まった分を拾う）
	s.sweep(ctx)
	s.remind(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sweeper stopped")
			return
		case <-sweepTicker.C:
			s.sweep(ctx)
		case <-reminderTicker.C:
			s.remind(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := s.clock.Now()

	if _, err := s.entitlementUC.SweepExpirations(ctx, now); err != nil {
		s.logger.Error().Err(err).Msg("expiration sweep failed")
	}
	if _, err := s.tokenUC.PurgeExpired(ctx, now); err != nil {
		s.logger.Error().Err(err).Msg("refresh token purge failed")
	}
}

func (s *Sweeper) remind(ctx context.Context) {
	if _, err := s.entitlementUC.NotifyUpcomingExpirations(ctx, s.clock.Now()); err != nil {
		s.logger.Error().Err(err).Msg("expiration reminders failed")
	}
}
