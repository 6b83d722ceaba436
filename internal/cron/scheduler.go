package cron

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"gatebot/internal/config"
	"gatebot/internal/gate"
	"gatebot/internal/pkg/telegram"
	"gatebot/internal/repository"
)

// sessionSweeper is satisfied by the in-memory session store; the
// Redis-backed one expires keys on its own and needs no sweep.
type sessionSweeper interface {
	SweepExpired() int
}

// Scheduler manages background jobs.
type Scheduler struct {
	cron     *cron.Cron
	cfg      *config.Config
	channels *repository.ChannelRepository
	sessions gate.SessionStore
	botAPI   *telegram.BotAPI
	botID    int64
	logger   *zap.Logger
}

// New creates a new cron scheduler.
func New(
	cfg *config.Config,
	channels *repository.ChannelRepository,
	sessions gate.SessionStore,
	botAPI *telegram.BotAPI,
	botID int64,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		cfg:      cfg,
		channels: channels,
		sessions: sessions,
		botAPI:   botAPI,
		botID:    botID,
		logger:   logger,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	// Expired admin sessions - every 5 minutes
	s.cron.AddFunc("0 */5 * * * *", func() {
		s.logger.Debug("Running: session sweep")
		s.sweepSessions()
	})

	// Channel access audit - every hour
	s.cron.AddFunc("0 0 * * * *", func() {
		s.logger.Debug("Running: channel access audit")
		s.auditChannelAccess()
	})

	s.cron.Start()
	s.logger.Info("Cron scheduler started")
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) sweepSessions() {
	defer s.recoverFromPanic("sweepSessions")

	sweeper, ok := s.sessions.(sessionSweeper)
	if !ok {
		return
	}
	if removed := sweeper.SweepExpired(); removed > 0 {
		s.logger.Info("Swept expired admin sessions", zap.Int("removed", removed))
	}
}

// auditChannelAccess re-checks that the bot can still query membership
// in every gated channel and alerts the admins about the ones it lost.
// A channel silently dropped from the bot's reach would otherwise fail
// every user's subscription check until someone notices.
func (s *Scheduler) auditChannelAccess() {
	defer s.recoverFromPanic("auditChannelAccess")

	channels, err := s.channels.FindAll()
	if err != nil {
		s.logger.Error("Channel access audit: list failed", zap.Error(err))
		return
	}

	var lost []string
	for _, ch := range channels {
		if _, err := s.botAPI.GetChatMember(ch.ChannelID, s.botID); err != nil {
			s.logger.Warn("Channel access audit: check failed",
				zap.String("channel", ch.ChannelID),
				zap.Error(err),
			)
			lost = append(lost, ch.ChannelID)
		}
	}
	if len(lost) == 0 {
		return
	}

	text := fmt.Sprintf(
		"⚠️ Бот потерял доступ к каналам:\n%s\n\nПроверьте, что бот добавлен в эти каналы как администратор.",
		strings.Join(lost, "\n"),
	)
	for _, adminID := range s.cfg.Bot.AdminIDs {
		if err := s.botAPI.SendMessage(adminID, text); err != nil {
			s.logger.Error("Channel access audit: notify failed",
				zap.Int64("admin_id", adminID),
				zap.Error(err),
			)
		}
	}
}

func (s *Scheduler) recoverFromPanic(jobName string) {
	if r := recover(); r != nil {
		s.logger.Error("Cron job panicked", zap.String("job", jobName), zap.Any("error", r))
	}
}
