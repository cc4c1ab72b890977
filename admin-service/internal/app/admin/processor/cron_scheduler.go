package processor

import (
	"context"

	"admindash/pkg/logger"
	"admindash/pkg/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CategoryTreeRefresher перестраивает кеш публичного дерева категорий
type CategoryTreeRefresher interface {
	RefreshPublicTree(ctx context.Context) error
}

// CronScheduler периодически прогревает кеш публичного дерева,
// чтобы GET /categories не попадал в PostgreSQL после истечения TTL
type CronScheduler struct {
	cron      *cron.Cron
	refresher CategoryTreeRefresher
}

func NewCronScheduler(refresher CategoryTreeRefresher) *CronScheduler {
	c := cron.New(cron.WithLogger(cronLogger{log: logger.Component("cron")}))

	return &CronScheduler{
		cron:      c,
		refresher: refresher,
	}
}

// Start регистрирует задачу и сразу выполняет первое обновление
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("Starting cron scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		logger.Debug().Msg("Cron job triggered: refreshing public category tree")
		s.refresh(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Msg("Cron scheduler started")

	s.refresh(ctx)

	return nil
}

func (s *CronScheduler) refresh(ctx context.Context) {
	if err := s.refresher.RefreshPublicTree(ctx); err != nil {
		metrics.CategoryTreeRefreshes.WithLabelValues("failed").Inc()
		logger.Warn().Err(err).Msg("Failed to refresh public category tree")
		return
	}

	metrics.CategoryTreeRefreshes.WithLabelValues("success").Inc()
	logger.Debug().Msg("Public category tree refreshed")
}

// Stop дожидается завершения выполняющихся задач
func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

// cronLogger направляет внутренние сообщения cron в zerolog
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
