package audit

import (
	"context"
	"sync"
	"time"

	"admindash/admin-service/internal/app/admin/entity"
	"admindash/pkg/logger"
	"admindash/pkg/metrics"
)

const defaultSinkTimeout = 5 * time.Second

// Sink постоянное хранилище записей аудита
type Sink interface {
	Write(ctx context.Context, record entity.AuditRecord) error
}

// Recorder фиксирует доступ к секретам локалей
// Запись аудита никогда не блокирует и не ломает раскрытие секретов
type Recorder struct {
	sink        Sink
	logRecords  bool
	sinkTimeout time.Duration
	wg          sync.WaitGroup
}

// Option настраивает Recorder
type Option func(*Recorder)

// WithSink подключает постоянное хранилище (MongoDB)
func WithSink(sink Sink) Option {
	return func(r *Recorder) {
		r.sink = sink
	}
}

// WithSinkTimeout ограничивает время записи в хранилище
func WithSinkTimeout(timeout time.Duration) Option {
	return func(r *Recorder) {
		r.sinkTimeout = timeout
	}
}

// NewRecorder создает Recorder
// logRecords включает дублирование записей в лог (вне production)
func NewRecorder(logRecords bool, opts ...Option) *Recorder {
	r := &Recorder{
		logRecords:  logRecords,
		sinkTimeout: defaultSinkTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record пишет запись в лог и асинхронно отправляет ее в хранилище
func (r *Recorder) Record(ctx context.Context, record entity.AuditRecord) {
	metrics.SecretReveals.Inc()

	if r.logRecords {
		logger.Info().
			Str("action", record.Action).
			Str("admin_user", record.AdminUser).
			Str("locale_id", record.LocaleID).
			Str("locale_code", record.LocaleCode).
			Str("user_agent", record.UserAgent).
			Str("ip", record.IP).
			Time("timestamp", record.Timestamp).
			Msg("[AUDIT] Secret access")
	}

	if r.sink == nil {
		return
	}

	// Запрос может завершиться раньше записи: отвязываемся от его отмены
	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.sinkTimeout)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		if err := r.sink.Write(sinkCtx, record); err != nil {
			metrics.AuditSinkErrors.Inc()
			logger.Warn().
				Err(err).
				Str("locale_id", record.LocaleID).
				Msg("Failed to persist audit record")
		}
	}()
}

// Wait дожидается незавершенных записей (graceful shutdown)
func (r *Recorder) Wait() {
	r.wg.Wait()
}
