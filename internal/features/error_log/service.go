package error_log

import (
	"context"
	"time"

	"bulk-webhook/pkg/utils"

	"go.uber.org/zap"
)

type ErrorLogService interface {
	Record(ctx context.Context, title string, cause error) error
	List(ctx context.Context, limit int64) ([]ErrorLog, error)
}

type ErrorLogServiceImpl struct {
	repo   ErrorLogRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewErrorLogService(repo ErrorLogRepository, logger *zap.Logger) ErrorLogService {
	return &ErrorLogServiceImpl{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Record persists a failure and mirrors it to the application log
func (s *ErrorLogServiceImpl) Record(ctx context.Context, title string, cause error) error {
	entry := &ErrorLog{
		Title:     title,
		User:      utils.UserFromContext(ctx),
		CreatedAt: s.now().UTC(),
	}
	if cause != nil {
		entry.Error = cause.Error()
	}

	s.logger.Error(title, zap.Error(cause), zap.String("user", entry.User))

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("Failed to persist error log", zap.String("title", title), zap.Error(err))
		return err
	}
	return nil
}

func (s *ErrorLogServiceImpl) List(ctx context.Context, limit int64) ([]ErrorLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.repo.List(ctx, limit)
}
