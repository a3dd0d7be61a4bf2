package sharing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sharingd/sharingd"
)

var _ sharingd.SharingService = (*Logger)(nil)

// Logger is a logging service middleware for the Sharing Service.
type Logger struct {
	logger         *zap.Logger
	sharingService sharingd.SharingService
}

// NewLogger returns a logging service middleware for the Sharing Service.
func NewLogger(log *zap.Logger, s sharingd.SharingService) *Logger {
	return &Logger{
		logger:         log,
		sharingService: s,
	}
}

func (l *Logger) ListShares(ctx context.Context, opts sharingd.ListOptions) (shares []*sharingd.Share, next string, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			l.logger.Debug("failed to list shares", zap.Error(err), dur)
			return
		}
		l.logger.Debug("shares list", zap.Int("count", len(shares)), dur)
	}(time.Now())
	return l.sharingService.ListShares(ctx, opts)
}

func (l *Logger) GetShare(ctx context.Context, name string) (share *sharingd.Share, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to get share %q", name)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("share get", dur)
	}(time.Now())
	return l.sharingService.GetShare(ctx, name)
}

func (l *Logger) ListSchemas(ctx context.Context, share string, opts sharingd.ListOptions) (schemas []*sharingd.SharingSchema, next string, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to list schemas in share %q", share)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("schemas list", zap.Int("count", len(schemas)), dur)
	}(time.Now())
	return l.sharingService.ListSchemas(ctx, share, opts)
}

func (l *Logger) ListSchemaTables(ctx context.Context, share, schema string, opts sharingd.ListOptions) (tables []*sharingd.SharingTable, next string, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to list tables in schema %q of share %q", schema, share)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("schema tables list", zap.Int("count", len(tables)), dur)
	}(time.Now())
	return l.sharingService.ListSchemaTables(ctx, share, schema, opts)
}

func (l *Logger) ListShareTables(ctx context.Context, share string, opts sharingd.ListOptions) (tables []*sharingd.SharingTable, next string, err error) {
	defer func(start time.Time) {
		dur := zap.Duration("took", time.Since(start))
		if err != nil {
			msg := fmt.Sprintf("failed to list tables in share %q", share)
			l.logger.Debug(msg, zap.Error(err), dur)
			return
		}
		l.logger.Debug("share tables list", zap.Int("count", len(tables)), dur)
	}(time.Now())
	return l.sharingService.ListShareTables(ctx, share, opts)
}
