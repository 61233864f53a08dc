package persistence

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/retailvoice/callbridge/internal/domain/entity"
	"github.com/retailvoice/callbridge/internal/domain/repository"
	"github.com/retailvoice/callbridge/internal/infrastructure/persistence/models"
)

// GormTranscriptSink is C9: a best-effort, GORM-backed transcript store.
// Every write method except StartCall swallows its own error (after
// logging it) so a storage hiccup never interrupts a live call; StartCall
// logs and also returns it.
type GormTranscriptSink struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ repository.TranscriptSink = (*GormTranscriptSink)(nil)

func NewGormTranscriptSink(db *gorm.DB, logger *zap.Logger) *GormTranscriptSink {
	return &GormTranscriptSink{db: db, logger: logger.With(zap.String("component", "transcript_sink"))}
}

func (s *GormTranscriptSink) StartCall(ctx context.Context, in repository.StartCallInput) (repository.TranscriptRef, error) {
	record := models.CallModel{
		ID:           in.CallID,
		CallerPhone:  in.CallerPhone,
		CustomerName: in.CustomerName,
		Identified:   in.Identified,
		StartedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logger.Warn("start call persist failed", zap.String("call_id", in.CallID), zap.Error(err))
		return repository.TranscriptRef(in.CallID), err
	}
	return repository.TranscriptRef(in.CallID), nil
}

func (s *GormTranscriptSink) AppendMessage(ctx context.Context, ref repository.TranscriptRef, speaker entity.Speaker, content string) {
	err := s.db.WithContext(ctx).Create(&models.MessageModel{
		CallID:  string(ref),
		Speaker: string(speaker),
		Content: content,
	}).Error
	if err != nil {
		s.logger.Warn("append message failed", zap.String("call_id", string(ref)), zap.Error(err))
	}
}

func (s *GormTranscriptSink) AppendToolCall(ctx context.Context, ref repository.TranscriptRef, name, argsJSON, resultJSON string) {
	err := s.db.WithContext(ctx).Create(&models.ToolCallModel{
		CallID:     string(ref),
		ToolName:   name,
		ArgsJSON:   argsJSON,
		ResultJSON: resultJSON,
	}).Error
	if err != nil {
		s.logger.Warn("append tool call failed", zap.String("call_id", string(ref)), zap.Error(err))
	}
}

func (s *GormTranscriptSink) EndCall(ctx context.Context, ref repository.TranscriptRef, durationSeconds float64) {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Model(&models.CallModel{}).
		Where("id = ?", string(ref)).
		Updates(map[string]any{"ended_at": &now, "duration_seconds": durationSeconds}).Error
	if err != nil {
		s.logger.Warn("end call persist failed", zap.String("call_id", string(ref)), zap.Error(err))
	}
}

func (s *GormTranscriptSink) Messages(ctx context.Context, ref repository.TranscriptRef) ([]entity.TranscriptEntry, error) {
	var rows []models.MessageModel
	if err := s.db.WithContext(ctx).Where("call_id = ?", string(ref)).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]entity.TranscriptEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, entity.TranscriptEntry{
			CallID:  r.CallID,
			Speaker: entity.Speaker(r.Speaker),
			Text:    r.Content,
			When:    r.CreatedAt,
		})
	}
	return entries, nil
}
