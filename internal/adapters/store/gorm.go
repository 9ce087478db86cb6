package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/voxroom/internal/core"
	"github.com/dkeye/voxroom/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// GormStore is the SQL message log and user directory.
type GormStore struct {
	db *gorm.DB
}

// Open connects with driver "sqlite" or "postgres" and migrates the schema.
func Open(driver, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(gormLogWriter{}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &MessageModel{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info().Str("module", "store").Str("driver", driver).Msg("database ready")
	return &GormStore{db: db}, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) UpsertUser(ctx context.Context, u domain.User) error {
	model := UserModel{ID: string(u.ID), Username: u.Username}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "updated_at"}),
	}).Create(&model).Error
}

func (s *GormStore) Append(ctx context.Context, req core.AppendRequest) (*domain.Message, error) {
	model := MessageModel{
		ID:              uuid.NewString(),
		RoomID:          string(req.RoomID),
		SenderID:        string(req.SenderID),
		Type:            string(req.Type),
		Content:         req.Content,
		ClientMessageID: req.ClientMessageID,
		CreatedAt:       req.CreatedAt,
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	if req.Voice != nil {
		model.VoiceDurationMs = req.Voice.DurationMs
		model.VoiceURL = req.Voice.URL
		model.VoiceData = req.Voice.Data
	}

	// Resolve the name first: once the row is written Append must not fail.
	names, err := s.usernames(ctx, []string{model.SenderID})
	if err != nil {
		log.Error().Err(err).Str("module", "store").Str("room", model.RoomID).Msg("failed to resolve sender")
		return nil, err
	}
	name := names[model.SenderID]
	if name == "" {
		name = req.SenderName
	}

	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		log.Error().Err(err).Str("module", "store").Str("room", model.RoomID).Msg("failed to append message")
		return nil, err
	}
	return model.ToDomain(name), nil
}

func (s *GormStore) History(ctx context.Context, q core.HistoryQuery) ([]domain.Message, error) {
	limit := clampLimit(q.Limit)
	query := s.db.WithContext(ctx).Model(&MessageModel{}).Where("room_id = ?", string(q.RoomID))
	if q.Type != "" {
		query = query.Where("type = ?", string(q.Type))
	}
	var models []MessageModel
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&models).Error; err != nil {
		log.Error().Err(err).Str("module", "store").Str("room", string(q.RoomID)).Msg("failed to load history")
		return nil, err
	}

	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.SenderID)
	}
	names, err := s.usernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Message, len(models))
	for i, m := range models {
		// newest first from the query, oldest first in the result
		out[len(models)-1-i] = *m.ToDomain(names[m.SenderID])
	}
	return out, nil
}

func (s *GormStore) usernames(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []UserModel
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u.Username
	}
	return out, nil
}

func clampLimit(n int) int {
	if n <= 0 {
		return DefaultHistoryLimit
	}
	return min(n, MaxHistoryLimit)
}

type gormLogWriter struct{}

func (gormLogWriter) Printf(format string, args ...any) {
	log.Warn().Str("module", "store").Msgf(format, args...)
}
