// Package history keeps a local SQLite log of finished match tasks.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/himanishpuri/spectra/pkg/spectra/model"
	"github.com/himanishpuri/spectra/pkg/utils"
)

const DefaultDBFile = "history.sqlite3"

// DefaultLimit bounds List when the caller passes zero.
const DefaultLimit = 20

var (
	ErrNotFound = errors.New("not found in history")
	errStoreNil = errors.New("history store is nil")
)

// TaskRecord is one finished match task.
type TaskRecord struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	TaskID     string `gorm:"index:idx_task_id"`
	Status     string
	Message    string
	Candidates string // JSON array in backend order
	TopTitle   string
	TopArtist  string
	Confidence float64
	Polls      int
	AudioBytes int
	DurationMs int64
	CreatedAt  time.Time `gorm:"index:idx_created_at"`
}

// Results decodes the stored candidate list.
func (r TaskRecord) Results() ([]model.MatchCandidate, error) {
	if r.Candidates == "" {
		return nil, nil
	}
	var out []model.MatchCandidate
	if err := json.Unmarshal([]byte(r.Candidates), &out); err != nil {
		return nil, fmt.Errorf("decoding candidates of %s: %w", r.TaskID, err)
	}
	return out, nil
}

type Store struct {
	DB  *gorm.DB
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultDBFile
	}
	if err := utils.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&TaskRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Store{DB: db, db: sqlDB, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a terminal task together with facts about the uploaded audio.
func (s *Store) Record(ctx context.Context, task model.MatchTask, rec model.EncodedRecording) error {
	if s == nil || s.DB == nil {
		return errStoreNil
	}
	if task.ID == "" {
		return errors.New("history: task has no id")
	}

	candidates := task.Candidates
	if candidates == nil {
		candidates = []model.MatchCandidate{}
	}
	encoded, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("encoding candidates: %w", err)
	}

	row := TaskRecord{
		ID:         uuid.NewString(),
		TaskID:     task.ID,
		Status:     string(task.Status),
		Message:    task.Message,
		Candidates: string(encoded),
		Polls:      task.Polls,
		AudioBytes: rec.Len(),
		DurationMs: rec.Duration.Milliseconds(),
		CreatedAt:  s.now(),
	}
	if len(task.Candidates) > 0 {
		top := task.Candidates[0]
		row.TopTitle = top.DisplayTitle()
		row.TopArtist = top.Artist
		row.Confidence = top.Confidence
	}

	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("recording task %s: %w", task.ID, err)
	}
	return nil
}

// List returns the most recent records first.
func (s *Store) List(ctx context.Context, limit int) ([]TaskRecord, error) {
	if s == nil || s.DB == nil {
		return nil, errStoreNil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	var rows []TaskRecord
	err := s.DB.WithContext(ctx).
		Order("created_at DESC").
		Order("rowid DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return rows, nil
}

// Get finds the latest record for a backend task ID.
func (s *Store) Get(ctx context.Context, taskID string) (*TaskRecord, error) {
	if s == nil || s.DB == nil {
		return nil, errStoreNil
	}
	var row TaskRecord
	err := s.DB.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching task %s: %w", taskID, err)
	}
	return &row, nil
}

// Count reports how many tasks are stored.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errStoreNil
	}
	var n int64
	if err := s.DB.WithContext(ctx).Model(&TaskRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting history: %w", err)
	}
	return n, nil
}
