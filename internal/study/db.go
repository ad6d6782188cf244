package study

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zulandar/hazstudy/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore persists sessions as JSON snapshots in the study_records table.
type DBStore struct {
	db     *gorm.DB
	prefix string
	year   int
}

// NewDBStore creates a DBStore issuing ids with the given prefix and year.
func NewDBStore(db *gorm.DB, prefix string, year int) *DBStore {
	return &DBStore{db: db, prefix: prefix, year: year}
}

// NextID returns the id following the highest stored sequence.
func (s *DBStore) NextID() (string, error) {
	var maxSeq int
	if err := s.db.Model(&models.StudyRecord{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
		return "", fmt.Errorf("study: next id: %w", err)
	}
	return FormatID(s.prefix, s.year, maxSeq+1), nil
}

// Get loads a session by id.
func (s *DBStore) Get(id string) (*Session, error) {
	var rec models.StudyRecord
	if err := s.db.Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("study: get %s: %w", id, err)
	}
	return decode([]byte(rec.Payload))
}

// Save inserts or replaces the snapshot of a session.
func (s *DBStore) Save(sess *Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("study: save %s: %w", sess.ID, err)
	}
	rec := models.StudyRecord{
		ID:           sess.ID,
		Seq:          idSeq(sess.ID),
		State:        string(sess.State),
		Installation: sess.Meta.Installation,
		Title:        sess.Meta.Title,
		Payload:      string(payload),
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "installation", "title", "payload", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("study: save %s: %w", sess.ID, err)
	}
	return nil
}

// List returns every stored session ordered by sequence.
func (s *DBStore) List() ([]*Session, error) {
	var recs []models.StudyRecord
	if err := s.db.Order("seq, id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("study: list: %w", err)
	}
	out := make([]*Session, 0, len(recs))
	for _, rec := range recs {
		sess, err := decode([]byte(rec.Payload))
		if err != nil {
			return nil, fmt.Errorf("study: list %s: %w", rec.ID, err)
		}
		out = append(out, sess)
	}
	return out, nil
}
