package catalog

import (
	"fmt"

	"github.com/zulandar/hazstudy/internal/models"
	"gorm.io/gorm"
)

// DBStore is a Store backed by the catalog tables.
type DBStore struct {
	db *gorm.DB
}

// NewDBStore wraps a GORM connection.
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

// ListInstallations returns every installation in seed order.
func (s *DBStore) ListInstallations() ([]models.Installation, error) {
	var out []models.Installation
	if err := s.db.Order("position ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("catalog: list installations: %w", err)
	}
	if out == nil {
		out = []models.Installation{}
	}
	return out, nil
}

// Studies returns the historical studies of an installation in seed order.
func (s *DBStore) Studies(installation string) ([]models.HistoricalStudy, error) {
	q := s.db.Model(&models.HistoricalStudy{})
	if !IsAll(installation) {
		q = q.Where("installation = ?", installation)
	}
	var out []models.HistoricalStudy
	if err := q.Order("position ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("catalog: studies for %q: %w", installation, err)
	}
	if out == nil {
		out = []models.HistoricalStudy{}
	}
	return out, nil
}

// Nodes returns the process nodes of an installation in seed order, with
// their references preloaded.
func (s *DBStore) Nodes(installation string) ([]models.ProcessNode, error) {
	q := s.db.Model(&models.ProcessNode{}).Preload("Refs", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
	if !IsAll(installation) {
		q = q.Where("installation = ?", installation)
	}
	var out []models.ProcessNode
	if err := q.Order("position ASC, id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("catalog: nodes for %q: %w", installation, err)
	}
	if out == nil {
		out = []models.ProcessNode{}
	}
	return out, nil
}
