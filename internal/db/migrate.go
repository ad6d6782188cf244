package db

import (
	"fmt"

	"github.com/zulandar/hazstudy/internal/catalog"
	"github.com/zulandar/hazstudy/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Installation{},
		&models.HistoricalStudy{},
		&models.ProcessNode{},
		&models.NodeRef{},
		&models.StudyRecord{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedCounts reports how many rows SeedCatalog upserted.
type SeedCounts struct {
	Installations int
	Studies       int
	Nodes         int
}

// SeedCatalog upserts the catalog rows from a seed. A node's references are
// replaced wholesale.
func SeedCatalog(db *gorm.DB, seed *catalog.Seed) (SeedCounts, error) {
	var counts SeedCounts
	if seed == nil {
		return counts, nil
	}
	installations, studies, nodes := seed.Models()

	err := db.Transaction(func(tx *gorm.DB) error {
		for i := range installations {
			in := installations[i]
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "latitude", "longitude", "risk", "maturity", "position"}),
			}).Create(&in).Error; err != nil {
				return fmt.Errorf("seed installation %q: %w", in.ID, err)
			}
			counts.Installations++
		}

		for i := range studies {
			st := studies[i]
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"type", "year", "installation", "unit", "equipment",
					"coverage", "status", "suggested_action", "comment", "position",
				}),
			}).Create(&st).Error; err != nil {
				return fmt.Errorf("seed study %q: %w", st.ID, err)
			}
			counts.Studies++
		}

		for i := range nodes {
			n := nodes[i]
			refs := n.Refs
			n.Refs = nil
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"kind", "installation", "unit", "equipment", "description", "risk", "pillar", "position"}),
			}).Create(&n).Error; err != nil {
				return fmt.Errorf("seed node %q: %w", n.ID, err)
			}
			if err := tx.Where("node_id = ?", n.ID).Delete(&models.NodeRef{}).Error; err != nil {
				return fmt.Errorf("clear refs of node %q: %w", n.ID, err)
			}
			if len(refs) > 0 {
				if err := tx.Create(&refs).Error; err != nil {
					return fmt.Errorf("seed refs of node %q: %w", n.ID, err)
				}
			}
			counts.Nodes++
		}
		return nil
	})
	if err != nil {
		return SeedCounts{}, fmt.Errorf("db: seed catalog: %w", err)
	}
	return counts, nil
}
