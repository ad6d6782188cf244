package models

// Coverage levels of a historical study.
const (
	CoverageLow    = "LOW"
	CoverageMedium = "MEDIUM"
	CoverageHigh   = "HIGH"
)

// Historical study statuses.
const (
	StudyCurrent  = "CURRENT"
	StudyObsolete = "OBSOLETE"
)

// HistoricalStudy is a hazard study already performed at an installation.
type HistoricalStudy struct {
	ID              string `gorm:"primaryKey;size:32" json:"id"`
	Type            string `gorm:"size:32;index" json:"type"` // HAZOP, LOPA, WHAT-IF, QRA, ...
	Year            int    `json:"year"`
	Installation    string `gorm:"size:128;index" json:"installation"`
	Unit            string `gorm:"size:128" json:"unit"`
	Equipment       string `gorm:"size:64" json:"equipment,omitempty"`
	Coverage        string `gorm:"size:16" json:"coverage"`
	Status          string `gorm:"size:16;default:CURRENT" json:"status"`
	SuggestedAction string `gorm:"type:text" json:"suggested_action"`
	Comment         string `gorm:"type:text" json:"comment"`
	Position        int    `gorm:"index" json:"-"`
}
