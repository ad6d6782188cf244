package models

// Risk levels shared by installations and process nodes.
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// Installation is a physical facility assessed for process-safety risk.
// Studies and nodes reference it by Name.
type Installation struct {
	ID        string  `gorm:"primaryKey;size:32" json:"id"`
	Name      string  `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Risk      string  `gorm:"size:16;default:MEDIUM" json:"risk"`
	Maturity  int     `json:"maturity"`
	Position  int     `gorm:"index" json:"-"` // order in the seed file
}
