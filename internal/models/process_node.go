package models

// Kinds of entity a node reference can point at.
const (
	RefDiagnostic  = "diagnostic"
	RefAction      = "action"
	RefRequirement = "requirement"
	RefUnknown     = "unknown"
)

// ProcessNode is a bounded portion of a process analysed as one unit.
type ProcessNode struct {
	ID           string    `gorm:"primaryKey;size:32" json:"id"`
	Kind         string    `gorm:"size:64" json:"kind"`
	Installation string    `gorm:"size:128;index" json:"installation"`
	Unit         string    `gorm:"size:128" json:"unit"`
	Equipment    string    `gorm:"size:64" json:"equipment"`
	Description  string    `gorm:"type:text" json:"description"`
	Risk         string    `gorm:"size:16" json:"risk"`
	Pillar       string    `gorm:"size:64" json:"pillar"`
	Refs         []NodeRef `gorm:"foreignKey:NodeID" json:"refs,omitempty"`
	Position     int       `gorm:"index" json:"-"`
}

// NodeRef points from a node to a diagnostic item, action or regulatory
// requirement. References are never checked against their targets.
type NodeRef struct {
	NodeID   string `gorm:"primaryKey;size:32" json:"-"`
	Position int    `gorm:"primaryKey" json:"-"`
	Kind     string `gorm:"size:16" json:"kind"`
	RefID    string `gorm:"size:64" json:"id"`
}
