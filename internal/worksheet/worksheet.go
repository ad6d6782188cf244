// Package worksheet builds and curates the prefabricated HAZOP worksheet.
package worksheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zulandar/hazstudy/internal/models"
)

// Row is one deviation line of a node worksheet.
type Row struct {
	ID             string `json:"id"`
	NodeID         string `json:"node_id"`
	NodeLabel      string `json:"node_label"`
	Deviation      string `json:"deviation"`
	Cause          string `json:"cause"`
	Consequence    string `json:"consequence"`
	Safeguard      string `json:"safeguard"`
	Recommendation string `json:"recommendation"`
}

// NodeSheet holds the rows and the node-level recommendation of one node.
type NodeSheet struct {
	NodeID         string `json:"node_id"`
	Recommendation string `json:"recommendation"`
	Rows           []Row  `json:"rows"`
}

// Worksheet is the per-node worksheet of a study, in generation order.
type Worksheet struct {
	Sheets []NodeSheet `json:"sheets"`
}

// RowPatch carries the fields to overwrite on a row. Nil fields are left
// untouched.
type RowPatch struct {
	NodeLabel      *string `json:"node_label,omitempty"`
	Deviation      *string `json:"deviation,omitempty"`
	Cause          *string `json:"cause,omitempty"`
	Consequence    *string `json:"consequence,omitempty"`
	Safeguard      *string `json:"safeguard,omitempty"`
	Recommendation *string `json:"recommendation,omitempty"`
}

// Counts summarises how far curation has progressed.
type Counts struct {
	Total int `json:"total"`
	Empty int `json:"empty"`
}

// seedRows are the template rows every node starts with.
var seedRows = []Row{
	{
		Deviation: "High pressure",
		Cause:     "Transmitter failure / downstream blockage (editable)",
		Safeguard: "High-pressure alarm + PSV + procedure (editable)",
	},
	{
		Deviation: "Loss of containment",
		Cause:     "Corrosion / flanges / poor maintenance (editable)",
		Safeguard: "Inspection + detection + containment (editable)",
	},
}

// RowID formats the identifier of the seq-th row of a node.
func RowID(nodeID string, seq int) string {
	return fmt.Sprintf("%s-R-%03d", nodeID, seq)
}

// NodeLabel is the "unit – equipment" caption shown on each row.
func NodeLabel(n models.ProcessNode) string {
	return strings.Trim(n.Unit+" – "+n.Equipment, " –")
}

// NodeRecommendation is the sentence seeded as the node-level recommendation.
func NodeRecommendation(methodology string) string {
	return fmt.Sprintf("Focus the %s on this node: validate deviations, safeguards and actions. "+
		"Connect with prior studies and the action plan.", methodology)
}

// Generate builds a worksheet with two seeded rows per node. The output only
// depends on the nodes and the methodology.
func Generate(nodes []models.ProcessNode, methodology string) *Worksheet {
	ws := &Worksheet{Sheets: make([]NodeSheet, 0, len(nodes))}
	for _, n := range nodes {
		sheet := NodeSheet{
			NodeID:         n.ID,
			Recommendation: NodeRecommendation(methodology),
			Rows:           make([]Row, 0, len(seedRows)),
		}
		for i, tmpl := range seedRows {
			row := tmpl
			row.ID = RowID(n.ID, i+1)
			row.NodeID = n.ID
			row.NodeLabel = NodeLabel(n)
			row.Consequence = n.Description
			sheet.Rows = append(sheet.Rows, row)
		}
		ws.Sheets = append(ws.Sheets, sheet)
	}
	return ws
}

// Sheet returns the sheet of a node, or nil.
func (w *Worksheet) Sheet(nodeID string) *NodeSheet {
	if w == nil {
		return nil
	}
	for i := range w.Sheets {
		if w.Sheets[i].NodeID == nodeID {
			return &w.Sheets[i]
		}
	}
	return nil
}

// NodeIDs lists the worksheet nodes in order.
func (w *Worksheet) NodeIDs() []string {
	if w == nil {
		return nil
	}
	ids := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		ids[i] = s.NodeID
	}
	return ids
}

// Rows flattens the worksheet into a single consolidated list.
func (w *Worksheet) Rows() []Row {
	out := []Row{}
	if w == nil {
		return out
	}
	for _, s := range w.Sheets {
		out = append(out, s.Rows...)
	}
	return out
}

// Row looks up a row by id.
func (w *Worksheet) Row(rowID string) (Row, bool) {
	if si, ri := w.find(rowID); si >= 0 {
		return w.Sheets[si].Rows[ri], true
	}
	return Row{}, false
}

// Counts returns the total rows and the rows still without a recommendation.
func (w *Worksheet) Counts() Counts {
	var c Counts
	for _, r := range w.Rows() {
		c.Total++
		if strings.TrimSpace(r.Recommendation) == "" {
			c.Empty++
		}
	}
	return c
}

// Recommended returns the rows carrying a non-empty recommendation.
func (w *Worksheet) Recommended() []Row {
	var out []Row
	for _, r := range w.Rows() {
		if strings.TrimSpace(r.Recommendation) != "" {
			out = append(out, r)
		}
	}
	return out
}

// AddRow appends a blank row to a node. The new id takes the next sequence
// after the highest one in use, so ids are never reused after a removal.
func (w *Worksheet) AddRow(nodeID string) (Row, bool) {
	sheet := w.Sheet(nodeID)
	if sheet == nil {
		return Row{}, false
	}
	next := 1
	prefix := nodeID + "-R-"
	for _, r := range sheet.Rows {
		if !strings.HasPrefix(r.ID, prefix) {
			continue
		}
		if seq, err := strconv.Atoi(strings.TrimPrefix(r.ID, prefix)); err == nil && seq >= next {
			next = seq + 1
		}
	}
	row := Row{ID: RowID(nodeID, next), NodeID: nodeID}
	sheet.Rows = append(sheet.Rows, row)
	return row, true
}

// RemoveRow deletes a row. It reports whether the row existed.
func (w *Worksheet) RemoveRow(rowID string) bool {
	si, ri := w.find(rowID)
	if si < 0 {
		return false
	}
	rows := w.Sheets[si].Rows
	w.Sheets[si].Rows = append(rows[:ri:ri], rows[ri+1:]...)
	return true
}

// UpdateRow applies a patch to a row and returns the updated row.
func (w *Worksheet) UpdateRow(rowID string, p RowPatch) (Row, bool) {
	si, ri := w.find(rowID)
	if si < 0 {
		return Row{}, false
	}
	row := &w.Sheets[si].Rows[ri]
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&row.NodeLabel, p.NodeLabel)
	set(&row.Deviation, p.Deviation)
	set(&row.Cause, p.Cause)
	set(&row.Consequence, p.Consequence)
	set(&row.Safeguard, p.Safeguard)
	set(&row.Recommendation, p.Recommendation)
	return *row, true
}

// SetNodeRecommendation overwrites the node-level recommendation.
func (w *Worksheet) SetNodeRecommendation(nodeID, text string) bool {
	sheet := w.Sheet(nodeID)
	if sheet == nil {
		return false
	}
	sheet.Recommendation = text
	return true
}

// Empty reports whether the worksheet has no rows at all.
func (w *Worksheet) Empty() bool {
	return len(w.Rows()) == 0
}

func (w *Worksheet) find(rowID string) (int, int) {
	if w == nil {
		return -1, -1
	}
	for si, s := range w.Sheets {
		for ri, r := range s.Rows {
			if r.ID == rowID {
				return si, ri
			}
		}
	}
	return -1, -1
}
