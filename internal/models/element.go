package models

import (
	pkgmodels "github.com/ternarybob/runcanvas/pkg/models"
)

// ElementKind identifies which hierarchy level an element projects.
type ElementKind string

const (
	KindRun        ElementKind = "run"
	KindAttempt    ElementKind = "attempt"
	KindJob        ElementKind = "job"
	KindStep       ElementKind = "step"
	KindMicroprint ElementKind = "microprint"
)

// Layer indices, increasing with hierarchy depth.
const (
	LayerRuns       = 1
	LayerAttempts   = 2
	LayerJobs       = 3
	LayerSteps      = 4
	LayerMicroprint = 5
)

// Element is the visual projection of one record, or of a step's log, onto
// the canvas. Record is the identity used for parent lookup, so records that
// share a RecordID still resolve to their own element. Record is nil for
// microprint elements, which carry Microprint instead. ID is unique within a
// layer.
type Element struct {
	ID         string           `json:"id"`
	Kind       ElementKind      `json:"kind"`
	Rect       Rect             `json:"rect"`
	Color      Color            `json:"color"`
	Layer      int              `json:"layer"`
	RecordID   string           `json:"record_id"`
	ParentID   string           `json:"parent_id,omitempty"`
	Record     pkgmodels.Record `json:"-"`
	Microprint *MicroprintData  `json:"microprint,omitempty"`
}

// Connection is a directed edge from a parent's right-middle anchor to a
// child's left-middle anchor. Layer indices are stored so pruning never
// depends on comparing coordinates.
type Connection struct {
	From      Point  `json:"from"`
	To        Point  `json:"to"`
	FromID    string `json:"from_id"`
	ToID      string `json:"to_id"`
	FromLayer int    `json:"from_layer"`
	ToLayer   int    `json:"to_layer"`
}
