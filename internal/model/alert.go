package model

import (
	"time"

	"github.com/google/uuid"
)

// AlertRecord is the audit row written for every fired alert.
type AlertRecord struct {
	ID              string    `json:"id"`
	PoolAddress     string    `json:"pool_address"`
	PoolName        string    `json:"pool_name"`
	TVLChangePct    float64   `json:"tvl_change_pct"`
	TargetChangePct float64   `json:"target_change_pct"`
	Severity        Severity  `json:"severity"`
	Message         string    `json:"message"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewAlertRecord builds an audit record from a detected change and the
// rendered message. Undefined deltas are stored as 0; the rendered
// message keeps the "n/a" marker.
func NewAlertRecord(change PoolChange, message string) AlertRecord {
	rec := AlertRecord{
		ID:          uuid.New().String(),
		PoolAddress: change.Curr.PoolAddress,
		PoolName:    change.Curr.PoolName,
		Severity:    change.MaxSeverity(),
		Message:     message,
		CreatedAt:   time.Now().UTC(),
	}
	if change.TVLDelta.Defined {
		rec.TVLChangePct = change.TVLDelta.Pct
	}
	if change.TargetDelta.Defined {
		rec.TargetChangePct = change.TargetDelta.Pct
	}
	return rec
}
