package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PlanKind string

const (
	PlanKindTemplate PlanKind = "template"
	PlanKindLive     PlanKind = "live"
	PlanKindArchived PlanKind = "archived"
)

const (
	MinDurationDays = 1
	MaxDurationDays = 365
)

// Plan is a nutrition program definition. A template has no calendar anchor
// (each follower runs on their own clock), a live plan is a global cohort
// anchored to LiveStartDate, and an archived plan is an immutable snapshot
// copied from a finished live plan.
type Plan struct {
	BaseUUIDModel
	Title        string   `gorm:"type:text;not null"           json:"title"`
	Description  string   `gorm:"type:text"                    json:"description"`
	PlanKind     PlanKind `gorm:"type:varchar(16);not null;index" json:"planKind"`
	DurationDays int      `gorm:"type:int;not null"            json:"durationDays"`
	IsRecurring  bool     `gorm:"type:bool;default:false"      json:"isRecurring"`
	IsPublic     bool     `gorm:"type:bool;default:false"      json:"isPublic"`
	OwnerID      uuid.UUID `gorm:"type:uuid;not null;index"    json:"ownerId"`
	Owner        User      `gorm:"foreignKey:OwnerID"          json:"-"`

	// Live cohort fields. LiveStartDate is set iff PlanKind is live.
	LiveStartDate        *datatypes.Date `gorm:"type:date"               json:"liveStartDate,omitempty"`
	LiveEndDate          *datatypes.Date `gorm:"type:date"               json:"liveEndDate,omitempty"`
	IsLiveActive         bool            `gorm:"type:bool;default:false" json:"isLiveActive"`
	LiveParticipantCount int             `gorm:"type:int;default:0"      json:"liveParticipantCount"`

	// ArchivalProcessedAt marks a finished live plan as handled by the
	// archival engine even when no copy was produced (empty cohort), so the
	// lifecycle driver does not retry forever.
	ArchivalProcessedAt *time.Time `gorm:"type:timestamp" json:"archivalProcessedAt,omitempty"`

	// Archive provenance fields, set iff PlanKind is archived.
	SourceLivePlanID       *uuid.UUID `gorm:"type:uuid;index" json:"sourceLivePlanId,omitempty"`
	ArchivedAt             *time.Time `gorm:"type:timestamp"  json:"archivedAt,omitempty"`
	SourceParticipantCount *int       `gorm:"type:int"        json:"sourceParticipantCount,omitempty"`

	Days []PlanDay `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE" json:"days,omitempty"`
}

var (
	ErrInvalidDuration   = errors.New("duration must be between 1 and 365 days")
	ErrMissingStartDate  = errors.New("live plans require a start date")
	ErrUnexpectedAnchor  = errors.New("only live plans carry a start date")
	ErrMissingProvenance = errors.New("archived plans require a source live plan")
)

// Validate enforces the structural invariants that hold for every plan row
// regardless of lifecycle stage.
func (p *Plan) Validate() error {
	if p.DurationDays < MinDurationDays || p.DurationDays > MaxDurationDays {
		return ErrInvalidDuration
	}

	switch p.PlanKind {
	case PlanKindLive:
		if p.LiveStartDate == nil {
			return ErrMissingStartDate
		}
	case PlanKindArchived:
		if p.SourceLivePlanID == nil {
			return ErrMissingProvenance
		}
		if p.LiveStartDate != nil {
			return ErrUnexpectedAnchor
		}
	default:
		if p.LiveStartDate != nil {
			return ErrUnexpectedAnchor
		}
	}

	return nil
}

func (p *Plan) IsLive() bool {
	return p.PlanKind == PlanKindLive
}
