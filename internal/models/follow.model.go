package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Follow records that a user is (or was) running a plan. At most one active
// follow exists per (user, plan) pair, enforced by a partial unique index;
// re-following after an unfollow creates a new row so history survives.
// Rows are never hard-deleted.
type Follow struct {
	BaseUUIDModel
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_follow_user_plan,composite:0" json:"userId"`
	User      User            `gorm:"foreignKey:UserID" json:"-"`
	PlanID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_follow_user_plan,composite:1" json:"planId"`
	Plan      Plan            `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	IsActive  bool            `gorm:"type:bool;default:true;index" json:"isActive"`
	StartDate datatypes.Date  `gorm:"type:date;not null" json:"startDate"`
	EndDate   *datatypes.Date `gorm:"type:date"          json:"endDate,omitempty"`
}
