package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ActorType string

const (
	ActorTypeSystem ActorType = "system"
	ActorTypeUser   ActorType = "user"
)

// Audited actions.
const (
	ActionSettlementRun        = "settlement.run"
	ActionSettlementConfirm    = "settlement.confirm"
	ActionSettlementRemit      = "settlement.remit"
	ActionSettlementComplete   = "settlement.complete"
	ActionSettlementCancel     = "settlement.cancel"
	ActionDistributionRun      = "distribution.auto_settlement"
	ActionDistributionCascade  = "distribution.cascade_remittance"
	ActionDistributionRemit    = "distribution.remittance"
	ActionDistributionConfirm  = "distribution.bulk_confirm"
	ActionDistributionComplete = "distribution.bulk_complete"
	ActionDistributionCancel   = "distribution.bulk_cancel"
)

type AuditLog struct {
	ID         snowflake.ID      `json:"id" gorm:"primaryKey"`
	ActorType  string            `json:"actor_type" gorm:"type:varchar(16);not null"`
	ActorID    *string           `json:"actor_id,omitempty" gorm:"type:varchar(64)"`
	Action     string            `json:"action" gorm:"type:varchar(64);not null;index"`
	TargetType string            `json:"target_type" gorm:"type:varchar(64);not null"`
	TargetID   *string           `json:"target_id,omitempty" gorm:"type:varchar(64);index"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null;index"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type ListFilter struct {
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
	Limit      int
}
