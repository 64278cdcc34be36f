package audit

import (
	"encoding/json"
	"time"
)

const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Log is one immutable record of a write against an audited entity. Rows
// are only ever inserted; application code never updates or deletes them.
type Log struct {
	ID         string          `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     *string         `json:"user_id,omitempty" gorm:"column:user_id;type:uuid"`
	Action     string          `json:"action" gorm:"column:action;not null"`
	EntityType string          `json:"entity_type" gorm:"column:entity_type;not null;index:idx_audit_logs_entity"`
	EntityID   string          `json:"entity_id" gorm:"column:entity_id;not null;index:idx_audit_logs_entity"`
	OldValues  json.RawMessage `json:"old_values,omitempty" gorm:"column:old_values;type:jsonb"`
	NewValues  json.RawMessage `json:"new_values,omitempty" gorm:"column:new_values;type:jsonb"`
	IPAddress  string          `json:"ip_address,omitempty" gorm:"column:ip_address"`
	CreatedAt  time.Time       `json:"created_at" gorm:"column:created_at"`
}

func (Log) TableName() string {
	return "audit_logs"
}

// Auditable marks a model whose writes are captured by the Plugin. The
// entity id must be stable before the write reaches the database, so models
// assign their uuid in BeforeCreate.
type Auditable interface {
	AuditEntityType() string
	AuditEntityID() string
}
