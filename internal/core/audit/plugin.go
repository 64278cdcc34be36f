package audit

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/cash-advance-management/internal"
)

const (
	oldValuesKey = "audit:old_values"
)

// Plugin hooks into GORM's create/update/delete pipelines and appends one
// audit_logs row per write to an Auditable model, inside the transaction
// that performs the write. Because every repository shares the one plugged
// *gorm.DB, the trail cannot be bypassed by going straight to a repository.
type Plugin struct {
	logger *slog.Logger
}

func NewPlugin(logger *slog.Logger) *Plugin {
	return &Plugin{logger: logger}
}

func (p *Plugin) Name() string {
	return "audit"
}

func (p *Plugin) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().After("gorm:create").Register("audit:after_create", p.afterCreate); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("audit:before_update", p.capturePrior); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("audit:after_update", p.afterUpdate); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("audit:before_delete", p.capturePrior); err != nil {
		return err
	}
	return db.Callback().Delete().After("gorm:delete").Register("audit:after_delete", p.afterDelete)
}

func auditableFrom(tx *gorm.DB) (Auditable, bool) {
	if a, ok := tx.Statement.Dest.(Auditable); ok {
		return a, true
	}
	if a, ok := tx.Statement.Model.(Auditable); ok {
		return a, true
	}
	return nil, false
}

func (p *Plugin) tableName(tx *gorm.DB) string {
	if tx.Statement.Table != "" {
		return tx.Statement.Table
	}
	if tx.Statement.Schema != nil {
		return tx.Statement.Schema.Table
	}
	return ""
}

// snapshot reads the current row for the entity within the same connection
// or transaction the statement runs on.
func (p *Plugin) snapshot(tx *gorm.DB, table, entityID string) (json.RawMessage, error) {
	var row map[string]interface{}
	sess := tx.Session(&gorm.Session{NewDB: true, SkipHooks: true})
	if err := sess.Table(table).Where("id = ?", entityID).Take(&row).Error; err != nil {
		return nil, err
	}
	return json.Marshal(row)
}

func (p *Plugin) capturePrior(tx *gorm.DB) {
	model, ok := auditableFrom(tx)
	if !ok || model.AuditEntityID() == "" {
		return
	}

	prior, err := p.snapshot(tx, p.tableName(tx), model.AuditEntityID())
	if err != nil {
		// row may legitimately not exist yet; the write itself will fail
		// or affect zero rows and no entry is appended
		return
	}
	tx.InstanceSet(oldValuesKey, prior)
}

func (p *Plugin) afterCreate(tx *gorm.DB) {
	model, ok := auditableFrom(tx)
	if !ok || tx.Error != nil || tx.Statement.SkipHooks {
		return
	}

	newValues, err := p.snapshot(tx, p.tableName(tx), model.AuditEntityID())
	if err != nil {
		tx.AddError(err)
		return
	}
	p.append(tx, ActionCreate, model, nil, newValues)
}

func (p *Plugin) afterUpdate(tx *gorm.DB) {
	model, ok := auditableFrom(tx)
	if !ok || tx.Error != nil || tx.RowsAffected == 0 {
		return
	}

	newValues, err := p.snapshot(tx, p.tableName(tx), model.AuditEntityID())
	if err != nil {
		tx.AddError(err)
		return
	}

	var oldValues json.RawMessage
	if v, ok := tx.InstanceGet(oldValuesKey); ok {
		oldValues, _ = v.(json.RawMessage)
	}
	p.append(tx, ActionUpdate, model, oldValues, newValues)
}

func (p *Plugin) afterDelete(tx *gorm.DB) {
	model, ok := auditableFrom(tx)
	if !ok || tx.Error != nil || tx.RowsAffected == 0 {
		return
	}

	var oldValues json.RawMessage
	if v, ok := tx.InstanceGet(oldValuesKey); ok {
		oldValues, _ = v.(json.RawMessage)
	}
	p.append(tx, ActionDelete, model, oldValues, nil)
}

func (p *Plugin) append(tx *gorm.DB, action string, model Auditable, oldValues, newValues json.RawMessage) {
	entry := Log{
		ID:         uuid.New().String(),
		Action:     action,
		EntityType: model.AuditEntityType(),
		EntityID:   model.AuditEntityID(),
		OldValues:  oldValues,
		NewValues:  newValues,
		CreatedAt:  time.Now().UTC(),
	}

	if actor, ok := internal.ActorFromContext(tx.Statement.Context); ok {
		if actor.UserID != "" {
			userID := actor.UserID
			entry.UserID = &userID
		}
		entry.IPAddress = actor.IPAddress
	}

	sess := tx.Session(&gorm.Session{NewDB: true, SkipHooks: true})
	if err := sess.Create(&entry).Error; err != nil {
		p.logger.Error("failed to append audit entry",
			"entity_type", entry.EntityType,
			"entity_id", entry.EntityID,
			"action", action,
			"error", err)
		// fail the surrounding statement so the transaction rolls back:
		// a write without its audit entry must not commit
		tx.AddError(err)
	}
}
