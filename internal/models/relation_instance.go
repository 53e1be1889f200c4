package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RelationInstance is one concrete edge between two content entries under a
// definition. Source and target are immutable once created: a move is a
// delete plus a create. Only sort_order and relation_data may be updated
// in place.
type RelationInstance struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RelationDefinitionID uuid.UUID      `gorm:"type:uuid;not null;index:idx_instances_def_source;index:idx_instances_edge,unique" json:"relation_definition_id"`
	SourceEntryID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_instances_def_source;index:idx_instances_edge,unique" json:"source_entry_id"`
	TargetEntryID        uuid.UUID      `gorm:"type:uuid;not null;index;index:idx_instances_edge,unique" json:"target_entry_id"`
	RelationData         datatypes.JSON `gorm:"type:jsonb" json:"relation_data"`
	SortOrder            int            `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt            time.Time      `json:"created_at"`
}

// RelationRevision is a per-(definition, source entry) counter used for
// optimistic concurrency on ReplaceForSource. Clients that staged an edit
// against revision N commit with expected revision N; a moved counter
// aborts the commit.
type RelationRevision struct {
	RelationDefinitionID uuid.UUID `gorm:"type:uuid;primaryKey" json:"relation_definition_id"`
	SourceEntryID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"source_entry_id"`
	Revision             int64     `gorm:"not null;default:0" json:"revision"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// RelationAudit records a committed change to an entry's relations. Rows
// are written asynchronously by the worker and are not part of the
// commit's atomicity guarantee.
type RelationAudit struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RelationDefinitionID uuid.UUID      `gorm:"type:uuid;index" json:"relation_definition_id"`
	SourceEntryID        uuid.UUID      `gorm:"type:uuid;index" json:"source_entry_id"`
	Action               string         `gorm:"type:varchar(32);not null" json:"action"`
	Detail               datatypes.JSON `gorm:"type:jsonb" json:"detail"`
	CreatedAt            time.Time      `json:"created_at"`
}
