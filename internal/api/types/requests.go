package types

import (
	"encoding/json"

	"github.com/google/uuid"
)

// DefinitionRequest is the create/update body for relation definitions.
type DefinitionRequest struct {
	Name                string          `json:"name" validate:"required"`
	DisplayName         string          `json:"display_name"`
	Description         string          `json:"description"`
	SourceContentTypeID uuid.UUID       `json:"source_content_type_id" validate:"required"`
	SourceFieldName     string          `json:"source_field_name" validate:"required"`
	TargetContentTypeID uuid.UUID       `json:"target_content_type_id" validate:"required"`
	TargetFieldName     string          `json:"target_field_name"`
	RelationType        string          `json:"relation_type" validate:"required,oneof=one_to_one one_to_many many_to_many"`
	IsBidirectional     bool            `json:"is_bidirectional"`
	IsRequired          bool            `json:"is_required"`
	OnSourceDelete      string          `json:"on_source_delete"`
	OnTargetDelete      string          `json:"on_target_delete"`
	MinRelations        int             `json:"min_relations"`
	MaxRelations        *int            `json:"max_relations"`
	SortOrder           int             `json:"sort_order"`
	Metadata            json.RawMessage `json:"metadata"`
	IsActive            *bool           `json:"is_active"`
}

// CreateRelationRequest is the single-edge create body.
type CreateRelationRequest struct {
	RelationDefinitionID uuid.UUID       `json:"relation_definition_id" validate:"required"`
	SourceEntryID        uuid.UUID       `json:"source_entry_id" validate:"required"`
	TargetEntryID        uuid.UUID       `json:"target_entry_id" validate:"required"`
	Metadata             json.RawMessage `json:"metadata"`
}

// TargetRef is one proposed target within a batch commit field.
type TargetRef struct {
	TargetEntryID uuid.UUID       `json:"target_entry_id" validate:"required"`
	RelationData  json.RawMessage `json:"relation_data"`
}

// CommitRequest is an all-or-nothing save of one entry's relation fields.
// BaseRevisions is optional; when present the commit is guarded by a
// compare-and-swap on each field's revision counter.
type CommitRequest struct {
	Fields        map[string][]TargetRef `json:"fields" validate:"required"`
	BaseRevisions map[string]int64       `json:"base_revisions"`
}
