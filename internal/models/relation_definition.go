package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RelationType is the multiplicity of a relation definition.
type RelationType string

const (
	RelationOneToOne   RelationType = "one_to_one"
	RelationOneToMany  RelationType = "one_to_many"
	RelationManyToMany RelationType = "many_to_many"
)

// Valid reports whether t is a known relation type.
func (t RelationType) Valid() bool {
	switch t {
	case RelationOneToOne, RelationOneToMany, RelationManyToMany:
		return true
	}
	return false
}

// DeleteBehavior is the policy applied to instances when an endpoint entry
// is deleted.
type DeleteBehavior string

const (
	DeleteCascade  DeleteBehavior = "cascade"
	DeleteRestrict DeleteBehavior = "restrict"
	// DeleteSetNull has the same storage effect as cascade: instances are
	// edge rows with no nullable column to null out. Kept as a distinct
	// value so a future placeholder-edge design would not need a data
	// migration.
	DeleteSetNull  DeleteBehavior = "set_null"
	DeleteNoAction DeleteBehavior = "no_action"
)

// Valid reports whether b is a known delete behavior.
func (b DeleteBehavior) Valid() bool {
	switch b {
	case DeleteCascade, DeleteRestrict, DeleteSetNull, DeleteNoAction:
		return true
	}
	return false
}

// NameRe constrains definition names to lowercase snake_case.
var NameRe = regexp.MustCompile(`^[a-z0-9_]+$`)

// RelationDefinition is the schema of an edge type between two content types.
type RelationDefinition struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"name" validate:"required"`
	DisplayName string    `gorm:"type:varchar(255);not null" json:"display_name"`
	Description string    `gorm:"type:text" json:"description"`

	SourceContentTypeID uuid.UUID `gorm:"type:uuid;not null;index:idx_definitions_source_field,unique" json:"source_content_type_id" validate:"required"`
	SourceFieldName     string    `gorm:"type:varchar(128);not null;index:idx_definitions_source_field,unique" json:"source_field_name" validate:"required"`
	TargetContentTypeID uuid.UUID `gorm:"type:uuid;index;not null" json:"target_content_type_id" validate:"required"`
	TargetFieldName     string    `gorm:"type:varchar(128)" json:"target_field_name"`

	RelationType    RelationType `gorm:"type:varchar(32);not null" json:"relation_type" validate:"required"`
	IsBidirectional bool         `gorm:"not null;default:false" json:"is_bidirectional"`
	IsRequired      bool         `gorm:"not null;default:false" json:"is_required"`

	OnSourceDelete DeleteBehavior `gorm:"type:varchar(32);not null;default:'no_action'" json:"on_source_delete"`
	OnTargetDelete DeleteBehavior `gorm:"type:varchar(32);not null;default:'no_action'" json:"on_target_delete"`

	MinRelations int  `gorm:"not null;default:0" json:"min_relations" validate:"gte=0"`
	MaxRelations *int `json:"max_relations,omitempty"`

	SortOrder int            `gorm:"not null;default:0;index" json:"sort_order"`
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
	IsActive  bool           `gorm:"not null;default:true;index" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SelfReferential reports whether source and target content types coincide.
func (d *RelationDefinition) SelfReferential() bool {
	return d.SourceContentTypeID == d.TargetContentTypeID
}

// DefinitionStats are aggregate counts over a definition's instances,
// computed by the definition store on list/get.
type DefinitionStats struct {
	TotalRelations int64 `json:"total_relations"`
	UniqueSources  int64 `json:"unique_sources"`
	UniqueTargets  int64 `json:"unique_targets"`
}
