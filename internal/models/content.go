package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Entry statuses used by the content store.
const (
	EntryStatusDraft     = "draft"
	EntryStatusPublished = "published"
	EntryStatusArchived  = "archived"
)

// ContentType is a dynamically defined content schema. The relation engine
// only reads these rows; their lifecycle belongs to the content service.
type ContentType struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"name"`
	DisplayName string    `gorm:"type:varchar(255);not null" json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ContentEntry is one schemaless content row. Field values live in a jsonb
// blob; the relation engine never interprets them beyond title/status for
// candidate search results.
type ContentEntry struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ContentTypeID uuid.UUID      `gorm:"type:uuid;index;not null" json:"content_type_id"`
	Title         string         `gorm:"type:varchar(512)" json:"title"`
	Status        string         `gorm:"type:varchar(32);index;not null;default:'draft'" json:"status" validate:"oneof=draft published archived"`
	Fields        datatypes.JSON `gorm:"type:jsonb" json:"fields"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
