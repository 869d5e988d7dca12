// internal/domain/models/document.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document categories. The Spanish values are the wire values stored in the
// documents collection; changing them would orphan existing records.
const (
	CategoryERS    = "ERS"
	CategoryDesign = "Diseño"
	CategoryAPI    = "API"
	CategoryManual = "Manual"
	CategoryOther  = "Otro"
)

// DocumentCategories lists the valid category values in display order.
var DocumentCategories = []string{
	CategoryERS,
	CategoryDesign,
	CategoryAPI,
	CategoryManual,
	CategoryOther,
}

// IsValidDocumentCategory checks whether value is a known category.
func IsValidDocumentCategory(value string) bool {
	for _, c := range DocumentCategories {
		if c == value {
			return true
		}
	}
	return false
}

// DocumentRecord is the metadata row describing an uploaded file, distinct
// from the file's bytes. A record is written only after the blob transfer
// completes; a failed transfer must never produce a record.
type DocumentRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"` // original file name
	URL          string             `bson:"url" json:"url"`   // resolved download locator
	Version      string             `bson:"version" json:"version"`
	Category     string             `bson:"category" json:"category"`
	ProjectID    primitive.ObjectID `bson:"project_id" json:"project_id"`
	UploaderID   primitive.ObjectID `bson:"uploader_id" json:"uploader_id"`
	UploaderName string             `bson:"uploader_name" json:"uploader_name"`
	StoragePath  string             `bson:"storage_path" json:"storage_path"` // object key in the blob store
	Size         int64              `bson:"size,omitempty" json:"size,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
