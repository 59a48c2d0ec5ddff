package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attachment holds attachment metadata for a task (MongoDB). The bytes
// themselves live in external object storage under ObjectKey.
type Attachment struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TaskID      uint               `json:"task_id" bson:"task_id"`
	UploaderID  uint               `json:"uploader_id" bson:"uploader_id"`
	Filename    string             `json:"filename" bson:"filename"`
	ContentType string             `json:"content_type" bson:"content_type"`
	SizeBytes   int64              `json:"size_bytes" bson:"size_bytes"`
	ObjectKey   string             `json:"object_key" bson:"object_key"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

type CreateAttachmentRequest struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required,max=100"`
	SizeBytes   int64  `json:"size_bytes" validate:"required,min=1"`
}
