package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/schlyythetech/taskmaster/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AttachmentRepository defines the interface for attachment metadata
// operations. Attachment bytes live in external object storage; only the
// metadata documents are managed here.
type AttachmentRepository interface {
	CreateAttachment(ctx context.Context, attachment *models.Attachment) error
	GetAttachmentByID(ctx context.Context, id string) (*models.Attachment, error)
	GetAttachmentsByTask(ctx context.Context, taskID uint) ([]models.Attachment, error)
	DeleteAttachment(ctx context.Context, id string) error
	DeleteAttachmentsByTask(ctx context.Context, taskID uint) error
}

// MongoAttachmentRepository implements AttachmentRepository for MongoDB
type MongoAttachmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAttachmentRepository creates a new MongoAttachmentRepository
func NewMongoAttachmentRepository(db *mongo.Database) *MongoAttachmentRepository {
	return &MongoAttachmentRepository{collection: db.Collection("attachments")}
}

// CreateAttachment stores a new attachment metadata document
func (r *MongoAttachmentRepository) CreateAttachment(ctx context.Context, attachment *models.Attachment) error {
	attachment.ID = primitive.NewObjectID()
	attachment.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, attachment)
	return err
}

// GetAttachmentByID retrieves an attachment metadata document by ID
func (r *MongoAttachmentRepository) GetAttachmentByID(ctx context.Context, id string) (*models.Attachment, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid attachment ID format: %w", err)
	}

	var attachment models.Attachment
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&attachment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("attachment not found")
		}
		return nil, err
	}
	return &attachment, nil
}

// GetAttachmentsByTask retrieves all attachment metadata for a task
func (r *MongoAttachmentRepository) GetAttachmentsByTask(ctx context.Context, taskID uint) ([]models.Attachment, error) {
	var attachments []models.Attachment
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"task_id": taskID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

// DeleteAttachment deletes an attachment metadata document by ID
func (r *MongoAttachmentRepository) DeleteAttachment(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid attachment ID format: %w", err)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("attachment not found")
	}
	return nil
}

// DeleteAttachmentsByTask deletes all attachment metadata for a task
func (r *MongoAttachmentRepository) DeleteAttachmentsByTask(ctx context.Context, taskID uint) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"task_id": taskID})
	return err
}
