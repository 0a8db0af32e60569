package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidstream/account-service/internal/core/domain"
)

const auditCollection = "auth_events"

// MongoAuditRepository persists the auth-event audit trail.
type MongoAuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *MongoAuditRepository {
	return &MongoAuditRepository{coll: db.Collection(auditCollection)}
}

type mongoAuthEvent struct {
	UserID    string    `bson:"user_id"`
	Action    string    `bson:"action"`
	Timestamp time.Time `bson:"timestamp"`
	RequestID string    `bson:"request_id,omitempty"`
	RemoteIP  string    `bson:"remote_ip,omitempty"`
}

func (r *MongoAuditRepository) Insert(ctx context.Context, event *domain.AuthEvent) error {
	doc := mongoAuthEvent{
		UserID:    event.UserID,
		Action:    string(event.Action),
		Timestamp: event.Timestamp,
		RequestID: event.RequestID,
		RemoteIP:  event.RemoteIP,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}
