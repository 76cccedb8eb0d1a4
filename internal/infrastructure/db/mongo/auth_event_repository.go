package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crossfitlagos/member-portal/internal/core/domain"
	"github.com/crossfitlagos/member-portal/internal/core/ports"
)

const (
	authEventCollection = "auth_events"
	authEventRetention  = 90 * 24 * time.Hour
)

// AuthEventRepository implements ports.AuthEventRepository using MongoDB.
// Phone numbers never reach the collection in clear text.
type AuthEventRepository struct {
	col      *mongo.Collection
	pseudo   *Pseudonymizer
	received func() time.Time
}

var _ ports.AuthEventRepository = (*AuthEventRepository)(nil)

// NewAuthEventRepository creates an AuthEventRepository.
func NewAuthEventRepository(db *mongo.Database, pseudo *Pseudonymizer) *AuthEventRepository {
	return &AuthEventRepository{
		col:      db.Collection(authEventCollection),
		pseudo:   pseudo,
		received: time.Now,
	}
}

type mongoAuthEvent struct {
	ID         string    `bson:"_id"`
	Kind       string    `bson:"kind"`
	PhoneHash  string    `bson:"phone_hash"`
	Outcome    string    `bson:"outcome"`
	Path       string    `bson:"path,omitempty"`
	Primary    string    `bson:"primary,omitempty"`
	Directory  string    `bson:"directory,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`
	InsertedAt time.Time `bson:"inserted_at"`
}

func (r *AuthEventRepository) toDocument(event domain.AuthEvent) mongoAuthEvent {
	return mongoAuthEvent{
		ID:         event.ID,
		Kind:       string(event.Kind),
		PhoneHash:  r.pseudo.Phone(event.Phone),
		Outcome:    event.Outcome,
		Path:       string(event.Path),
		Primary:    event.Primary,
		Directory:  event.Directory,
		OccurredAt: event.OccurredAt.UTC(),
		InsertedAt: r.received().UTC(),
	}
}

// InsertAuthEvent persists event to the auth_events audit collection.
// Re-inserting an event with the same ID is a no-op.
func (r *AuthEventRepository) InsertAuthEvent(ctx context.Context, event domain.AuthEvent) error {
	_, err := r.col.InsertOne(ctx, r.toDocument(event))
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

// EnsureIndexes creates lookup indexes and expires events after the
// retention window.
func (r *AuthEventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone_hash", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}}},
		{
			Keys:    bson.D{{Key: "occurred_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(authEventRetention / time.Second)),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
