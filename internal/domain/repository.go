package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("document not found")

type userCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type botCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// UserRepository persists and retrieves users in MongoDB.
type UserRepository struct {
	collection userCollection
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(collection userCollection) *UserRepository {
	return &UserRepository{collection: collection}
}

// GetByID fetches a user by id. Returns ErrNotFound when no record exists.
func (r *UserRepository) GetByID(ctx context.Context, userID string) (User, error) {
	if r == nil || r.collection == nil {
		return User{}, errors.New("user repository is not initialized")
	}
	if ctx == nil {
		return User{}, errors.New("context is required")
	}
	if userID == "" {
		return User{}, errors.New("user id is required")
	}

	result := r.collection.FindOne(ctx, bson.M{"_id": userID})
	if result == nil {
		return User{}, errors.New("find user returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}

	var user User
	if err := result.Decode(&user); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}

	return user, nil
}

// SetNextVote advances the user's vote cooldown to the given instant.
func (r *UserRepository) SetNextVote(ctx context.Context, userID string, at time.Time) error {
	if r == nil || r.collection == nil {
		return errors.New("user repository is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if userID == "" {
		return errors.New("user id is required")
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"dates.nextVote": at.UTC()}},
	)
	if err != nil {
		return fmt.Errorf("set next vote: %w", err)
	}
	if result != nil && result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// RestoreNextVote puts the cooldown back to a previously observed value,
// clearing the field when the user had none. Used to compensate a cooldown
// advance whose vote commit failed.
func (r *UserRepository) RestoreNextVote(ctx context.Context, userID string, prior *time.Time) error {
	if r == nil || r.collection == nil {
		return errors.New("user repository is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if userID == "" {
		return errors.New("user id is required")
	}

	var update bson.M
	if prior != nil {
		update = bson.M{"$set": bson.M{"dates.nextVote": prior.UTC()}}
	} else {
		update = bson.M{"$unset": bson.M{"dates.nextVote": ""}}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("restore next vote: %w", err)
	}
	if result != nil && result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// BotRepository persists and retrieves bot listings in MongoDB.
type BotRepository struct {
	collection botCollection
}

// NewBotRepository constructs a BotRepository.
func NewBotRepository(collection botCollection) *BotRepository {
	return &BotRepository{collection: collection}
}

// GetByIDOrURL fetches a bot by id or vanity url. Returns ErrNotFound when no
// record matches.
func (r *BotRepository) GetByIDOrURL(ctx context.Context, idOrURL string) (Bot, error) {
	if r == nil || r.collection == nil {
		return Bot{}, errors.New("bot repository is not initialized")
	}
	if ctx == nil {
		return Bot{}, errors.New("context is required")
	}
	if idOrURL == "" {
		return Bot{}, errors.New("bot id is required")
	}

	result := r.collection.FindOne(ctx, bson.M{
		"$or": bson.A{
			bson.M{"_id": idOrURL},
			bson.M{"details.customURL": idOrURL},
		},
	})
	if result == nil {
		return Bot{}, errors.New("find bot returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Bot{}, ErrNotFound
		}
		return Bot{}, fmt.Errorf("find bot: %w", err)
	}

	var bot Bot
	if err := result.Decode(&bot); err != nil {
		return Bot{}, fmt.Errorf("decode bot: %w", err)
	}

	return bot, nil
}

// RecordVote increments the vote counter and appends the voter to the vote
// log in a single update, so concurrent votes on the same bot cannot lose
// increments. It returns the post-update document.
func (r *BotRepository) RecordVote(ctx context.Context, botID, voterID string) (Bot, error) {
	if r == nil || r.collection == nil {
		return Bot{}, errors.New("bot repository is not initialized")
	}
	if ctx == nil {
		return Bot{}, errors.New("context is required")
	}
	if botID == "" {
		return Bot{}, errors.New("bot id is required")
	}
	if voterID == "" {
		return Bot{}, errors.New("voter id is required")
	}

	result := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": botID},
		bson.M{
			"$inc":  bson.M{"votes.current": 1},
			"$push": bson.M{"votes.voteslog": voterID},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result == nil {
		return Bot{}, errors.New("record vote returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Bot{}, ErrNotFound
		}
		return Bot{}, fmt.Errorf("record vote: %w", err)
	}

	var bot Bot
	if err := result.Decode(&bot); err != nil {
		return Bot{}, fmt.Errorf("decode recorded vote: %w", err)
	}

	return bot, nil
}

// SetWebhookError stores the outcome of the most recent webhook delivery.
func (r *BotRepository) SetWebhookError(ctx context.Context, botID string, failed bool) error {
	if r == nil || r.collection == nil {
		return errors.New("bot repository is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if botID == "" {
		return errors.New("bot id is required")
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": botID, "webhook": bson.M{"$ne": nil}},
		bson.M{"$set": bson.M{"webhook.lastError": failed}},
	)
	if err != nil {
		return fmt.Errorf("set webhook error: %w", err)
	}
	if result != nil && result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}
