// Package store encapsulates MongoDB client management and collection helpers.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type countCollection interface {
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

// StatsProvider exposes helper methods to retrieve collection counts for basic
// diagnostics without leaking MongoDB internals to callers.
type StatsProvider struct {
	users countCollection
	bots  countCollection
}

// NewStatsProvider constructs a StatsProvider backed by the provided user and
// bot collections.
func NewStatsProvider(users, bots countCollection) *StatsProvider {
	return &StatsProvider{
		users: users,
		bots:  bots,
	}
}

// CountUsers returns the number of documents in the users collection.
func (p *StatsProvider) CountUsers(ctx context.Context) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if p == nil || p.users == nil {
		return 0, errors.New("stats provider is not initialized")
	}

	count, err := p.users.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return count, nil
}

// CountBots returns the number of documents in the bots collection.
func (p *StatsProvider) CountBots(ctx context.Context) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if p == nil || p.bots == nil {
		return 0, errors.New("stats provider is not initialized")
	}

	count, err := p.bots.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count bots: %w", err)
	}

	return count, nil
}

// CountApprovedBots returns the number of publicly listed bots.
func (p *StatsProvider) CountApprovedBots(ctx context.Context) (int64, error) {
	if ctx == nil {
		return 0, errors.New("context is required")
	}
	if p == nil || p.bots == nil {
		return 0, errors.New("stats provider is not initialized")
	}

	count, err := p.bots.CountDocuments(ctx, bson.M{"approvedBy": bson.M{"$ne": nil}})
	if err != nil {
		return 0, fmt.Errorf("count approved bots: %w", err)
	}

	return count, nil
}
