package infra

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/todo-team/todolist/internal/config"
)

// Stores holds the backing connections of the running service. Members not
// required by the configuration are nil.
type Stores struct {
	DB    *pgxpool.Pool
	Mongo *mongo.Database
	Cache *redis.Client
}

// Open connects the store named by cfg.StoreDriver, plus redis when
// RedisURL is set. On failure every connection opened so far is closed.
func Open(ctx context.Context, cfg config.Config) (*Stores, error) {
	s := &Stores{}
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.DB = db
	case config.StoreMongo:
		_, db, err := NewMongoDatabase(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		s.Mongo = db
	}

	if cfg.RedisURL != "" {
		cache, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.Cache = cache
	}
	return s, nil
}

// Check pings every open connection. The result is keyed by store name; a
// nil value means healthy.
func (s *Stores) Check(ctx context.Context) map[string]error {
	checks := map[string]error{}
	if s == nil {
		return checks
	}
	if s.DB != nil {
		checks["postgres"] = s.DB.Ping(ctx)
	}
	if s.Mongo != nil {
		checks["mongo"] = s.Mongo.Client().Ping(ctx, readpref.Primary())
	}
	if s.Cache != nil {
		checks["redis"] = s.Cache.Ping(ctx).Err()
	}
	return checks
}

// Close releases every open connection.
func (s *Stores) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.Cache != nil {
		errs = append(errs, s.Cache.Close())
	}
	if s.Mongo != nil {
		errs = append(errs, s.Mongo.Client().Disconnect(ctx))
	}
	if s.DB != nil {
		s.DB.Close()
	}
	return errors.Join(errs...)
}
