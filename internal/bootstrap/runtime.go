// Package bootstrap wires up shared runtime dependencies for the server
// and CLI commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wanderlust/internal/cache"
	"wanderlust/internal/config"
	"wanderlust/internal/database"
	"wanderlust/internal/models"
	"wanderlust/internal/repository"
	"wanderlust/internal/seed"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/crypto/bcrypt"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDemoData    bool
	DemoUsers       int
	DemoCampgrounds int
}

// Runtime holds the shared connections established at startup.
type Runtime struct {
	Client *mongo.Client
	DB     *mongo.Database
	Redis  *redis.Client
}

// InitRuntime connects to Mongo and Redis, ensures indexes, optionally
// bootstraps a development root admin, and optionally seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	client, db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := database.EnsureIndexes(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	// May result in a nil client if unreachable
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevRootAdmin(ctx, cfg, db); err != nil {
		return nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	if opts.SeedDemoData {
		seeder := seed.NewSeeder(db, seed.SeedOptions{})
		if err := seeder.Populate(ctx, opts.DemoUsers, opts.DemoCampgrounds); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return &Runtime{Client: client, DB: db, Redis: r}, nil
}

func ensureDevRootAdmin(ctx context.Context, cfg *config.Config, db *mongo.Database) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	username := strings.TrimSpace(cfg.DevRootUsername)
	if username == "" {
		username = "wanderlust_root"
	}
	email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
	if email == "" {
		email = "root@wanderlust.local"
	}
	password := cfg.DevRootPassword
	if password == "" {
		return errors.New("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	users := repository.NewUserRepository(db)
	root, err := users.GetByUsername(ctx, username)
	switch {
	case repository.IsNotFound(err):
		root = &models.User{
			Username: username,
			Email:    email,
			Password: string(hashedPassword),
			IsAdmin:  true,
		}
		if err := users.Create(ctx, root); err != nil {
			return fmt.Errorf("create root admin: %w", err)
		}
	case err != nil:
		return fmt.Errorf("look up root admin: %w", err)
	default:
		update := bson.M{"is_admin": true}
		if cfg.DevRootForceCredentials {
			update["email"] = email
			update["password"] = string(hashedPassword)
		}
		if _, err := db.Collection(database.UsersCollection).UpdateOne(ctx,
			bson.M{"_id": root.ID}, bson.M{"$set": update}); err != nil {
			return fmt.Errorf("update root admin: %w", err)
		}
		cache.InvalidateUser(ctx, root.ID.Hex())
	}

	return nil
}
