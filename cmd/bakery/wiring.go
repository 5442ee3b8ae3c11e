package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/fjod/bakehouse/internal/cache"
	"github.com/fjod/bakehouse/internal/cart"
	"github.com/fjod/bakehouse/internal/config"
	"github.com/fjod/bakehouse/internal/events"
	"github.com/fjod/bakehouse/internal/provider"
	"github.com/fjod/bakehouse/internal/provider/memory"
	"github.com/fjod/bakehouse/internal/provider/sqlstore"
	sig "github.com/fjod/bakehouse/internal/signal"
	"github.com/redis/go-redis/v9"
)

// closer is released in reverse order of acquisition on shutdown.
type closer struct {
	name string
	fn   func() error
}

type closers []closer

func (c *closers) add(name string, fn func() error) {
	*c = append(*c, closer{name: name, fn: fn})
}

func (c closers) closeAll(logger *slog.Logger) {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].fn(); err != nil {
			logger.Warn("close failed", "component", c[i].name, "error", err)
		}
	}
}

func credentials(cfg *config.Config) (*sqlstore.Credentials, error) {
	port, err := strconv.Atoi(cfg.DBPort)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	return &sqlstore.Credentials{
		Host:     cfg.DBHost,
		Port:     port,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
	}, nil
}

func newRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// buildBus selects the transport for "new notification" signals.
func buildBus(ctx context.Context, cfg *config.Config, rdb func() (*redis.Client, error), logger *slog.Logger, cl *closers) (sig.Bus, error) {
	var (
		bus sig.Bus
		err error
	)
	switch cfg.SignalBus {
	case "local":
		bus = sig.NewLocal()
	case "redis":
		client, err := rdb()
		if err != nil {
			return nil, err
		}
		bus = sig.NewRedisBus(client)
	case "amqp":
		conn, err := sig.SetupConn(cfg.AMQPURL, logger)
		if err != nil {
			return nil, err
		}
		cl.add("amqp connection", conn.Close)
		bus, err = sig.NewAMQPBus(conn, logger)
		if err != nil {
			return nil, err
		}
	case "postgres":
		cred, err := credentials(cfg)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("postgres", cred.ConnString())
		if err != nil {
			return nil, fmt.Errorf("failed to open signal database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to ping signal database: %w", err)
		}
		cl.add("signal database", db.Close)
		bus, err = sig.NewPGBus(db, cred.ConnString(), logger)
		if err != nil {
			return nil, err
		}
	default:
		err = fmt.Errorf("unknown signal bus %q", cfg.SignalBus)
	}
	if err != nil {
		return nil, err
	}
	cl.add("signal bus", bus.Close)
	return bus, nil
}

func openProvider(ctx context.Context, cfg *config.Config, bus sig.Bus, logger *slog.Logger, cl *closers) (provider.Provider, error) {
	var p provider.Provider
	switch cfg.Provider {
	case "memory":
		p = memory.NewStore(bus, logger)
	case "sqlite":
		s, err := sqlstore.OpenSQLite(cfg.SQLitePath, bus, logger)
		if err != nil {
			return nil, err
		}
		if err := s.RunMigrations(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		p = s
	case "postgres":
		cred, err := credentials(cfg)
		if err != nil {
			return nil, err
		}
		s, err := sqlstore.OpenPostgres(cred, bus, logger)
		if err != nil {
			return nil, err
		}
		if err := s.RunMigrations(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		p = s
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	cl.add("provider", p.Close)

	if cfg.Seed {
		if err := provider.Seed(ctx, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func buildCatalogCache(cfg *config.Config, rdb func() (*redis.Client, error)) (cache.CatalogCache, error) {
	if !cfg.CatalogCache {
		return cache.Nop{}, nil
	}
	client, err := rdb()
	if err != nil {
		return nil, err
	}
	return cache.NewRedisCache(client), nil
}

// buildCartSnapshots returns nil when MONGO_URI is unset; carts then live
// in memory only.
func buildCartSnapshots(ctx context.Context, cfg *config.Config, logger *slog.Logger, cl *closers) (cart.SnapshotStore, error) {
	if cfg.MongoURI == "" {
		return nil, nil
	}
	db, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return nil, err
	}
	cl.add("mongodb", func() error { return db.Client().Disconnect(context.Background()) })

	snapshots := cart.NewMongoSnapshots(db)
	if err := snapshots.CreateIndexes(ctx); err != nil {
		logger.Warn("cart snapshot indexes not created", "error", err)
	}
	return snapshots, nil
}

func buildPublisher(cfg *config.Config, logger *slog.Logger, cl *closers) events.Publisher {
	if !cfg.KafkaEnabled {
		return events.NopPublisher{}
	}
	p := events.NewKafkaPublisher(logger, cfg.KafkaBrokers...)
	cl.add("kafka publisher", p.Close)
	return p
}
