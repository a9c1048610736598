package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/owid/lc-reconcile/internal/repositories/names"
	"github.com/owid/lc-reconcile/pkg/database"
	"github.com/owid/lc-reconcile/pkg/index"
	"github.com/owid/lc-reconcile/pkg/kafka"
	"github.com/owid/lc-reconcile/pkg/lookupcache"
	"github.com/owid/lc-reconcile/pkg/matching"
	"github.com/owid/lc-reconcile/pkg/redis"
	"github.com/owid/lc-reconcile/pkg/reconcile"
	"github.com/owid/lc-reconcile/pkg/startup"
)

// app holds every component the commands share. Fields are filled in as the startup
// dependencies come up.
type app struct {
	db         *database.DatabaseInstance
	repo       *names.Repository
	holder     *index.Holder
	ranker     *matching.Ranker
	dispatcher *reconcile.Dispatcher
	redis      *redis.Client
	lookup     *lookupcache.Service
	trigger    *kafka.ReloadTrigger
	consumer   *kafka.Consumer
	startup    *startup.Startup
}

type appOptions struct {
	migrate   bool
	warmIndex bool
	cache     bool
	cdc       bool
}

func newApp(opts appOptions) (*app, error) {
	algorithm, err := matching.ParseAlgorithm(cfg.ScoreAlgorithm)
	if err != nil {
		return nil, err
	}

	a := &app{startup: startup.NewStartup(logger, cfg.StartupMaxAttempts)}

	a.startup.AddDependency(&startup.Dependency{
		Name: "database",
		StartFn: func(ctx context.Context) error {
			db, err := database.Connect(ctx, databaseConfig(), logger)
			if err != nil {
				return err
			}
			a.db = db
			a.repo = names.NewRepository(db, logger)
			a.holder = index.NewHolder(a.repo, logger, index.Config{LoadTimeout: cfg.IndexLoadTimeout})
			a.ranker = matching.NewRanker(a.holder, matching.NewScorer(algorithm), logger)
			a.dispatcher = reconcile.NewDispatcher(a.ranker, metadataConfig(), logger)
			a.lookup = lookupcache.NewService(a.repo, nil, logger)
			return nil
		},
		StopFn: func(ctx context.Context) error {
			return a.db.Close()
		},
	})

	ready := "database"
	if opts.migrate {
		a.startup.AddDependency(&startup.Dependency{
			Name:  "migrations",
			Needs: []string{"database"},
			StartFn: func(ctx context.Context) error {
				return database.NewMigrationService(logger, migrationConfig()).MigratePostgres(ctx, a.db, cfg.DatabaseName)
			},
		})
		ready = "migrations"
	}

	if opts.warmIndex {
		a.startup.AddDependency(&startup.Dependency{
			Name:  "index",
			Needs: []string{ready},
			StartFn: func(ctx context.Context) error {
				_, err := a.holder.Get(ctx)
				return err
			},
		})
	}

	if opts.cache {
		a.startup.AddDependency(&startup.Dependency{
			Name:  "redis",
			Needs: []string{"database"},
			StartFn: func(ctx context.Context) error {
				client, err := redis.NewClient(ctx, redis.Config{
					Host:     cfg.RedisHost,
					Port:     cfg.RedisPort,
					Password: cfg.RedisPassword,
					DB:       cfg.RedisDB,
				}, logger)
				if err != nil {
					return err
				}
				a.redis = client
				a.lookup = lookupcache.NewService(a.repo, lookupcache.NewRedisStore(client, cfg.LookupCacheTTL, logger), logger)
				return nil
			},
			StopFn: func(ctx context.Context) error {
				return a.redis.Close()
			},
		})
	}

	if opts.cdc {
		needs := []string{ready}
		if opts.cache {
			needs = append(needs, "redis")
		}
		a.startup.AddDependency(&startup.Dependency{
			Name:  "kafka",
			Needs: needs,
			StartFn: func(ctx context.Context) error {
				a.trigger = kafka.NewReloadTrigger(a.reload, cfg.KafkaReloadDebounce, logger)
				a.trigger.Start(context.WithoutCancel(ctx))

				a.consumer = kafka.NewConsumer(kafka.ConsumerConfig{
					Brokers:       cfg.KafkaBrokers,
					Topics:        cfg.KafkaTopics,
					ConsumerGroup: cfg.KafkaConsumerGroup,
				}, logger, kafka.NewChangeHandler(kafka.ReferenceTables, a.trigger, logger))
				return a.consumer.Start(context.WithoutCancel(ctx))
			},
			StopFn: func(ctx context.Context) error {
				err := a.consumer.Stop()
				a.trigger.Stop()
				return err
			},
		})
	}

	return a, nil
}

// reload rebuilds the index and drops cached lookups built from the old data
func (a *app) reload(ctx context.Context) error {
	if _, err := a.holder.Reload(ctx); err != nil {
		return err
	}
	a.lookup.Purge(ctx)
	return nil
}

func (a *app) start(ctx context.Context) error {
	return a.startup.Start(ctx)
}

func (a *app) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.startup.Stop(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func databaseConfig() database.Config {
	return database.Config{
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}
}

func migrationConfig() database.MigrationConfig {
	version := cfg.DatabaseMigrationVersion
	if version < 0 {
		version = 0
	}
	return database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(version),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	}
}

func metadataConfig() reconcile.MetadataConfig {
	def := reconcile.DefaultMetadataConfig()
	return reconcile.MetadataConfig{
		Name:              cfg.ServiceName,
		IdentifierSpace:   cfg.ServiceIdentifierSpace,
		SchemaSpace:       cfg.ServiceSchemaSpace,
		ViewURL:           cfg.ServiceViewURL,
		ServiceURL:        cfg.ServiceURL,
		SuggestPath:       def.SuggestPath,
		FlyoutPath:        def.FlyoutPath,
		DefaultQueryTypes: def.DefaultQueryTypes,
	}
}
