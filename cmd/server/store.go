package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"dealwatch-service/internal/domain/entity"
	"dealwatch-service/internal/domain/repository"
	"dealwatch-service/internal/infrastructure/config"
	"dealwatch-service/internal/infrastructure/persistence"
	repo "dealwatch-service/internal/interface/repository"
	"dealwatch-service/pkg/logger"
)

// stores bundles the durable repositories of the configured driver
type stores struct {
	routes repository.RouteRepository
	seen   repository.SeenAlertRepository
	close  func()
}

func openStores(ctx context.Context, cfg *config.Config, log logger.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		log.Info("Opening sqlite store", "path", cfg.SQLitePath)
		db, err := persistence.NewSQLiteDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &stores{
			routes: repo.NewSQLiteRouteRepository(db),
			seen:   repo.NewSQLiteSeenAlertRepository(db),
			close: func() {
				if err := db.Close(); err != nil {
					log.Error("sqlite close error", "error", err)
				}
			},
		}, nil

	case "postgres":
		log.Info("Connecting to PostgreSQL")
		db, err := persistence.NewPostgresDB(cfg.PostgresURI, &repo.Routes{}, &repo.SeenAlerts{})
		if err != nil {
			return nil, err
		}
		return &stores{
			routes: repo.NewGormRouteRepository(db),
			seen:   repo.NewGormSeenAlertRepository(db),
			close: func() {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			},
		}, nil

	case "mongo":
		log.Info("Connecting to MongoDB")
		client, db, err := persistence.NewMongoDatabase(ctx, persistence.MongoConfig{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDB,
			Username: cfg.MongoUser,
			Password: cfg.MongoPassword,
		})
		if err != nil {
			return nil, err
		}
		closeClient := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error("MongoDB disconnect error", "error", err)
			}
		}
		routes, err := repo.NewMongoRouteRepository(ctx, db)
		if err != nil {
			closeClient()
			return nil, fmt.Errorf("ensure route indexes: %w", err)
		}
		seen, err := repo.NewMongoSeenAlertRepository(ctx, db)
		if err != nil {
			closeClient()
			return nil, fmt.Errorf("ensure seen alert indexes: %w", err)
		}
		return &stores{routes: routes, seen: seen, close: closeClient}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func runListRoutes(ctx context.Context, out io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log := logger.NewLoggerWithLevel("warn")

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	routes, err := st.routes.LoadAll(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCHAT\tROUTE\tSTAY\tECONOMY\tLAST CHECKED\tBURST\tHALTED")
	for _, r := range routes {
		stay := "-"
		if r.IsRoundTrip() {
			stay = fmt.Sprintf("%d-%d", r.MinDays, r.MaxDays)
		}
		checked := "never"
		if !r.Schedule.LastCheckedAt.IsZero() {
			checked = r.Schedule.LastCheckedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f %s\t%s\t%t\t%t\n",
			r.ID, r.ChatID, r.Label(), stay, r.Threshold(entity.CabinEconomy), r.Currency,
			checked, r.Schedule.BurstActive, r.Schedule.Halted)
	}
	return w.Flush()
}
