// Package main provides credctl, the admin CLI for a Credence deployment.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/credence-graph/credence/internal/buildconfig"
	"github.com/credence-graph/credence/internal/config"
	"github.com/credence-graph/credence/internal/domain"
	"github.com/credence-graph/credence/internal/service"
	"github.com/credence-graph/credence/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "credctl",
		Short: "Admin CLI for the Credence evidence graph",
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("credctl v%s (%s)\n", buildconfig.Version(), buildconfig.Commit())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.Migrate(cmd.Context(), pool); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Println("schema applied")
			return nil
		},
	})

	purgeCmd := &cobra.Command{
		Use:   "purge-cache",
		Short: "Delete computed-inference cache rows",
		RunE:  runPurgeCache,
	}
	purgeCmd.Flags().String("entity", "", "Purge only rows for this entity id")
	rootCmd.AddCommand(purgeCmd)

	inferCmd := &cobra.Command{
		Use:   "infer <entity-id>",
		Short: "Run inference for an entity and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfer,
	}
	inferCmd.Flags().StringArray("scope", nil, "Scope filter entry as key=value (repeatable)")
	inferCmd.Flags().Bool("no-cache", false, "Bypass the computed-inference cache")
	rootCmd.AddCommand(inferCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func connect(ctx context.Context) (*pgxpool.Pool, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	dbURL := config.DatabaseURL()
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

func runPurgeCache(cmd *cobra.Command, args []string) error {
	pool, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	cache := store.NewInferenceCacheStore(pool)
	svc := service.NewInferenceService(nil, cache, zap.NewNop(),
		config.ModelVersion(), config.ConfidenceLambda())

	var entityID *uuid.UUID
	if raw, _ := cmd.Flags().GetString("entity"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid entity id %q", raw)
		}
		entityID = &id
	}

	purged, err := svc.PurgeCache(cmd.Context(), entityID)
	if err != nil {
		return err
	}
	fmt.Printf("purged %d cache rows\n", purged)
	return nil
}

func runInfer(cmd *cobra.Command, args []string) error {
	entityID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid entity id %q", args[0])
	}

	var filter domain.Scope
	pairs, _ := cmd.Flags().GetStringArray("scope")
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid scope entry %q, want key=value", pair)
		}
		if filter == nil {
			filter = domain.Scope{}
		}
		filter[k] = v
	}
	noCache, _ := cmd.Flags().GetBool("no-cache")

	pool, err := connect(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	relations := store.NewRelationStore(pool)
	cache := store.NewInferenceCacheStore(pool)
	svc := service.NewInferenceService(relations, cache, zap.NewNop(),
		config.ModelVersion(), config.ConfidenceLambda())

	result, err := svc.Infer(cmd.Context(), entityID, filter, !noCache)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
