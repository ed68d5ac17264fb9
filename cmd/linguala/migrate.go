package main

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/linguala/linguala/internal/config"
	migrations "github.com/linguala/linguala/migrations/postgres"
)

// newMigrateCmd aplica las migraciones embebidas contra Postgres.
// Uso: linguala migrate up | linguala migrate down [pasos].
func newMigrateCmd(cfgPath *string) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Aplica las migraciones de Postgres",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = strings.ToLower(args[0])
			}
			if action != "up" && action != "down" {
				return fmt.Errorf("acción desconocida %q, usar up o down", action)
			}

			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if cfg.Storage.Postgres.DSN == "" {
				return fmt.Errorf("falta storage.postgres.dsn (o POSTGRES_DSN)")
			}

			ctx := cmd.Context()
			pool, err := pgxpool.New(ctx, cfg.Storage.Postgres.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			return runMigrations(ctx, pool, action, steps)
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "cantidad de migraciones a aplicar (0 = todas)")
	return cmd
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool, action string, steps int) error {
	files, err := listMigrations("_" + action + ".sql")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Printf("sin migraciones *_%s.sql, nada que hacer", action)
		return nil
	}
	if action == "down" {
		// down corre de la más reciente a la más vieja
		for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
			files[i], files[j] = files[j], files[i]
		}
	}
	if steps > 0 && steps < len(files) {
		files = files[:steps]
	}

	log.Printf("aplicando %d migración(es) %s", len(files), action)
	for _, f := range files {
		sql, err := migrations.FS.ReadFile(f)
		if err != nil {
			return err
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("migración %s: %w", f, err)
		}
		log.Printf("ok %s", f)
	}
	return nil
}

func listMigrations(suffix string) ([]string, error) {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
