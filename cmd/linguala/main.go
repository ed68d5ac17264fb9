package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/linguala/linguala/internal/app"
	"github.com/linguala/linguala/internal/config"
	"github.com/linguala/linguala/internal/domain/types"
	"github.com/linguala/linguala/internal/lessons"
	"github.com/linguala/linguala/internal/observability/logger"
)

// version se inyecta en build con -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env es opcional; las variables ya seteadas tienen prioridad.
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:          "linguala",
		Short:        "Backend de Linguala: identidad multi-provider y lecciones",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", os.Getenv("LINGUALA_CONFIG"), "ruta al config YAML (env LINGUALA_CONFIG)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Arranca el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, version)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			runErr := a.Run(ctx)

			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := a.Close(closeCtx); err != nil && runErr == nil {
				runErr = err
			}
			return runErr
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Carga lecciones y un usuario admin de demostración",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return seed(cmd.Context(), cfg)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Imprime la versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	root.AddCommand(serveCmd, seedCmd, newMigrateCmd(&cfgPath), versionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// seed inserta datos de demostración de forma idempotente: si el admin
// ya existe asume que el seed corrió antes y no duplica lecciones.
func seed(ctx context.Context, cfg *config.Config) error {
	a, err := app.New(ctx, cfg, version)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Close(closeCtx)
	}()

	const adminEmail = "admin@linguala.dev"
	if _, err := a.Repo.GetUserByEmail(ctx, adminEmail); err == nil {
		fmt.Println("seed ya aplicado, nada que hacer")
		return nil
	}

	now := time.Now().UTC()
	admin := &types.UserIdentity{
		UID:         uuid.NewString(),
		Email:       adminEmail,
		DisplayName: "Admin Linguala",
		FirstName:   "Admin",
		LastName:    "Linguala",
		Providers:   []string{types.ProviderPassword},
		Role:        types.RoleAdmin,
		Status:      types.StatusActive,
		CreatedAt:   now,
		LastLogin:   now,
	}
	if err := a.Repo.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("seed: admin: %w", err)
	}

	catalog := lessons.New(a.Repo)
	demo := []lessons.CreateInput{
		{Title: "Saludos y presentaciones", Description: "Vocabulario básico para conocer gente.", Language: "ingles", Level: types.LevelBeginner},
		{Title: "Pasado simple", Description: "Verbos regulares e irregulares en pasado.", Language: "ingles", Level: types.LevelIntermediate},
		{Title: "Les articles", Description: "Artículos definidos e indefinidos.", Language: "frances", Level: types.LevelBeginner},
		{Title: "Kanji cotidianos", Description: "Los 50 kanji más frecuentes.", Language: "japones", Level: types.LevelAdvanced},
	}
	for _, in := range demo {
		if _, err := catalog.Create(ctx, in); err != nil {
			return fmt.Errorf("seed: lección %q: %w", in.Title, err)
		}
	}

	fmt.Printf("seed listo: admin %s y %d lecciones\n", adminEmail, len(demo))
	return nil
}
