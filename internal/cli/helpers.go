package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openparl/kollator/internal/config"
	"github.com/openparl/kollator/internal/db"
	"github.com/openparl/kollator/internal/render"
)

// App holds the shared application context for commands.
type App struct {
	Config *config.Config
	DB     *db.DB
}

// Close releases resources held by the App. Safe to call multiple times.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		a.DB = nil
	}
}

// bootstrap loads config and opens the database. Callers are responsible
// for calling App.Close() when done. Commands other than migrate refuse
// to run against a database with pending migrations.
func bootstrap(cmd *cobra.Command, requireCurrent bool) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if dbFlag := cmd.Flag("db"); dbFlag != nil {
		if dbPath := dbFlag.Value.String(); dbPath != "" {
			cfg.DBPath = dbPath
		}
	}
	if outFlag := cmd.Flag("output"); outFlag != nil {
		if output := outFlag.Value.String(); output != "" {
			cfg.Output = output
		}
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if requireCurrent {
		if err := database.RequiresMigrationError(); err != nil {
			database.Close()
			return nil, err
		}
	}

	return &App{Config: cfg, DB: database}, nil
}

func (a *App) renderer() *render.Renderer {
	return render.NewRenderer(os.Stdout, render.Format(a.Config.Output))
}
