package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"jigsaw-online/internal/analytics"
	"jigsaw-online/internal/game"
	"jigsaw-online/internal/repository"
	"jigsaw-online/internal/user"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := loadConfig()

	root := &cobra.Command{
		Use:          "jigsaw-server",
		Short:        "Jigsaw puzzle game server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "SQLite database path (DATABASE_PATH)")

	root.AddCommand(newServeCmd(&cfg))
	root.AddCommand(newSeedCmd(&cfg))
	return root
}

func newServeCmd(cfg *Config) *cobra.Command {
	var idleMinutes int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("idle-minutes") {
				cfg.SessionIdle = time.Duration(idleMinutes) * time.Minute
			}
			return runServer(cmd.Context(), *cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Port, "port", cfg.Port, "listen port (PORT)")
	cmd.Flags().Float64Var(&cfg.BoardWidth, "board-width", cfg.BoardWidth, "board width in points (BOARD_WIDTH)")
	cmd.Flags().Float64Var(&cfg.BoardHeight, "board-height", cfg.BoardHeight, "board height in points (BOARD_HEIGHT)")
	cmd.Flags().IntVar(&idleMinutes, "idle-minutes", int(cfg.SessionIdle/time.Minute), "close games idle this long (SESSION_IDLE_MINUTES)")
	cmd.Flags().BoolVar(&cfg.Seed, "seed", cfg.Seed, "seed sample puzzles and the test user on startup")
	return cmd
}

func newSeedCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed sample puzzles and the test user, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := initDatabase(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer db.Close()
			return seedAll(cmd.Context(), repository.NewSQLiteRepository(db))
		},
	}
}

func initDatabase(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; progress saves from many games would otherwise hit SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if err := repository.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func runServer(ctx context.Context, cfg Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := initDatabase(cfg.DatabasePath)
	if err != nil {
		log.Printf("Failed to initialize database: %v", err)
		return err
	}
	defer db.Close()

	repo := repository.NewSQLiteRepository(db)
	if cfg.Seed {
		if err := seedAll(ctx, repo); err != nil {
			log.Printf("Warning: Failed to seed: %v", err)
		}
	}

	tracker := analytics.NewTracker(cfg.PostHogAPIKey, cfg.PostHogEndpoint)
	defer tracker.Close()

	games := game.NewManager(repo, cfg.gameConfig(), tracker)
	defer games.CloseAll()

	c, err := startJobs(repo, games, cfg.SessionIdle)
	if err != nil {
		return err
	}
	defer c.Stop()

	srv := newServer(cfg, db, repo, user.NewService(repo), games)
	httpServer := &http.Server{
		Addr:              cfg.addr(),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on http://localhost%s", cfg.addr())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}
	return nil
}
