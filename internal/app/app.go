package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"example.com/rocklegends/internal/auth"
	"example.com/rocklegends/internal/config"
	"example.com/rocklegends/internal/game"
	"example.com/rocklegends/internal/httpapi"
	"example.com/rocklegends/internal/migrate"
	"example.com/rocklegends/internal/server"
	"example.com/rocklegends/internal/store"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	db  *pgxpool.Pool
	rdb *redis.Client

	srv *http.Server
}

type Options struct {
	Static http.Handler // optional; if nil, no frontend is served
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger, opts Options) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	if err := game.ValidateRoleTable(); err != nil {
		return nil, err
	}

	// --- Postgres ---
	dbpool, err := pgxpool.New(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})

	// Connectivity checks. Containers come up in any order, so retry with
	// backoff before giving up.
	backoff := retry.WithMaxDuration(30*time.Second, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := dbpool.Ping(ctx); err != nil {
			log.Warn("postgres not ready", "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis not ready", "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		dbpool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping (%s db=%d): %w", cfg.Redis.Addr, cfg.Redis.DB, err)
	}

	if cfg.Postgres.RunMigrations {
		if err := migrate.Up(cfg.Postgres.URL, cfg.Postgres.MigrationsDir, log); err != nil {
			dbpool.Close()
			_ = rdb.Close()
			return nil, err
		}
	}

	// --- Stores ---
	players := store.NewPlayerStore(dbpool)
	bands := store.NewBandStore(dbpool)
	archiver := store.NewArchiver(players, bands, log)

	// --- World ---
	world := server.NewWorld(log)
	worldStore := server.NewRedisWorldStore(rdb, cfg.Redis.SnapshotTTL)
	snap, found, err := worldStore.Load(ctx)
	if err != nil {
		log.Error("world snapshot load failed, starting fresh", "err", err)
	} else if found {
		world.Restore(snap)
		log.Info("world restored from snapshot",
			"players", len(snap.Players), "bands", len(snap.Bands))
	}
	world.SetPersistence(worldStore)

	// --- Game server ---
	verifier := auth.HSVerifier{Secret: []byte(cfg.Auth.Secret)}
	gameSrv := server.NewServer(world, verifier, log)
	gameSrv.SetArchive(func(ev server.Event) {
		archiver.Archive(ev.Collection, ev.Row)
	})

	sessionH := &httpapi.SessionHandler{
		Players:   players,
		JWTSecret: []byte(cfg.Auth.Secret),
		TokenTTL:  cfg.Auth.TokenTTL,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	gameSrv.RegisterRoutes(mux)

	authMW := httpapi.AuthMiddleware([]byte(cfg.Auth.Secret))
	mux.HandleFunc("/api/session", sessionH.CreateSession)
	mux.Handle("/api/profile", authMW(http.HandlerFunc(sessionH.Profile)))
	mux.HandleFunc("/api/leaderboard", sessionH.Leaderboard)

	if opts.Static != nil {
		mux.Handle("/", opts.Static)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	return &App{cfg: cfg, log: log, db: dbpool, rdb: rdb, srv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr)

	g.Go(func() error {
		err := a.srv.ListenAndServe()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		a.log.Info("http server shutting down")
		_ = a.srv.Shutdown(shutdownCtx)
		return nil
	})

	err := g.Wait()
	_ = a.Close(context.Background())
	return err
}

func (a *App) Close(ctx context.Context) error {
	// best-effort
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	return nil
}
