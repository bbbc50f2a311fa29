package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	intconfig "transpo/internal/config"
	intdb "transpo/internal/db"
	router "transpo/internal/http"
	"transpo/internal/http/handlers"
	"transpo/internal/repositories"
	"transpo/internal/repositories/memory"
	"transpo/internal/services"
	"transpo/internal/utils"
)

func main() {
	env := intconfig.LoadEnv()
	utils.SetupLogger(env.LogLevel)
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, db, err := openStore(ctx, env)
	if err != nil {
		logrus.WithError(err).Fatal("store init failed")
	}
	if db != nil {
		defer db.Close()
	}

	api := &handlers.API{
		Store: store,
		Auth:  services.AuthService{Users: store.Users(), Secret: []byte(env.JWTSecret)},
		DB:    db,
	}
	r := router.NewRouter(env, api)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.WithFields(logrus.Fields{"addr": env.AppAddr, "store": env.StoreDriver}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Fatal("server stopped with error")
	}
	logrus.Info("server stopped")
}

func openStore(ctx context.Context, env intconfig.Env) (repositories.Transactor, *sql.DB, error) {
	switch env.StoreDriver {
	case intconfig.StoreMemory:
		st := memory.New()
		st.TxTimeout = env.TxTimeout
		if err := memory.SeedDemo(st, time.Now(), env.DemoPassword); err != nil {
			return nil, nil, err
		}
		return st, nil, nil
	case intconfig.StoreMySQL:
		db, err := intconfig.ConnectDB(ctx, env)
		if err != nil {
			return nil, nil, err
		}
		if err := intdb.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repositories.MySQL{DB: db, TxTimeout: env.TxTimeout}, db, nil
	default:
		return nil, nil, errors.New("unknown STORE_DRIVER " + env.StoreDriver)
	}
}
