// Package devserver runs an in-memory implementation of the storage REST
// API. Torrent and ed2k downloads are simulated and advance on a ticker;
// completed downloads become stored files of their owner.
package devserver

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophdisk/internal/common"
	"github.com/dmitrijs2005/gophdisk/internal/devserver/config"
	"github.com/dmitrijs2005/gophdisk/internal/devserver/httpapi"
	"github.com/dmitrijs2005/gophdisk/internal/devserver/store"
	"github.com/dmitrijs2005/gophdisk/internal/logging"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  *store.Store
	server *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.New(c.LogLevel, os.Stdout)

	st := store.New()
	if err := seedUsers(st, c.Users); err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}

	secret := c.SecretKey
	if secret == "" {
		var err error
		if secret, err = common.MakeRandHexString(32); err != nil {
			return nil, err
		}
		logger.Warn(context.Background(), "no secret key configured, sessions end on restart")
	}

	srv := httpapi.NewServer(c.Address, logger, st, secret, c.TokenTTL, c.MaxUploadBytes)

	return &App{config: c, logger: logger, store: st, server: srv}, nil
}

// seedUsers creates the accounts listed as "name:password,name:password".
func seedUsers(st *store.Store, users string) error {
	for _, pair := range strings.Split(users, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, password, ok := strings.Cut(pair, ":")
		if !ok {
			return fmt.Errorf("malformed user %q, want name:password", pair)
		}
		if _, err := st.AddUser(name, password); err != nil {
			return err
		}
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// advanceJobs moves simulated downloads forward every tick.
func (app *App) advanceJobs(ctx context.Context) {
	ticker := time.NewTicker(app.config.JobTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := app.store.Advance(app.config.JobStep); n > 0 {
				app.logger.Debug(ctx, "downloads advanced", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.advanceJobs(ctx)
	}()

	wg.Wait()
}
