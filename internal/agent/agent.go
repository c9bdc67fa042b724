package agent

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/mwantia/fabric/pkg/container"
	config "github.com/openvfx/gopublish/internal/config/server"
	"github.com/openvfx/gopublish/pkg/anatomy"
	"github.com/openvfx/gopublish/pkg/db/store"
	"github.com/openvfx/gopublish/pkg/log"
	"github.com/openvfx/gopublish/pkg/publish"
	"github.com/openvfx/gopublish/pkg/transfer"
)

type PublishAgent struct {
	mutex sync.RWMutex
	wait  sync.WaitGroup

	cfg *config.BaseServerConfig
	sc  *container.ServiceContainer
	log log.LoggerService

	store      store.EntityStore
	integrator *publish.Integrator
	watcher    *Watcher
}

func NewAgent(cfg *config.BaseServerConfig) *PublishAgent {
	return &PublishAgent{
		cfg: cfg,
		sc:  container.NewServiceContainer(),
		log: log.NewLoggerService("gopublish", cfg.Log),
	}
}

func (pa *PublishAgent) setupServices(ctx context.Context) error {
	errs := container.Errors{}

	pa.log.Debug("Registering 'LoggerService'...")
	errs.Add(container.Register[log.LoggerServiceImpl](pa.sc,
		container.With[log.LoggerService](),
		container.WithInstance(pa.log)))

	pa.log.Debug("Registering 'EntityStore'...")
	sqliteStore, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path: pa.cfg.Metadata.SQLite.Path,
	})
	if err != nil {
		return err
	}
	if err := sqliteStore.Connect(ctx); err != nil {
		return err
	}
	if err := sqliteStore.Migrate(ctx); err != nil {
		return err
	}
	pa.store = sqliteStore
	errs.Add(container.Register[store.SQLiteStore](pa.sc,
		container.With[store.EntityStore](),
		container.WithInstance(sqliteStore)))

	projectAnatomy, err := anatomy.New(
		pa.cfg.Anatomy.Project,
		pa.cfg.Anatomy.Roots,
		pa.cfg.Anatomy.Templates)
	if err != nil {
		return err
	}

	pa.integrator = publish.NewIntegrator(pa.log, pa.store, projectAnatomy,
		publish.Config{
			TransferMode:      transfer.Mode(pa.cfg.Publish.TransferMode),
			TransferWorkers:   pa.cfg.Publish.TransferWorkers,
			AllowReplacements: pa.cfg.Publish.AllowReplacements,
			Template:          pa.cfg.Publish.DefaultTemplate,
		})

	return errs.Errors()
}

func (pa *PublishAgent) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	pa.mutex.Lock()

	if err := pa.setupServices(ctx); err != nil {
		pa.mutex.Unlock()
		return err
	}

	if pa.cfg.Watch.Enabled {
		watcher, err := NewWatcher(pa.log, pa.cfg.Watch, pa.store, pa.integrator)
		if err != nil {
			pa.mutex.Unlock()
			return err
		}
		pa.watcher = watcher

		pa.wait.Add(1)
		go func() {
			defer pa.wait.Done()
			if err := watcher.Run(ctx); err != nil {
				pa.log.Error("Watcher stopped: %v", err)
			}
		}()
	}

	pa.mutex.Unlock()
	<-ctx.Done()

	timeout, err := time.ParseDuration(pa.cfg.ShutdownTimeout)
	if err != nil {
		// Set default of 60 seconds if error
		timeout = 60 * time.Second
	}

	shutdown, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if pa.watcher != nil {
		pa.watcher.Close()
	}

	if err := pa.sc.Cleanup(shutdown); err != nil {
		return fmt.Errorf("failed to complete service container cleanup: %w", err)
	}

	pa.wait.Wait()

	if pa.store != nil {
		return pa.store.Close()
	}
	return nil
}
