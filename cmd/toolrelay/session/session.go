// Package session assembles the conversation stack from the command-line
// flags and the configuration file.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/toolrelay/pkg/artifact"
	"github.com/papercomputeco/toolrelay/pkg/backend"
	"github.com/papercomputeco/toolrelay/pkg/config"
	"github.com/papercomputeco/toolrelay/pkg/conversation"
	"github.com/papercomputeco/toolrelay/pkg/dispatch"
	"github.com/papercomputeco/toolrelay/pkg/history"
	"github.com/papercomputeco/toolrelay/pkg/storage"
	"github.com/papercomputeco/toolrelay/pkg/storage/file"
	"github.com/papercomputeco/toolrelay/pkg/storage/inmemory"
	"github.com/papercomputeco/toolrelay/pkg/storage/sqlite"
	"github.com/papercomputeco/toolrelay/pkg/tool"
)

const closeTimeout = 5 * time.Second

// Flags are the persistent flags shared by every subcommand. Flags that are
// set override the configuration file.
type Flags struct {
	ConfigPath string
	Debug      bool
	BaseURL    string
	Storage    string
	DBPath     string
	Artifacts  string

	cmd *cobra.Command
}

// Register binds the flags to cmd's persistent flag set.
func (f *Flags) Register(cmd *cobra.Command) {
	f.cmd = cmd
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.ConfigPath, "config", "c", "~/.toolrelay/config.toml", "Path to the TOML configuration file")
	pf.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	pf.StringVar(&f.BaseURL, "backend", "", "Tool backend base URL (e.g., http://localhost:8010)")
	pf.StringVar(&f.Storage, "storage", "", "History storage driver: memory, file or sqlite")
	pf.StringVarP(&f.DBPath, "db", "d", "", "History location: database file for sqlite, directory for file")
	pf.StringVarP(&f.Artifacts, "out", "o", "", "Directory generated files are saved to")
}

// Config loads the configuration file and applies the flags on top.
func (f *Flags) Config() (config.Config, error) {
	required := f.cmd != nil && f.cmd.PersistentFlags().Changed("config")

	cfg, err := config.Load(f.ConfigPath, required)
	if err != nil {
		return cfg, err
	}

	if f.Debug {
		cfg.Log.Debug = true
	}
	if f.BaseURL != "" {
		cfg.Backend.BaseURL = f.BaseURL
	}
	if f.Storage != "" {
		cfg.Storage.Driver = f.Storage
	}
	if f.DBPath != "" {
		cfg.Storage.Path = f.DBPath
	}
	if f.Artifacts != "" {
		cfg.Artifacts.Dir = f.Artifacts
	}

	return cfg, cfg.Validate()
}

// Session is a loaded conversation and the components serving it.
type Session struct {
	Config     config.Config
	Logger     *zap.Logger
	Log        *history.Log
	Backend    *backend.Client
	Controller *conversation.Controller

	store storage.Store
}

// Open opens the history store, loads the log and wires the controller.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...conversation.Option) (*Session, error) {
	store, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	log := history.NewLog(store, cfg.Storage.HistoryKey)
	if err := log.Load(ctx); err != nil {
		store.Close()
		return nil, err
	}

	logger.Debug("history loaded",
		zap.String("driver", cfg.Storage.Driver),
		zap.String("path", cfg.Storage.Path),
		zap.Int("turns", log.Len()),
	)

	client := backend.New(cfg.BackendClientConfig(), logger)
	controller := conversation.New(
		log,
		tool.NewClassifier(client, logger),
		dispatch.New(client, logger),
		artifact.NewDirSaver(cfg.Artifacts.Dir, logger),
		logger,
		opts...,
	)

	return &Session{
		Config:     cfg,
		Logger:     logger,
		Log:        log,
		Backend:    client,
		Controller: controller,
		store:      store,
	}, nil
}

// Close writes the log one last time, which carries any turn whose earlier
// write failed, and releases the history store.
func (s *Session) Close() error {
	if s.Log.Len() > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()

		if err := s.Log.Persist(ctx); err != nil {
			s.Logger.Error("final history write failed", zap.Error(err))
		}
	}

	return s.store.Close()
}

// OpenStore opens the storage driver named in cfg.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return inmemory.NewDriver(), nil
	case config.DriverFile:
		d, err := file.NewDriver(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("could not open history directory %s: %w", cfg.Path, err)
		}
		return d, nil
	case config.DriverSQLite:
		d, err := sqlite.NewDriver(ctx, filepath.Clean(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("could not open history database %s: %w", cfg.Path, err)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
