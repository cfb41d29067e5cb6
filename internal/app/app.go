package app

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hance08/tefpos/internal/config"
	"github.com/hance08/tefpos/internal/logging"
	"github.com/hance08/tefpos/internal/service"
	"github.com/hance08/tefpos/internal/store"
	"github.com/hance08/tefpos/internal/tef"
	"go.uber.org/zap"
)

type App struct {
	Service *service.Service
	Store   store.Repository
	Log     *zap.Logger
}

// NewApp initializes logging, the journal database and the TEF engine, then
// returns the wired App entity.
func NewApp(cfg *config.Config, migrationFS fs.FS) (*App, func(), error) {
	appDir, _ := getAppDataDir()

	logPath := cfg.Log.Path
	if logPath == "" {
		logPath = filepath.Join(appDir, "tefpos.log")
	}
	logger, logCleanup, err := logging.New(logPath, cfg.Log.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize protocol log: %w", err)
	}

	dbPathRaw := cfg.Database.Path
	if dbPathRaw == "" {
		dbPathRaw = filepath.Join(appDir, "tefpos.db")
	}
	dbStore, err := store.NewStore(dbPathRaw, migrationFS)
	if err != nil {
		logCleanup()
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	engine, err := buildEngine(cfg, appDir, logger)
	if err != nil {
		dbStore.Close()
		logCleanup()
		return nil, nil, err
	}

	svc := service.NewService(engine, dbStore, logger)
	if err := svc.Payment.Rehydrate(); err != nil {
		dbStore.Close()
		logCleanup()
		return nil, nil, err
	}

	cleanup := func() {
		if err := dbStore.Close(); err != nil {
			fmt.Printf("Error closing DB: %v\n", err)
		}
		logCleanup()
	}

	return &App{
		Service: svc,
		Store:   dbStore,
		Log:     logger,
	}, cleanup, nil
}

func buildEngine(cfg *config.Config, appDir string, logger *zap.Logger) (*tef.Engine, error) {
	codec, err := tef.NewCodec(cfg.Protocol.Codepage)
	if err != nil {
		return nil, err
	}

	if err := tef.PrepareDirectories(cfg.Directories.Request, cfg.Directories.Response, logger); err != nil {
		return nil, err
	}

	seqPath := cfg.Protocol.SequenceFile
	if seqPath == "" {
		seqPath = filepath.Join(appDir, "sequence.dat")
	}

	waitCfg := tef.DefaultWaitConfig()
	if cfg.Protocol.AckTimeout > 0 {
		waitCfg.AckTimeout = cfg.Protocol.AckTimeout
	}
	if cfg.Protocol.AckInterval > 0 {
		waitCfg.AckInterval = cfg.Protocol.AckInterval
	}
	if cfg.Protocol.ResultTimeout > 0 {
		waitCfg.ResultTimeout = cfg.Protocol.ResultTimeout
	}
	if cfg.Protocol.ResultInterval > 0 {
		waitCfg.ResultInterval = cfg.Protocol.ResultInterval
	}
	if cfg.Protocol.SettleDelay > 0 {
		waitCfg.SettleDelay = cfg.Protocol.SettleDelay
	}

	writer := tef.NewRequestWriter(cfg.Directories.Request, codec)
	waiter := tef.NewResponseWaiter(cfg.Directories.Response, codec, waitCfg, logger)
	seq := tef.NewFileSequence(seqPath, logger)

	return tef.NewEngine(writer, waiter, seq, tef.NewLedger(), cfg.Protocol.BatchPacing, logger), nil
}

func getAppDataDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("unable to determine user home directory: %w", err)
		}
		return filepath.Join(home, ".tefpos"), nil
	}

	return filepath.Join(configDir, "tefpos"), nil
}
