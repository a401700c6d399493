package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kvfs/kvfs/internal/config"
	"github.com/kvfs/kvfs/internal/content"
	"github.com/kvfs/kvfs/internal/daemon"
	"github.com/kvfs/kvfs/internal/logger"
	"github.com/kvfs/kvfs/internal/metadata"
	"github.com/kvfs/kvfs/internal/metadata/badgerstore"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon",
	RunE:  runStart,
}

func init() {
	flags := startCmd.Flags()
	flags.String("listen", "", "TCP address to accept connections on (default 0.0.0.0:8888)")
	flags.String("data-dir", "", "directory holding the badger stores and file contents (default .)")
	flags.String("log-level", "", "DEBUG, INFO, WARN, or ERROR")
	flags.String("log-format", "", "text or json")

	v := viper.New()
	_ = v.BindPFlag("listen", flags.Lookup("listen"))
	_ = v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("logging.format", flags.Lookup("log-format"))
	startViper = v
}

var startViper *viper.Viper

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDaemonConfig(startViper)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return err
	}

	ns, err := badgerstore.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer ns.Close()

	store := content.NewStore(cfg.DataDir)
	engine := metadata.NewEngine(ns.Attr, ns.Dir, ns.Loc, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := engine.Init(ctx); err != nil {
		return err
	}

	srv := daemon.New(engine, cfg.ListenAddr, cfg.ShutdownTimeout)
	if err := srv.Listen(); err != nil {
		return err
	}
	logger.Info("kvfsd starting", "addr", srv.Addr().String(), "data_dir", cfg.DataDir)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	select {
	case err := <-serveErr:
		return err
	case sig := <-sigCh:
		logger.Info("kvfsd received signal, shutting down", "signal", sig.String())
		srv.Shutdown()
		return nil
	}
}
