package commands

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kvfs/kvfs/internal/bridge"
	"github.com/kvfs/kvfs/internal/config"
	"github.com/kvfs/kvfs/internal/facade"
	"github.com/kvfs/kvfs/internal/logger"
)

var errMissingContents = errors.New("kvfs: --contents is required")

var mountCmd = &cobra.Command{
	Use:   "mount <mountpoint>",
	Short: "Mount the filesystem at the given directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runMount,
}

func init() {
	flags := mountCmd.Flags()
	flags.String("name", "", "name identifying this mount's shard")
	flags.String("contents", "", "daemon address, host:port")
	flags.String("log-level", "", "DEBUG, INFO, WARN, or ERROR")
	flags.String("log-format", "", "text or json")

	v := viper.New()
	_ = v.BindPFlag("name", flags.Lookup("name"))
	_ = v.BindPFlag("contents", flags.Lookup("contents"))
	_ = v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("logging.format", flags.Lookup("log-format"))
	mountViper = v
}

var mountViper *viper.Viper

func runMount(cmd *cobra.Command, args []string) error {
	mountPoint := args[0]

	cfg, err := config.LoadClientConfig(mountViper)
	if err != nil {
		return err
	}
	cfg.MountPoint = mountPoint

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return err
	}

	if cfg.ServerAddr == "" {
		return errMissingContents
	}

	fac := facade.New(map[int]string{0: cfg.ServerAddr}, cfg.SlotRingSize, cfg.RequestTimeout)
	defer fac.Close()

	fsys := bridge.New(fac)
	srv, err := bridge.Mount(cfg.MountPoint, fsys, cfg.Name)
	if err != nil {
		return err
	}

	logger.Info("kvfs mounted", "mountpoint", cfg.MountPoint, "contents", cfg.ServerAddr, "name", cfg.Name)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("kvfs received signal, unmounting", "mountpoint", cfg.MountPoint)
		_ = srv.Unmount()
	}()

	srv.Wait()
	return nil
}
