package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"granite/pkg/cli"
	"granite/pkg/config"
	"granite/pkg/server"
	"granite/pkg/telemetry/logging"
)

var runFlags struct {
	test     bool
	daemon   bool
	upgrade  bool
	listen   string
	logLevel string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Granite proxy server",
	Long: `Start the Granite proxy server with the specified configuration.

The server listens on the configured HTTP/HTTPS bind addresses, proxying to
origin groups selected by the route store, and serves the configuration API
on its own bind address.

Examples:
  # Start with default config
  granite run

  # Start with a specific config file
  granite run --conf /etc/granite/granite.yaml

  # Validate config without starting any listener
  granite run --test

  # Override a bind address
  granite run --listen 0.0.0.0:8443`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runFlags.test, "test", false, "load and validate the configuration, then exit")
	runCmd.Flags().BoolVar(&runFlags.daemon, "daemon", false, "record that the process should detach from its controlling terminal (daemonization is handled by the process supervisor)")
	runCmd.Flags().BoolVar(&runFlags.upgrade, "upgrade", false, "declare that this process is taking over listening sockets from a prior instance; requires upgrade_sock (socket handoff is handled by the process supervisor)")
	runCmd.Flags().StringVarP(&runFlags.listen, "listen", "l", "", "override the first HTTP bind address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "log level (debug, info, warn, error); default info")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	cfg.Daemon = cfg.Daemon || runFlags.daemon
	if runFlags.upgrade {
		if cfg.UpgradeSock == "" {
			return cli.NewConfigError("upgrade_sock", "--upgrade requires upgrade_sock to be set in the configuration")
		}
	}
	if runFlags.listen != "" {
		if len(cfg.Proxy.HTTPBindAddrs) == 0 {
			cfg.Proxy.HTTPBindAddrs = []string{runFlags.listen}
		} else {
			cfg.Proxy.HTTPBindAddrs[0] = runFlags.listen
		}
	}
	logLevel := runFlags.logLevel
	if logLevel == "" {
		logLevel = "info"
	}

	if runFlags.test {
		fmt.Println("configuration valid")
		return nil
	}

	logger, err := logging.New(logging.Config{Level: logLevel, Format: "json"})
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	if cfg.Threads > 0 {
		runtime.GOMAXPROCS(cfg.Threads)
	}

	srv := server.New(cfg, nil, nil, logger)

	ctx := cli.SetupSignalHandler()
	logger.Info("starting granite",
		"http_bind_addrs", cfg.Proxy.HTTPBindAddrs,
		"https_bind_addrs", cfg.Proxy.HTTPSBindAddrs,
		"api_bind_addr", cfg.API.BindAddr,
	)

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	logger.Info("granite stopped")
	return nil
}
