package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgefleet/agent/internal/agent"
	"github.com/edgefleet/agent/internal/client"
	"github.com/edgefleet/agent/internal/config"
	"github.com/edgefleet/agent/internal/deploylog"
	"github.com/edgefleet/agent/internal/identity"
	"github.com/edgefleet/agent/internal/logging"
	"github.com/edgefleet/agent/internal/remoteshell"
	"github.com/edgefleet/agent/internal/security"
	"github.com/edgefleet/agent/internal/statefsm"
)

const version = "0.1.0"

var (
	dataDir        string
	logFile        string
	logLevel       string
	forceBootstrap bool
	noSyslog       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "agent",
		Short:   "Device-side OTA update agent",
		Long:    "Identifies the device, reports inventory, polls for deployments, and drives resumable artifact installs.",
		Version: version,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "/var/lib/mender", "state directory")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file (also mirrored to stderr unless --no-syslog is set)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warning, error, critical")
	rootCmd.PersistentFlags().BoolVar(&forceBootstrap, "forcebootstrap", false, "regenerate the device key even if one exists")
	rootCmd.PersistentFlags().BoolVar(&noSyslog, "no-syslog", false, "do not mirror logs to stderr when --log-file is set")

	rootCmd.AddCommand(
		bootstrapCmd(),
		daemonCmd(),
		showArtifactCmd(),
		reportCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogging() error {
	return logging.Init(logLevel, logFile, !noSyslog)
}

func bootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Generate (or regenerate) the device's private key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogging(); err != nil {
				return err
			}
			paths := agent.NewPaths(dataDir)
			if err := os.MkdirAll(dataDir, 0755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}

			if forceBootstrap {
				if _, err := security.Generate(paths.PrivateKey); err != nil {
					return fmt.Errorf("generate key: %w", err)
				}
				logging.Op().Info("regenerated device key", "path", paths.PrivateKey)
				return nil
			}

			if _, err := security.LoadOrGenerate(paths.PrivateKey); err != nil {
				return fmt.Errorf("bootstrap key: %w", err)
			}
			logging.Op().Info("device key ready", "path", paths.PrivateKey)
			return nil
		},
	}
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the update agent's state machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogging(); err != nil {
				return err
			}

			m, err := buildMachine()
			if err != nil {
				return err
			}

			statefsm.RunMaster(m)
			return nil
		},
	}
}

func showArtifactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show-artifact",
		Short: "Print the currently installed artifact_info",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogging(); err != nil {
				return err
			}
			paths := agent.NewPaths(dataDir)

			info := identity.ArtifactInfo(paths)
			name := identity.First(info, "artifact_name")
			if name == "" {
				fmt.Fprintln(os.Stderr, "no artifact_name found in artifact_info")
				return nil
			}
			fmt.Println(name)
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	var success, failure bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report a deployment outcome using the currently held lock file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogging(); err != nil {
				return err
			}
			if success == failure {
				return fmt.Errorf("exactly one of --success or --failure is required")
			}

			paths := agent.NewPaths(dataDir)
			if !agent.LockFileExists(paths) {
				return fmt.Errorf("report requires a live lock file, none found at %s", paths.LockFile)
			}
			deploymentID, err := agent.ReadLockFile(paths)
			if err != nil {
				return fmt.Errorf("read lock file: %w", err)
			}

			cfg, err := config.Load(paths.GlobalConfig, paths.LocalConfig)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			key, err := security.LoadOrGenerate(paths.PrivateKey)
			if err != nil {
				return fmt.Errorf("load device key: %w", err)
			}
			deviceIdentity := identity.Collect(paths)

			api, err := client.New(client.Config{ServerURL: cfg.ServerURL, ServerCertificate: cfg.ServerCertificate})
			if err != nil {
				return fmt.Errorf("build api client: %w", err)
			}

			token := client.Authenticate(api, deviceIdentity, key, cfg.TenantToken)
			if token == "" {
				return fmt.Errorf("failed to authenticate with the server")
			}

			status := client.StatusSuccess
			if failure {
				status = client.StatusFailure
			}
			if err := client.ReportStatus(api, token, deploymentID, status); err != nil {
				return fmt.Errorf("report status: %w", err)
			}

			if failure {
				sink := deploylog.New(paths.DeploymentLog)
				if err := client.ReportLog(api, token, deploymentID, sink.Marshal()); err != nil {
					return fmt.Errorf("report log: %w", err)
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&success, "success", false, "report the deployment as successful")
	cmd.Flags().BoolVar(&failure, "failure", false, "report the deployment as failed")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the agent version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}

// buildMachine assembles the full daemon-mode collaborator set: config,
// identity, key, API client, remote shell controller, and the
// statefsm.Machine that wires them together.
func buildMachine() (*statefsm.Machine, error) {
	paths := agent.NewPaths(dataDir)

	cfg, err := config.Load(paths.GlobalConfig, paths.LocalConfig)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	key, err := security.LoadOrGenerate(paths.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("load device key: %w", err)
	}

	deviceIdentity := identity.Collect(paths)

	ctx := agent.New(cfg, paths, deviceIdentity, key)

	api, err := client.New(client.Config{ServerURL: cfg.ServerURL, ServerCertificate: cfg.ServerCertificate})
	if err != nil {
		return nil, fmt.Errorf("build api client: %w", err)
	}

	tlsConfig, err := client.TLSConfig(client.Config{ServerCertificate: cfg.ServerCertificate})
	if err != nil {
		return nil, fmt.Errorf("build tls config: %w", err)
	}
	shell := remoteshell.New(cfg.ServerURL, tlsConfig, func() string { return ctx.Token })

	return statefsm.New(ctx, api, shell), nil
}
