// Package main provides the tagmon CLI for reading, writing, and
// watching tags through the runtime.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/edgefoundry/tag-runtime/engine"
	"github.com/edgefoundry/tag-runtime/journal"
	"github.com/edgefoundry/tag-runtime/registry"
	"github.com/edgefoundry/tag-runtime/tag"
)

var (
	// configFile is set by the --config flag.
	configFile string

	// verbose enables debug logging to stderr.
	verbose bool

	// reg is the shared registry, initialized on startup.
	reg *registry.Registry

	// jrnl persists events when journaling is configured.
	jrnl *journal.Journal

	// sim is the engine behind reg. Only the simulated engine is
	// built in; hardware engines plug in through the same interface.
	sim *engine.Sim

	// cfg is the loaded configuration, initialized on startup.
	cfg *viper.Viper

	log *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tagmon",
	Short: "tagmon reads, writes, and watches tags",
	Long: `Tagmon drives the tag runtime from the command line. It resolves
tags through a shared registry, so repeated operations on one key
reuse a single engine resource, and can journal every tag event to
SQLite for later inspection.`,
	PersistentPreRunE:  initRuntime,
	PersistentPostRunE: closeRuntime,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: tagmon.yaml in the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(eventsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("tagmon v0.1.0")
	},
}

// initRuntime loads config, wires logging, and builds the registry.
func initRuntime(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	var err error
	cfg, err = loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err = buildLogger(verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	tag.SetLogger(log)
	registry.SetLogger(log)
	engine.SetLogger(log)
	journal.SetLogger(log)

	opts := registry.Options{
		Entry: tag.Options{
			PollInterval:  cfg.GetDuration(cfgKeyPollInterval),
			CreateTimeout: cfg.GetDuration(cfgKeyCreateTimeout),
			OpTimeout:     cfg.GetDuration(cfgKeyOpTimeout),
		},
	}

	if path := cfg.GetString(cfgKeyJournal); path != "" {
		jrnl, err = journal.Open(path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		opts.Observers = append(opts.Observers, jrnl)
	}

	sim = engine.NewSim()
	reg = registry.New(sim, opts)
	return nil
}

// closeRuntime tears the registry and journal down.
func closeRuntime(cmd *cobra.Command, args []string) error {
	if reg != nil {
		reg.Close()
	}
	if jrnl != nil {
		if err := jrnl.Close(); err != nil {
			return fmt.Errorf("close journal: %w", err)
		}
	}
	if log != nil {
		_ = log.Sync()
	}
	return nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
