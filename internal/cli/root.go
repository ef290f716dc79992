// Package cli implements the stepctl commands.
package cli

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/askiada/go-steps/internal/config"
	"github.com/askiada/go-steps/internal/logging"
	"github.com/askiada/go-steps/pkg/step"
)

type app struct {
	viper    *viper.Viper
	registry *step.Registry
	cfg      *config.Config
	logger   *slog.Logger
	cfgFile  string
}

// NewRootCmd builds the stepctl command tree working on the types of registry.
func NewRootCmd(registry *step.Registry) *cobra.Command {
	a := &app{
		viper:    viper.New(),
		registry: registry,
	}

	rootCmd := &cobra.Command{
		Use:   "stepctl",
		Short: "Inspect step types and run pipelines of steps",
		Long: `stepctl lists the registered step types, draws their hierarchy and runs pipelines
of steps described in YAML files.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.stepctl/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "log format: text or json")
	bindFlag(a.viper, "log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlag(a.viper, "log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(newTypesCmd(a), newGraphCmd(a), newRunCmd(a))

	return rootCmd
}

// bindFlag makes an explicitly set flag override the config file and environment.
func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	err := v.BindPFlag(key, flag)
	if err != nil {
		panic(err)
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.viper, a.cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, logging.Format(cfg.Log.Format))
	if err != nil {
		return errors.Wrap(err, "unable to create logger")
	}

	a.cfg = cfg
	a.logger = logger

	return nil
}

// Execute runs stepctl against step.DefaultRegistry.
func Execute(ctx context.Context) error {
	return NewRootCmd(step.DefaultRegistry).ExecuteContext(ctx)
}
