package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/klabast/wb-services/garden-planner/internal/app"
)

type rootOptions struct {
	configFile string
	v          *viper.Viper
}

// NewRootCommand builds the garden-planner CLI. Without a subcommand it
// serves the planner.
func NewRootCommand(indexHTML []byte) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "garden-planner",
		Short: "Seasonal vegetable garden planner",
		Long: `Garden Planner helps plan a backyard vegetable garden: a seasonal
variety guide, frost-aware task calendars, a raised bed layout and
CSV, PNG, PDF, XLSX and ICS exports.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := app.NewViper(opts.configFile)
			if err != nil {
				return err
			}
			// Flags override file and environment only when set
			for key, flag := range map[string]string{
				"server.port":      "port",
				"server.auth_file": "auth-file",
				"log.level":        "log-level",
			} {
				if f := cmd.Flags().Lookup(flag); f != nil {
					if err := v.BindPFlag(key, f); err != nil {
						return err
					}
				}
			}
			opts.v = v
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, indexHTML)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default is ./garden-planner.yaml or $HOME/.config/garden-planner/garden-planner.yaml)")
	root.PersistentFlags().String("auth-file", "", "path to the auth file (default is auth.secret next to the binary)")
	root.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	root.Flags().IntP("port", "p", 0, "port to listen on")

	root.AddCommand(newServeCommand(opts, indexHTML))
	root.AddCommand(newHashPasswordCommand(opts))
	return root
}
