package main

import (
	"github.com/leofalp/mathchat/internal/config"
	"github.com/spf13/cobra"
)

func newRootCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mathchat",
		Short: "Chat with a local model that can call arithmetic tools",
		Long: `mathchat streams a conversation with an OpenAI-compatible model server
(Ollama by default) and lets the model call Add, Subtract, Multiply and Divide.

Settings come from flags, MATHCHAT_* environment variables, a .env file and an
optional mathchat.yaml, in that order of precedence.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return app.Chat(cmd.Context(), cfg)
		},
		Version: Version,
	}
	config.RegisterFlags(cmd.Flags())

	cmd.AddCommand(newToolsCommand(app))
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	configFile, err := flags.GetString(config.FlagConfig)
	if err != nil {
		return nil, err
	}
	envFile, err := flags.GetString(config.FlagEnvFile)
	if err != nil {
		return nil, err
	}
	return config.Load(config.LoadOptions{
		ConfigFile: configFile,
		EnvFile:    envFile,
		Flags:      flags,
	})
}
