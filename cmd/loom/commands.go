// commands.go contains all cobra command definitions and their flag
// configurations. Each command builder creates a command and wires it to its
// handler in handlers.go.
package main

import (
	"github.com/spf13/cobra"
)

func buildModelsCmd() *cobra.Command {
	var (
		provider   string
		capability string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the model capability catalog",
		Example: `  # All known models
  loom models

  # Models of one provider
  loom models --provider anthropic

  # Models supporting a capability set
  loom models --capability text_input+text_output+function_calling`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd.OutOrStdout(), provider, capability, all)
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "Only models of this provider")
	cmd.Flags().StringVar(&capability, "capability", "", `Required capability set ("+"-joined flags)`)
	cmd.Flags().BoolVar(&all, "all", false, "Include deprecated models")
	return cmd
}

func buildConversationsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Inspect stored conversations",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to YAML configuration file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConversationsList(cmd.Context(), cmd.OutOrStdout(), resolveConfigPath(configPath))
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one conversation's interactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConversationsShow(cmd.Context(), cmd.OutOrStdout(), resolveConfigPath(configPath), args[0])
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConversationsDelete(cmd.Context(), cmd.OutOrStdout(), resolveConfigPath(configPath), args[0])
		},
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}

func buildConfigCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to YAML configuration file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse and validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigValidate(cmd.OutOrStdout(), resolveConfigPath(configPath))
		},
	}

	cmd.AddCommand(validateCmd)
	return cmd
}
