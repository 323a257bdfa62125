package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/studydesk/internal/exchange"
	"github.com/at-ishikawa/studydesk/internal/toolclient"
)

func newToolsCommand() *cobra.Command {
	toolsCommand := &cobra.Command{
		Use:   "tools",
		Short: "Call the tools of a running studydesk-server",
	}

	var argsJSON string
	callCmd := &cobra.Command{
		Use:   "call <tool name>",
		Short: "Call a tool and print its JSON result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arguments map[string]any
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &arguments); err != nil {
					return fmt.Errorf("--args must be a JSON object: %w", err)
				}
			}
			return withToolClient(func(client *toolclient.Client) error {
				result, err := client.CallTool(cmd.Context(), args[0], arguments)
				if err != nil {
					return fmt.Errorf("client.CallTool(%s) > %w", args[0], err)
				}
				return exchange.WriteJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	callCmd.Flags().StringVar(&argsJSON, "args", "", `tool arguments as a JSON object, e.g. '{"markdown":"$x^2$"}'`)

	toolsCommand.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the tools offered by the server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withToolClient(func(client *toolclient.Client) error {
					list, err := client.ListTools(cmd.Context())
					if err != nil {
						return fmt.Errorf("client.ListTools() > %w", err)
					}
					for _, tool := range list {
						fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", tool.Name, tool.Description)
					}
					return nil
				})
			},
		},
		callCmd,
		&cobra.Command{
			Use:   "resources",
			Short: "List the resources offered by the server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withToolClient(func(client *toolclient.Client) error {
					list, err := client.ListResources(cmd.Context())
					if err != nil {
						return fmt.Errorf("client.ListResources() > %w", err)
					}
					for _, resource := range list {
						fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", resource.URI, resource.MimeType)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "resource <uri>",
			Short: "Print the text of a resource",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withToolClient(func(client *toolclient.Client) error {
					contents, err := client.ReadResource(cmd.Context(), args[0])
					if err != nil {
						return fmt.Errorf("client.ReadResource(%s) > %w", args[0], err)
					}
					for _, c := range contents {
						fmt.Fprintln(cmd.OutOrStdout(), c.Text)
					}
					return nil
				})
			},
		},
	)
	return toolsCommand
}

func withToolClient(fn func(client *toolclient.Client) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client := toolclient.NewClient(
		cfg.Client.ServerURL,
		cfg.Client.RetryAttempts,
		time.Duration(cfg.Client.TimeoutSeconds)*time.Second,
	)
	defer client.Close()
	return fn(client)
}
