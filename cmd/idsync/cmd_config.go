package main

import (
	"context"
	"encoding/json"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crossidm/idsync/client"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sync configurations",
	}
	cmd.AddCommand(configCreateCmd())
	cmd.AddCommand(configGetCmd())
	cmd.AddCommand(configListCmd())
	cmd.AddCommand(configUpdateCmd())
	cmd.AddCommand(configDeleteCmd())
	return cmd
}

// readConfigFile loads a sync config from a JSON file or stdin ("-").
func readConfigFile(path string) (*client.SyncConfig, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = os.ReadFile("/dev/stdin")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	var cfg client.SyncConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <file.json>",
		Short: "Create a sync configuration from a JSON file ('-' for stdin)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := readConfigFile(args[0])
			if err != nil {
				fatal("read config file", err)
			}
			created, err := apiClient.Configs.Create(context.Background(), cfg)
			if err != nil {
				fatal("create config", err)
			}
			output(created, created.ID)
		},
	}
}

func configGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a sync configuration by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := apiClient.Configs.Get(context.Background(), args[0])
			if err != nil {
				fatal("get config", err)
			}
			output(cfg, cfg.ID)
		},
	}
}

func configListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sync configurations",
		Run: func(cmd *cobra.Command, args []string) {
			configs, err := apiClient.Configs.List(context.Background())
			if err != nil {
				fatal("list configs", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, 0, len(configs))
				for _, c := range configs {
					rows = append(rows, []string{
						c.ID, c.Name, c.EntityType, c.SystemID,
						strconv.FormatBool(c.Reconciliation), strconv.FormatBool(c.Enabled),
					})
				}
				formatTable([]string{"ID", "NAME", "ENTITY", "SYSTEM", "RECONCILIATION", "ENABLED"}, rows)
				return
			}
			output(configs, "")
		},
	}
}

func configUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <file.json>",
		Short: "Replace a sync configuration from a JSON file",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := readConfigFile(args[1])
			if err != nil {
				fatal("read config file", err)
			}
			updated, err := apiClient.Configs.Update(context.Background(), args[0], cfg)
			if err != nil {
				fatal("update config", err)
			}
			output(updated, updated.ID)
		},
	}
}

func configDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a sync configuration",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Configs.Delete(context.Background(), args[0]); err != nil {
				fatal("delete config", err)
			}
			output(map[string]any{"deleted": args[0]}, args[0])
		},
	}
}
