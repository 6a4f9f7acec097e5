package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crossidm/idsync/client"
)

func newSystemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system",
		Short: "Manage connected systems",
	}
	cmd.AddCommand(systemCreateCmd())
	cmd.AddCommand(systemGetCmd())
	cmd.AddCommand(systemListCmd())
	cmd.AddCommand(systemDisableCmd())
	cmd.AddCommand(systemEnableCmd())
	cmd.AddCommand(systemDeleteCmd())
	return cmd
}

func systemCreateCmd() *cobra.Command {
	var description string
	var virtual bool
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Register a system",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			system, err := apiClient.Systems.Create(context.Background(), &client.CreateSystemRequest{
				Name:        args[0],
				Description: description,
				Virtual:     virtual,
			})
			if err != nil {
				fatal("create system", err)
			}
			output(system, system.ID)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "System description")
	cmd.Flags().BoolVar(&virtual, "virtual", false, "Virtual system (no connector, operations are parked)")
	return cmd
}

func systemGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a system by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			system, err := apiClient.Systems.Get(context.Background(), args[0])
			if err != nil {
				fatal("get system", err)
			}
			output(system, system.ID)
		},
	}
}

func systemListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List systems",
		Run: func(cmd *cobra.Command, args []string) {
			systems, err := apiClient.Systems.List(context.Background())
			if err != nil {
				fatal("list systems", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, 0, len(systems))
				for _, s := range systems {
					rows = append(rows, []string{
						s.ID, s.Name, strconv.FormatBool(s.Virtual), strconv.FormatBool(s.Disabled),
					})
				}
				formatTable([]string{"ID", "NAME", "VIRTUAL", "DISABLED"}, rows)
				return
			}
			output(systems, "")
		},
	}
}

func systemDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <id>",
		Short: "Disable a system (batches are postponed, not dropped)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Systems.Disable(context.Background(), args[0]); err != nil {
				fatal("disable system", err)
			}
			output(map[string]any{"id": args[0], "disabled": true}, args[0])
		},
	}
}

func systemEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <id>",
		Short: "Enable a system",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Systems.Enable(context.Background(), args[0]); err != nil {
				fatal("enable system", err)
			}
			output(map[string]any{"id": args[0], "disabled": false}, args[0])
		},
	}
}

func systemDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a system",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Systems.Delete(context.Background(), args[0]); err != nil {
				fatal("delete system", err)
			}
			output(map[string]any{"deleted": args[0]}, args[0])
		},
	}
}
