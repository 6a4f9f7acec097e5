package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crossidm/idsync/client"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Control synchronization runs",
	}
	cmd.AddCommand(syncStartCmd())
	cmd.AddCommand(syncStopCmd())
	cmd.AddCommand(syncStatusCmd())
	cmd.AddCommand(syncLogsCmd())
	cmd.AddCommand(syncActionsCmd())
	cmd.AddCommand(syncItemsCmd())
	cmd.AddCommand(syncResolveCmd())
	return cmd
}

func syncStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <config-id>",
		Short: "Start a synchronization run",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Sync.Start(context.Background(), args[0]); err != nil {
				fatal("start sync", err)
			}
			output(map[string]string{"config_id": args[0], "status": "started"}, args[0])
		},
	}
}

func syncStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <config-id>",
		Short: "Request cancellation of a running sync",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Sync.Stop(context.Background(), args[0]); err != nil {
				fatal("stop sync", err)
			}
			output(map[string]string{"config_id": args[0], "status": "stopping"}, args[0])
		},
	}
}

func syncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <config-id>",
		Short: "Show whether the config has an active run",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			status, err := apiClient.Sync.Running(context.Background(), args[0])
			if err != nil {
				fatal("sync status", err)
			}
			output(status, strconv.FormatBool(status.Running))
		},
	}
}

func syncLogsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "logs <config-id>",
		Short: "List the config's run logs",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			logs, err := apiClient.Sync.Logs(context.Background(), args[0], limit)
			if err != nil {
				fatal("sync logs", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, 0, len(logs))
				for _, l := range logs {
					ended := ""
					if l.Ended != nil {
						ended = l.Ended.Format("2006-01-02 15:04:05")
					}
					rows = append(rows, []string{
						l.ID, strconv.FormatBool(l.Running), strconv.FormatBool(l.ContainsError),
						l.Started.Format("2006-01-02 15:04:05"), ended,
					})
				}
				formatTable([]string{"ID", "RUNNING", "ERROR", "STARTED", "ENDED"}, rows)
				return
			}
			output(logs, "")
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of logs")
	return cmd
}

func syncActionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions <sync-log-id>",
		Short: "List one run's situation/action buckets",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			actions, err := apiClient.Sync.ActionLogs(context.Background(), args[0])
			if err != nil {
				fatal("sync actions", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, 0, len(actions))
				for _, a := range actions {
					rows = append(rows, []string{
						a.ID, a.Situation, a.Action, a.Result, strconv.Itoa(a.OperationCount),
					})
				}
				formatTable([]string{"ID", "SITUATION", "ACTION", "RESULT", "COUNT"}, rows)
				return
			}
			output(actions, "")
		},
	}
}

func syncItemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "items <action-log-id>",
		Short: "List one bucket's per-object item logs",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			items, err := apiClient.Sync.ItemLogs(context.Background(), args[0])
			if err != nil {
				fatal("sync items", err)
			}
			output(items, "")
		},
	}
}

func syncResolveCmd() *cobra.Command {
	var situation, action string
	cmd := &cobra.Command{
		Use:   "resolve <config-id> <uid>",
		Short: "Manually resolve one remote object with an explicit action",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			err := apiClient.Sync.ResolveItem(context.Background(), args[0], &client.ResolveItemRequest{
				Situation: situation,
				Action:    action,
				UID:       args[1],
			})
			if err != nil {
				fatal("resolve item", err)
			}
			output(map[string]string{"config_id": args[0], "uid": args[1], "status": "resolved"}, args[1])
		},
	}
	cmd.Flags().StringVar(&situation, "situation", "", "Situation: LINKED|UNLINKED|MISSING_ENTITY|MISSING_ACCOUNT")
	cmd.Flags().StringVar(&action, "action", "", "Action permitted for the situation")
	cmd.MarkFlagRequired("situation") //nolint:errcheck
	cmd.MarkFlagRequired("action")    //nolint:errcheck
	return cmd
}
