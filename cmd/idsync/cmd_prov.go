package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
)

func newProvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prov",
		Short: "Inspect and control the provisioning queue",
	}
	cmd.AddCommand(provOpsCmd())
	cmd.AddCommand(provQueueCmd())
	cmd.AddCommand(provRetryCmd())
	cmd.AddCommand(provExecuteCmd())
	return cmd
}

func provOpsCmd() *cobra.Command {
	var state string
	var limit int
	cmd := &cobra.Command{
		Use:   "ops",
		Short: "List queued provisioning operations",
		Run: func(cmd *cobra.Command, args []string) {
			ops, err := apiClient.Provisioning.ListOperations(context.Background(), state, limit)
			if err != nil {
				fatal("list operations", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, 0, len(ops))
				for _, op := range ops {
					rows = append(rows, []string{
						op.ID, op.BatchID, op.Operation, op.SystemEntityUID,
						op.ResultState, strconv.Itoa(op.Attempt),
					})
				}
				formatTable([]string{"ID", "BATCH", "OP", "UID", "STATE", "ATTEMPT"}, rows)
				return
			}
			output(ops, "")
		},
	}
	cmd.Flags().StringVar(&state, "state", "CREATED", "State filter: CREATED|EXECUTED|EXCEPTION|NOT_EXECUTED")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of operations")
	return cmd
}

func provQueueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show the pending queue depth",
		Run: func(cmd *cobra.Command, args []string) {
			depth, err := apiClient.Provisioning.QueueDepth(context.Background())
			if err != nil {
				fatal("queue depth", err)
			}
			output(map[string]int{"depth": depth}, strconv.Itoa(depth))
		},
	}
}

func provRetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry <batch-id>",
		Short: "Clear a batch backoff so the next poll retries it",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Provisioning.RetryBatch(context.Background(), args[0]); err != nil {
				fatal("retry batch", err)
			}
			output(map[string]string{"batch_id": args[0], "status": "scheduled"}, args[0])
		},
	}
}

func provExecuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute <batch-id>",
		Short: "Execute a batch synchronously",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Provisioning.ExecuteBatch(context.Background(), args[0]); err != nil {
				fatal("execute batch", err)
			}
			output(map[string]string{"batch_id": args[0], "status": "executed"}, args[0])
		},
	}
}
