package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/crossidm/idsync/client"
)

func newAuditCmd() *cobra.Command {
	var entityType, entityID, action, since string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the operational audit log",
		Run: func(cmd *cobra.Command, args []string) {
			opts := &client.AuditQueryOptions{
				EntityType: entityType,
				EntityID:   entityID,
				Action:     action,
				Limit:      limit,
				Offset:     offset,
			}
			if since != "" {
				t, err := time.Parse(time.RFC3339, since)
				if err != nil {
					fatal("parse --since (RFC3339)", err)
				}
				opts.Since = &t
			}
			entries, err := apiClient.Audit.Query(context.Background(), opts)
			if err != nil {
				fatal("query audit", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, e.EntityType, e.EntityID,
					})
				}
				formatTable([]string{"TIME", "ACTION", "ENTITY", "ID"}, rows)
				return
			}
			output(entries, "")
		},
	}
	cmd.Flags().StringVar(&entityType, "entity-type", "", "Filter by entity type")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "Filter by entity ID")
	cmd.Flags().StringVar(&action, "action", "", "Filter by action")
	cmd.Flags().StringVar(&since, "since", "", "Only entries after this RFC3339 timestamp")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries")
	cmd.Flags().IntVar(&offset, "offset", 0, "Query offset")
	return cmd
}
