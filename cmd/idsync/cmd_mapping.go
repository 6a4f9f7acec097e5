package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crossidm/idsync/client"
)

func newMappingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Manage attribute mappings",
	}
	cmd.AddCommand(mappingCreateCmd())
	cmd.AddCommand(mappingListCmd())
	cmd.AddCommand(mappingDeleteCmd())
	return cmd
}

func mappingCreateCmd() *cobra.Command {
	m := &client.AttributeMapping{}
	cmd := &cobra.Command{
		Use:   "create <system-id>",
		Short: "Add an attribute mapping to a system",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			created, err := apiClient.Systems.CreateMapping(context.Background(), args[0], m)
			if err != nil {
				fatal("create mapping", err)
			}
			output(created, created.ID)
		},
	}
	cmd.Flags().StringVar(&m.EntityType, "entity-type", "IDENTITY", "Entity type: IDENTITY|ROLE|TREE")
	cmd.Flags().StringVar(&m.Name, "name", "", "Remote attribute name")
	cmd.Flags().StringVar(&m.Property, "property", "", "Internal property name")
	cmd.Flags().BoolVar(&m.UID, "uid", false, "Use as the UID attribute")
	cmd.Flags().BoolVar(&m.EntityAttribute, "entity-attribute", true, "Write to the entity itself")
	cmd.Flags().BoolVar(&m.Extended, "extended", false, "Store as extended attribute")
	cmd.Flags().BoolVar(&m.Confidential, "confidential", false, "Encrypt at rest, never echo")
	cmd.Flags().StringVar(&m.TransformScript, "transform", "", "Transform script applied to the remote value")
	cmd.Flags().StringVar(&m.Strategy, "strategy", "", "Merge strategy: SET|MERGE|WRITE_IF_NULL")
	cmd.MarkFlagRequired("name")     //nolint:errcheck
	cmd.MarkFlagRequired("property") //nolint:errcheck
	return cmd
}

func mappingListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <system-id>",
		Short: "List a system's attribute mappings",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			mappings, err := apiClient.Systems.ListMappings(context.Background(), args[0])
			if err != nil {
				fatal("list mappings", err)
			}
			if flagFmt == "table" {
				rows := make([][]string, 0, len(mappings))
				for _, m := range mappings {
					rows = append(rows, []string{
						m.ID, m.EntityType, m.Name, m.Property,
						strconv.FormatBool(m.UID), strconv.FormatBool(m.Confidential),
					})
				}
				formatTable([]string{"ID", "ENTITY", "NAME", "PROPERTY", "UID", "CONFIDENTIAL"}, rows)
				return
			}
			output(mappings, "")
		},
	}
}

func mappingDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an attribute mapping",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if err := apiClient.Systems.DeleteMapping(context.Background(), args[0]); err != nil {
				fatal("delete mapping", err)
			}
			output(map[string]any{"deleted": args[0]}, args[0])
		},
	}
}
