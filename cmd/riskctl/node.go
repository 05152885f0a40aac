package main

import (
	"github.com/spf13/cobra"

	"github.com/riskforge/lossengine/internal/types"
	"github.com/riskforge/lossengine/internal/validate"
)

func parseTreeAndNode(args []string) (types.TreeID, types.NodeID, error) {
	treeID, err := types.ParseTreeID(args[0])
	if err != nil {
		return types.TreeID{}, types.NodeID{}, err
	}
	nodeID, err := types.ParseNodeID(args[1])
	if err != nil {
		return types.TreeID{}, types.NodeID{}, err
	}
	return treeID, nodeID, nil
}

func newPatchDistributionCmd() *cobra.Command {
	var body string
	cmd := &cobra.Command{
		Use:   "patch-distribution <tree-id> <node-id>",
		Short: "Replace a leaf's distribution from a JSON request body",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			treeID, nodeID, err := parseTreeAndNode(args)
			if err != nil {
				return err
			}
			var req validate.DistributionRequest
			if err := readBody(body, &req); err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			tree, err := a.svc.PatchDistribution(a.ctx, treeID, nodeID, req)
			if err != nil {
				return err
			}
			return printJSON(cmd, tree)
		},
	}
	cmd.Flags().StringVar(&body, "body", "-", "Path to a DistributionRequest JSON body, or - for stdin")
	return cmd
}

func newRenameNodeCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "rename-node <tree-id> <node-id>",
		Short: "Rename a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			treeID, nodeID, err := parseTreeAndNode(args)
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			tree, err := a.svc.RenameNode(a.ctx, treeID, nodeID, name)
			if err != nil {
				return err
			}
			return printJSON(cmd, tree)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "The node's new name")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newDeleteNodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-node <tree-id> <node-id>",
		Short: "Delete a node, cascading to its descendants if it is a portfolio",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			treeID, nodeID, err := parseTreeAndNode(args)
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			tree, err := a.svc.DeleteNode(a.ctx, treeID, nodeID)
			if err != nil {
				return err
			}
			return printJSON(cmd, tree)
		},
	}
}

func init() {
	rootCmd.AddCommand(newPatchDistributionCmd())
	rootCmd.AddCommand(newRenameNodeCmd())
	rootCmd.AddCommand(newDeleteNodeCmd())
}
