package main

import (
	"github.com/spf13/cobra"

	"github.com/riskforge/lossengine/internal/types"
	"github.com/riskforge/lossengine/internal/validate"
)

func newCreateTreeCmd() *cobra.Command {
	var body string
	cmd := &cobra.Command{
		Use:   "create-tree",
		Short: "Create a tree from a JSON request body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req validate.TreeRequest
			if err := readBody(body, &req); err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			tree, err := a.svc.CreateTree(a.ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd, tree)
		},
	}
	cmd.Flags().StringVar(&body, "body", "-", "Path to a TreeRequest JSON body, or - for stdin")
	return cmd
}

func newGetTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-tree <tree-id>",
		Short: "Get a tree by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParseTreeID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			tree, err := a.svc.GetTree(a.ctx, id)
			if err != nil {
				return err
			}
			return printJSON(cmd, tree)
		},
	}
}

func newListTreesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-trees",
		Short: "List every stored tree's summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			summaries, err := a.svc.ListTrees(a.ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, summaries)
		},
	}
}

func newUpdateTreeCmd() *cobra.Command {
	var body string
	cmd := &cobra.Command{
		Use:   "update-tree <tree-id>",
		Short: "Replace a tree's node set from a JSON request body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParseTreeID(args[0])
			if err != nil {
				return err
			}
			var req validate.TreeRequest
			if err := readBody(body, &req); err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			tree, err := a.svc.UpdateTree(a.ctx, id, req)
			if err != nil {
				return err
			}
			return printJSON(cmd, tree)
		},
	}
	cmd.Flags().StringVar(&body, "body", "-", "Path to a TreeRequest JSON body, or - for stdin")
	return cmd
}

func newDeleteTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-tree <tree-id>",
		Short: "Delete a tree entirely",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := types.ParseTreeID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			return a.svc.DeleteTree(a.ctx, id)
		},
	}
}

func init() {
	rootCmd.AddCommand(newCreateTreeCmd())
	rootCmd.AddCommand(newGetTreeCmd())
	rootCmd.AddCommand(newListTreesCmd())
	rootCmd.AddCommand(newUpdateTreeCmd())
	rootCmd.AddCommand(newDeleteTreeCmd())
}
