package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/riskforge/lossengine/internal/service"
	"github.com/riskforge/lossengine/internal/types"
)

func newLECCurveCmd() *cobra.Command {
	var ticks []float64
	var provenance bool
	cmd := &cobra.Command{
		Use:   "lec-curve <tree-id> <node-id>",
		Short: "Get a node's loss exceedance curve",
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
			var opts []service.LECCurveOption
			if provenance {
				opts = append(opts, service.WithProvenance())
			}
			curve, err := a.svc.GetLECCurve(a.ctx, treeID, nodeID, ticks, opts...)
			if err != nil {
				return err
			}
			return printJSON(cmd, curve)
		},
	}
	cmd.Flags().Float64SliceVar(&ticks, "tick", nil, "Exceedance-probability tick to include (repeatable); the standard set if omitted")
	cmd.Flags().BoolVar(&provenance, "provenance", false, "Attach the tree provenance covering this node and its leaves")
	return cmd
}

func newLECCurvesCmd() *cobra.Command {
	var ticks []float64
	cmd := &cobra.Command{
		Use:   "lec-curves <tree-id> <node-id>...",
		Short: "Get several nodes' loss exceedance curves aligned onto a shared tick domain",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			treeID, err := types.ParseTreeID(args[0])
			if err != nil {
				return err
			}
			nodeIDs := make([]types.NodeID, 0, len(args)-1)
			for _, raw := range args[1:] {
				id, err := types.ParseNodeID(raw)
				if err != nil {
					return err
				}
				nodeIDs = append(nodeIDs, id)
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			bundle, err := a.svc.GetLECCurvesMulti(a.ctx, treeID, nodeIDs, ticks)
			if err != nil {
				return err
			}
			return printJSON(cmd, bundle)
		},
	}
	cmd.Flags().Float64SliceVar(&ticks, "tick", nil, "Exceedance-probability tick to include (repeatable); the standard set if omitted")
	return cmd
}

func newProbExceedanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prob-exceedance <tree-id> <node-id> <threshold>",
		Short: "Get the fraction of a node's simulated trials exceeding threshold",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			treeID, nodeID, err := parseTreeAndNode(args)
			if err != nil {
				return err
			}
			threshold, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			p, err := a.svc.ProbOfExceedance(a.ctx, treeID, nodeID, threshold)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]float64{"probability": p})
		},
	}
}

func init() {
	rootCmd.AddCommand(newLECCurveCmd())
	rootCmd.AddCommand(newLECCurvesCmd())
	rootCmd.AddCommand(newProbExceedanceCmd())
}
