package main

import (
	"github.com/spf13/cobra"
)

// Version is the current version of the riskctl CLI tool.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "riskctl",
	Short:         "Operate a risk quantification engine instance",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `riskctl is a command-line front end for the risk quantification
engine: it creates and mutates RiskTrees and queries their simulated
loss exceedance curves against a filesystem-backed repository.

Typical workflow:
  1. Create a tree from a JSON request body:
       riskctl create-tree --body tree.json

  2. Inspect it:
       riskctl get-tree <tree-id>
       riskctl list-trees

  3. Query a node's loss exceedance curve:
       riskctl lec-curve <tree-id> <node-id>

  4. Mutate it:
       riskctl patch-distribution <tree-id> <node-id> --body dist.json
       riskctl rename-node <tree-id> <node-id> --name "New name"
       riskctl delete-node <tree-id> <node-id>

Request bodies are read as JSON, from --body <path> or stdin ("-").`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate("riskctl version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./riskdata", "Directory the filesystem repository persists trees under")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file (defaults applied if unset)")
}

// dataDir and configPath are bound by the persistent flags above; every
// subcommand reads them via newApp rather than taking its own copies.
var (
	dataDir    string
	configPath string
)
