package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ValentinKolb/mmkv/cmd/bench"
	"github.com/ValentinKolb/mmkv/cmd/inspect"
	"github.com/ValentinKolb/mmkv/cmd/kv"
	"github.com/ValentinKolb/mmkv/cmd/util"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "mmkv",
		Short: "in-memory key-value store",
		Long: fmt.Sprintf(`mmkv (v%s)

An in-memory key-value store built on a hash index with
incremental rehashing and balanced-tree buckets.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mmkv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mmkv v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(inspect.InspectCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "warning", util.WrapString("log level (debug, info, warning, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
