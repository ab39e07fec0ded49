package inspect

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ValentinKolb/mmkv/cmd/util"
	"github.com/ValentinKolb/mmkv/lib/db/engines/mmkv"
)

var (
	// InspectCmd represents the inspect command group
	InspectCmd = &cobra.Command{
		Use:               "inspect",
		Short:             "Inspect the data structures of mmkv",
		PersistentPreRunE: util.PrepareCommand,
	}

	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Prints the index layout of the store in the data file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := util.GetEngineConfig()
			s, err := util.OpenStore(conf)
			if err != nil {
				return err
			}
			defer s.Close()

			info, err := s.GetDBInfo()
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			printDBInfo(os.Stdout, info)
			return nil
		},
	}

	indexCmd = &cobra.Command{
		Use:   "index",
		Short: "Traces the rehash events while filling a hash index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := mmkv.ParseBucketKind(viper.GetString("bucket-kind"))
			if err != nil {
				return err
			}
			n := viper.GetInt("keys")
			if n < 0 {
				return fmt.Errorf("keys must not be negative, got %d", n)
			}
			return traceIndex(os.Stdout, kind, n, viper.GetInt("initial-size"))
		},
	}

	treeCmd = &cobra.Command{
		Use:   "tree",
		Short: "Renders an AVL tree as Graphviz dot",
		Long: util.WrapString(`Inserts the keys 0..n-1 into an AVL tree and writes the
tree as Graphviz dot. Every node is labeled with its key and height.
Render with: mmkv inspect tree | dot -Tsvg > tree.svg`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := viper.GetInt("keys")
			if n < 0 {
				return fmt.Errorf("keys must not be negative, got %d", n)
			}
			t := buildTree(n, viper.GetBool("shuffle"), viper.GetUint64("seed"))
			if err := t.Verify(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%d nodes, height %d\n", t.Len(), t.Height())

			out := os.Stdout
			if path := viper.GetString("out"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			_, err := fmt.Fprint(out, renderTree(t))
			return err
		},
	}
)

func init() {
	util.SetupDataFileFlag(dbCmd)
	util.SetupEngineFlags(dbCmd)
	dbCmd.Flags().Bool("json", false, util.WrapString("Print the full database info as JSON"))

	util.SetupEngineFlags(indexCmd)
	indexCmd.Flags().Int("keys", 100_000, util.WrapString("Number of keys to insert"))

	treeCmd.Flags().Int("keys", 15, util.WrapString("Number of keys to insert"))
	treeCmd.Flags().Bool("shuffle", true, util.WrapString("Insert the keys in random order"))
	treeCmd.Flags().Uint64("seed", 1, util.WrapString("Seed of the random order"))
	treeCmd.Flags().String("out", "", util.WrapString("Write the graph to a file instead of stdout"))

	InspectCmd.AddCommand(dbCmd)
	InspectCmd.AddCommand(indexCmd)
	InspectCmd.AddCommand(treeCmd)
}
