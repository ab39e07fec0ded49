package kv

import (
	"github.com/spf13/cobra"

	"github.com/ValentinKolb/mmkv/cmd/util"
	"github.com/ValentinKolb/mmkv/lib/common"
	"github.com/ValentinKolb/mmkv/lib/store"
)

var (
	localStore store.IStore
	config     *common.EngineConfig

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:   "kv",
		Short: "Perform key-value store operations",
		Long: util.WrapString(`Perform key-value store operations on a local store.
The store is loaded from the data file before every command and written back
after every command that modifies it.`),
		PersistentPreRunE:  setupKVStore,
		PersistentPostRunE: closeKVStore,
	}
)

func init() {
	util.SetupEngineFlags(KeyValueCommands)
	util.SetupDataFileFlag(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(setECmd)
	KeyValueCommands.AddCommand(setEIfUnsetCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(exprCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(hasCmd)
	KeyValueCommands.AddCommand(infoCmd)
	KeyValueCommands.AddCommand(metricsCmd)
}

// setupKVStore loads the local store from the data file
func setupKVStore(cmd *cobra.Command, args []string) error {
	if err := util.PrepareCommand(cmd, args); err != nil {
		return err
	}

	config = util.GetEngineConfig()

	var err error
	localStore, err = util.OpenStore(config)
	return err
}

func closeKVStore(_ *cobra.Command, _ []string) error {
	if localStore == nil {
		return nil
	}
	return localStore.Close()
}

// save writes the store back to the data file
func save() error {
	if config.DataFile == "" {
		return nil
	}
	return util.SaveStore(localStore, config.DataFile)
}
