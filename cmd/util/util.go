package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ValentinKolb/mmkv/lib/common"
	"github.com/ValentinKolb/mmkv/lib/db"
	"github.com/ValentinKolb/mmkv/lib/db/engines/mmkv"
	"github.com/ValentinKolb/mmkv/lib/store"
	"github.com/ValentinKolb/mmkv/lib/store/lstore"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables read by the cli
	EnvPrefix = "mmkv"
)

var log = logger.GetLogger("cli")

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// InitConfig initializes configuration from .env files and environment variables
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// SetupEngineFlags adds the engine flags to a command
func SetupEngineFlags(cmd *cobra.Command) {
	defaults := mmkv.DefaultOptions()

	key := "shards"
	cmd.PersistentFlags().Int(key, 0, WrapString("Number of shards of the engine (0 means one per CPU)"))

	key = "bucket-kind"
	cmd.PersistentFlags().String(key, string(defaults.BucketKind), WrapString("Bucket kind of the hash index (tree, list)"))

	key = "initial-size"
	cmd.PersistentFlags().Int(key, defaults.InitialSize, WrapString("Initial number of buckets per shard (rounded up to a power of two)"))

	key = "gc-interval"
	cmd.PersistentFlags().Duration(key, defaults.GCInterval, WrapString("Interval of the background garbage collection"))

	key = "rehash-steps"
	cmd.PersistentFlags().Int(key, defaults.RehashSteps, WrapString("Buckets migrated per shard and gc run while rehashing (negative disables active rehashing)"))
}

// SetupDataFileFlag adds the snapshot file flag to a command
func SetupDataFileFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().String("data-file", "mmkv.db", WrapString("Snapshot file the store is loaded from and saved to"))
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// PrepareCommand binds the flags of cmd and initializes the loggers with
// the configured log level. It is used as PersistentPreRunE of the command groups.
func PrepareCommand(cmd *cobra.Command, _ []string) error {
	if err := BindCommandFlags(cmd); err != nil {
		return err
	}
	return common.InitLoggers(viper.GetString("log-level"))
}

// GetEngineConfig reads the engine configuration from viper
func GetEngineConfig() *common.EngineConfig {
	return &common.EngineConfig{
		Shards:      viper.GetInt("shards"),
		BucketKind:  viper.GetString("bucket-kind"),
		InitialSize: viper.GetInt("initial-size"),
		GCInterval:  viper.GetDuration("gc-interval"),
		RehashSteps: viper.GetInt("rehash-steps"),
		DataFile:    viper.GetString("data-file"),
		LogLevel:    viper.GetString("log-level"),
	}
}

// --------------------------------------------------------------------------
// Store helpers
// --------------------------------------------------------------------------

// NewEngine creates an engine from the configuration
func NewEngine(conf *common.EngineConfig) (db.KVDB, error) {
	opts, err := conf.ToDBOptions()
	if err != nil {
		return nil, err
	}
	return mmkv.NewMMKV(opts), nil
}

// OpenStore creates a local store from the configuration and restores the
// snapshot in conf.DataFile if that file exists.
func OpenStore(conf *common.EngineConfig) (store.IStore, error) {
	engine, err := NewEngine(conf)
	if err != nil {
		return nil, err
	}
	s := lstore.NewLocalStore(func() db.KVDB { return engine })

	if conf.DataFile == "" {
		return s, nil
	}

	f, err := os.Open(conf.DataFile)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	} else if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	if err := s.Restore(f); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("restore %s: %w", conf.DataFile, err)
	}
	log.Debugf("loaded data file %s", conf.DataFile)
	return s, nil
}

// SaveStore writes a snapshot of s to path. The snapshot goes to a temporary
// file in the same directory which then replaces path.
func SaveStore(s store.IStore, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := s.Snapshot(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}
	log.Debugf("saved data file %s", path)
	return nil
}
