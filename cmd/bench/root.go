package bench

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ValentinKolb/mmkv/cmd/util"
	"github.com/ValentinKolb/mmkv/lib/db"
	"github.com/ValentinKolb/mmkv/lib/store"
	"github.com/ValentinKolb/mmkv/lib/store/lstore"
)

// BenchCmd runs a load against the engine and prints throughput and latency
// percentiles per phase.
var BenchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measures throughput and latency of the engine",
	Long: util.WrapString(`Runs the phases insert, get, update, mixed and delete
against every target and prints throughput and latency percentiles. The maximum
latency of the insert phase shows the longest pause caused by growing the index.
Targets are the bucket kinds of the engine (tree, list) and a Go map behind a
mutex as baseline (map).`),
	PersistentPreRunE: util.PrepareCommand,
	RunE:              run,
}

func init() {
	util.SetupEngineFlags(BenchCmd)

	key := "targets"
	BenchCmd.Flags().String(key, "tree,list,map", util.WrapString("Targets to benchmark (comma separated)"))
	key = "keys"
	BenchCmd.Flags().Int(key, 1_000_000, util.WrapString("Number of keys per phase"))
	key = "threads"
	BenchCmd.Flags().Int(key, runtime.NumCPU(), util.WrapString("Number of workers"))
	key = "value-size"
	BenchCmd.Flags().Int(key, 64, util.WrapString("Size of the values in bytes"))
	key = "skip"
	BenchCmd.Flags().String(key, "", util.WrapString("Phases to skip (comma separated - e.g. mixed,delete)"))
	key = "csv"
	BenchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
	key = "metrics"
	BenchCmd.Flags().Bool(key, false, util.WrapString("Print the engine metrics after each engine target"))
	key = "timers"
	BenchCmd.Flags().Bool(key, false, util.WrapString("Print all latency timers after the run"))
}

func readConfig() (config, error) {
	conf := config{
		Keys:      viper.GetInt("keys"),
		Threads:   viper.GetInt("threads"),
		ValueSize: viper.GetInt("value-size"),
	}
	if skip := viper.GetString("skip"); skip != "" {
		conf.Skip = strings.Split(skip, ",")
	}

	switch {
	case conf.Keys <= 0:
		return conf, fmt.Errorf("keys must be positive, got %d", conf.Keys)
	case conf.Threads <= 0:
		return conf, fmt.Errorf("threads must be positive, got %d", conf.Threads)
	case conf.ValueSize < 0:
		return conf, fmt.Errorf("value-size must not be negative, got %d", conf.ValueSize)
	}
	return conf, nil
}

func run(_ *cobra.Command, _ []string) error {
	conf, err := readConfig()
	if err != nil {
		return err
	}
	engineConf := util.GetEngineConfig()
	engineConf.DataFile = ""

	fmt.Println("Benchmark of the mmkv engine")
	fmt.Print(engineConf.String())
	fmt.Printf("\nKeys: %d, Threads: %d, Value Size: %d\n\n", conf.Keys, conf.Threads, conf.ValueSize)

	registry := gometrics.NewRegistry()
	r := newRunner(conf, registry)
	defer r.stop()

	printHeader(os.Stdout)

	var all []result
	for _, name := range strings.Split(viper.GetString("targets"), ",") {
		name = strings.TrimSpace(name)

		var (
			t target
			s store.IStore
		)
		if name == "map" {
			t = newMapTarget()
		} else {
			engineConf.BucketKind = name
			engine, err := util.NewEngine(engineConf)
			if err != nil {
				return err
			}
			s = lstore.NewLocalStore(func() db.KVDB { return engine })
			t = s
		}

		results, err := r.run(name, t)
		for _, res := range results {
			printResult(os.Stdout, res)
		}
		all = append(all, results...)

		if s != nil {
			if err == nil && viper.GetBool("metrics") {
				fmt.Println()
				if err := s.WriteMetrics(os.Stdout); err != nil {
					return err
				}
				fmt.Println()
			}
			_ = s.Close()
		}
		if err != nil {
			return err
		}
	}

	if viper.GetBool("timers") {
		fmt.Println()
		gometrics.WriteOnce(registry, os.Stdout)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, all, conf); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}
