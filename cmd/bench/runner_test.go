package bench

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	gometrics "github.com/rcrowley/go-metrics"

	"github.com/ValentinKolb/mmkv/lib/db"
	"github.com/ValentinKolb/mmkv/lib/db/engines/mmkv"
	"github.com/ValentinKolb/mmkv/lib/store/lstore"
)

func TestRunnerPhases(t *testing.T) {
	conf := config{Keys: 2000, Threads: 4, ValueSize: 16, Skip: []string{"mixed"}}
	r := newRunner(conf, gometrics.NewRegistry())
	defer r.stop()

	engine := mmkv.NewMMKV(&mmkv.DBOptions{NumShards: 2, GCInterval: time.Hour, InitialSize: 1})
	s := lstore.NewLocalStore(func() db.KVDB { return engine })
	defer s.Close()

	results, err := r.run("tree", s)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != len(phases)-1 {
		t.Fatalf("expected %d results, got %d", len(phases)-1, len(results))
	}
	for _, res := range results {
		if res.Phase == "mixed" {
			t.Errorf("skipped phase was run")
		}
		if res.Ops != int64(conf.Keys) {
			t.Errorf("%s: expected %d ops, got %d", res.Phase, conf.Keys, res.Ops)
		}
		if res.Max < res.P50 {
			t.Errorf("%s: max %v below median %v", res.Phase, res.Max, res.P50)
		}
	}

	// the delete phase removed every key
	if ok, _ := s.Has("bench-00000000"); ok {
		t.Errorf("expected keys to be deleted")
	}
}

func TestRunnerRegistersTimers(t *testing.T) {
	registry := gometrics.NewRegistry()
	r := newRunner(config{Keys: 100, Threads: 2}, registry)
	defer r.stop()

	if _, err := r.run("map", newMapTarget()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, p := range phases {
		if registry.Get("map."+p.name) == nil {
			t.Errorf("missing timer for phase %s", p.name)
		}
	}

	// names are unique per registry
	if _, err := r.run("map", newMapTarget()); err == nil {
		t.Errorf("expected duplicate timer error")
	}
}

func TestMixedPhaseIgnoresMissingKeys(t *testing.T) {
	r := newRunner(config{Keys: 64, Threads: 1, Skip: []string{"insert", "get", "update", "delete"}}, gometrics.NewRegistry())
	defer r.stop()

	engine := mmkv.NewMMKV(&mmkv.DBOptions{NumShards: 1, GCInterval: time.Hour})
	s := lstore.NewLocalStore(func() db.KVDB { return engine })
	defer s.Close()

	results, err := r.run("list", s)
	if err != nil {
		t.Fatalf("mixed phase on empty store failed: %v", err)
	}
	if len(results) != 1 || results[0].Phase != "mixed" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestWriteCSV(t *testing.T) {
	results := []result{
		{Target: "tree", Phase: "insert", Ops: 10, Elapsed: time.Second, Max: time.Millisecond},
		{Target: "map", Phase: "get", Ops: 20, Elapsed: 2 * time.Second},
	}

	var buf bytes.Buffer
	if err := writeCSV(&buf, results, config{Keys: 10, Threads: 2, ValueSize: 8}); err != nil {
		t.Fatalf("writeCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Target" || rows[1][0] != "tree" || rows[2][1] != "get" {
		t.Errorf("unexpected rows: %v", rows)
	}
	if rows[1][4] != "10" || rows[2][4] != "10" {
		t.Errorf("unexpected ops/sec: %s, %s", rows[1][4], rows[2][4])
	}
	if rows[1][9] != "1000000" {
		t.Errorf("unexpected max: %s", rows[1][9])
	}
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printHeader(&buf)
	printResult(&buf, result{Target: "tree", Phase: "insert", Ops: 1_500_000, Elapsed: time.Second, HeapBytes: 2_000_000})

	out := buf.String()
	for _, want := range []string{"TARGET", "tree", "insert", "1,500,000", "2.0 MB"} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
}
