package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ValentinKolb/mmkv/lib/common"
	"github.com/ValentinKolb/mmkv/lib/store"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	wrapped := WrapString(text)

	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > Wrap {
			t.Errorf("line longer than %d: %q", Wrap, line)
		}
	}
	if strings.Join(strings.Fields(wrapped), " ") != strings.TrimSpace(text) {
		t.Errorf("wrapping changed the words")
	}

	long := strings.Repeat("x", Wrap+10)
	if WrapString(long) != long {
		t.Errorf("a single long word must not be split")
	}
	if WrapString("") != "" {
		t.Errorf("expected empty string")
	}
}

func TestEngineFlags(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cmd := &cobra.Command{Use: "test"}
	SetupEngineFlags(cmd)
	SetupDataFileFlag(cmd)
	if err := cmd.ParseFlags([]string{"--shards=3", "--bucket-kind=list", "--gc-interval=1s", "--data-file=x.db"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		t.Fatalf("bind flags: %v", err)
	}

	conf := GetEngineConfig()
	if conf.Shards != 3 || conf.BucketKind != "list" || conf.GCInterval != time.Second || conf.DataFile != "x.db" {
		t.Errorf("unexpected config: %+v", conf)
	}
	if conf.InitialSize <= 0 || conf.RehashSteps <= 0 {
		t.Errorf("expected defaults for unset flags: %+v", conf)
	}
}

func TestOpenAndSaveStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	conf := &common.EngineConfig{Shards: 2, BucketKind: "tree", GCInterval: time.Hour, DataFile: path}

	// missing file means an empty store
	s, err := OpenStore(conf)
	if err != nil {
		t.Fatalf("open empty store: %v", err)
	}
	if err := s.SetE("a", []byte("1"), 0, 2); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set("b", []byte("2")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := SaveStore(s, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = s.Close()

	// no temp files are left behind
	files, _ := os.ReadDir(filepath.Dir(path))
	if len(files) != 1 {
		t.Errorf("expected only the data file, got %d files", len(files))
	}

	s, err = OpenStore(conf)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	if v, ok, _ := s.Get("a"); !ok || string(v) != "1" {
		t.Errorf("expected a=1, got %q (found=%v)", v, ok)
	}

	// the write index continues, so "a" is deleted by the next write
	if err := s.Set("c", []byte("3")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ok, _ := s.Has("a"); ok {
		t.Errorf("expected a to be deleted after the restored write index advanced")
	}
}

func TestOpenStoreErrors(t *testing.T) {
	dir := t.TempDir()

	invalid := filepath.Join(dir, "invalid.db")
	if err := os.WriteFile(invalid, []byte("not a snapshot"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := OpenStore(&common.EngineConfig{BucketKind: "tree", DataFile: invalid})
	if err == nil {
		t.Errorf("expected error for invalid data file")
	} else if store.Code(err) != store.RetCInternalError {
		t.Errorf("expected internal error code, got %s", store.Code(err))
	}

	if _, err := OpenStore(&common.EngineConfig{BucketKind: "heap"}); err == nil {
		t.Errorf("expected error for unknown bucket kind")
	}
}

func TestSaveStoreInvalidDir(t *testing.T) {
	s, err := OpenStore(&common.EngineConfig{BucketKind: "tree", GCInterval: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := SaveStore(s, filepath.Join(t.TempDir(), "missing", "data.db")); err == nil {
		t.Errorf("expected error for missing directory")
	}
}
