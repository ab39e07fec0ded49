package inspect

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/mmkv/lib/db/engines/mmkv"
)

func TestTraceIndex(t *testing.T) {
	for _, kind := range []mmkv.BucketKind{mmkv.BucketTree, mmkv.BucketList} {
		t.Run(string(kind), func(t *testing.T) {
			var buf bytes.Buffer
			if err := traceIndex(&buf, kind, 1000, 4); err != nil {
				t.Fatalf("traceIndex failed: %v", err)
			}
			out := buf.String()
			if !strings.Contains(out, "started") {
				t.Errorf("expected rehash events in output:\n%s", out)
			}
			if !strings.Contains(out, "Entries:         1,000") {
				t.Errorf("expected entry count in output:\n%s", out)
			}
			if !strings.Contains(out, "Verify:          ok") {
				t.Errorf("expected successful verification:\n%s", out)
			}
		})
	}
}

func TestBuildTree(t *testing.T) {
	for _, shuffle := range []bool{false, true} {
		tree := buildTree(100, shuffle, 7)
		if tree.Len() != 100 {
			t.Fatalf("expected 100 nodes, got %d", tree.Len())
		}
		if err := tree.Verify(); err != nil {
			t.Fatalf("tree invalid: %v", err)
		}
		// 100 nodes fit in at most 9 AVL levels
		if h := tree.Height(); h > 9 {
			t.Errorf("tree too high: %d", h)
		}
	}
}

func TestRenderTree(t *testing.T) {
	out := renderTree(buildTree(3, false, 0))
	if !strings.HasPrefix(out, "digraph") {
		t.Fatalf("expected a digraph, got:\n%s", out)
	}
	for _, label := range []string{"0", "1", "2"} {
		if !strings.Contains(out, label+"\\nh=") && !strings.Contains(out, label+"\nh=") {
			t.Errorf("missing node %s in:\n%s", label, out)
		}
	}
	if strings.Count(out, "->") != 2 {
		t.Errorf("expected 2 edges in:\n%s", out)
	}
}

func TestPrintDBInfo(t *testing.T) {
	engine := mmkv.NewMMKV(&mmkv.DBOptions{NumShards: 2, GCInterval: time.Hour})
	defer engine.Close()
	for i := uint64(1); i <= 500; i++ {
		engine.Set("key-"+strings.Repeat("x", int(i%7)), []byte("value"), i)
	}

	var buf bytes.Buffer
	printDBInfo(&buf, engine.GetInfo())
	out := buf.String()
	for _, want := range []string{"Type:            mmkv", "Write Index:     500", "Entries:         7", "SHARD"} {
		if !strings.Contains(out, want) {
			t.Errorf("output misses %q:\n%s", want, out)
		}
	}
}
