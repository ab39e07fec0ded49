package common

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/ValentinKolb/mmkv/lib/db/engines/mmkv"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"debug": logger.DEBUG,
		"INFO":  logger.INFO,
		"warn":  logger.WARNING,
		"error": logger.ERROR,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Errorf("expected an error for an unknown level")
	}
}

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	old := LogOutput
	LogOutput = &buf
	defer func() { LogOutput = old }()

	l := CreateLogger("test")
	l.Debugf("hidden")
	l.Infof("hello %d", 42)
	l.SetLevel(logger.ERROR)
	l.Warningf("hidden too")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below the level were written: %q", out)
	}
	if !strings.Contains(out, "INFO  | test       | hello 42") {
		t.Errorf("unexpected log line: %q", out)
	}
}

func TestEngineConfig(t *testing.T) {
	c := &EngineConfig{
		Shards:      4,
		BucketKind:  "list",
		InitialSize: 1024,
		GCInterval:  time.Second,
		RehashSteps: 8,
		DataFile:    "data.mmkv",
		LogLevel:    "info",
	}

	opts, err := c.ToDBOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.NumShards != 4 || opts.BucketKind != mmkv.BucketList || opts.InitialSize != 1024 || opts.RehashSteps != 8 {
		t.Errorf("unexpected options: %+v", opts)
	}

	s := c.String()
	for _, want := range []string{"ENGINE", "1,024", "data.mmkv", "list"} {
		if !strings.Contains(s, want) {
			t.Errorf("config string is missing %q:\n%s", want, s)
		}
	}

	c.BucketKind = "heap"
	if _, err := c.ToDBOptions(); err == nil {
		t.Errorf("expected an error for an invalid bucket kind")
	}
}
