package conf

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSetupConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	bc, err := SetupConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if bc.Server.HTTP.Port != 8080 {
		t.Fatalf("default port %d", bc.Server.HTTP.Port)
	}
	if bc.Analysis.SampleFPS != 2 {
		t.Fatalf("default sample fps %d", bc.Analysis.SampleFPS)
	}

	// 第二次加载应读取刚写出的文件
	bc2, err := SetupConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if bc2.Data.Database.Dsn != bc.Data.Database.Dsn ||
		bc2.Server.Recording.RetainDays != bc.Server.Recording.RetainDays {
		t.Fatalf("reloaded config differs: %+v vs %+v", bc2, bc)
	}
}

func TestDuration(t *testing.T) {
	if got := Duration("30m").Duration(); got != 30*time.Minute {
		t.Fatalf("got %s", got)
	}
	if got := Duration("bogus").Duration(); got != 0 {
		t.Fatalf("invalid duration should be 0, got %s", got)
	}
}
