package hostpaths

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/remotectl/internal/config"
	"github.com/danmuck/remotectl/internal/testutil/testlog"
)

type failingResolver struct{}

func (failingResolver) Resolve() (Paths, error) { return Paths{}, ErrHostNotInstalled }

func TestChainFirstResponseWins(t *testing.T) {
	testlog.Start(t)
	chain := Chain{
		Resolvers: []Resolver{
			failingResolver{},
			StaticResolver{SystemDir: "/opt/host"},
			StaticResolver{ResponseFile: "/late/status"},
		},
		Defaults: Paths{ControlFile: "/client/RemoteControl.txt", DataDir: "/data/"},
	}
	got, err := chain.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := "/opt/host" + string(os.PathSeparator) + StatusFileName
	if got.ResponseFile != "/late/status" {
		t.Fatalf("resolver after partial result should still be consulted, got %q", got.ResponseFile)
	}
	if got.SystemDir != "/opt/host"+string(os.PathSeparator) {
		t.Fatalf("unexpected system dir: %q", got.SystemDir)
	}
	if got.ControlFile != "/client/RemoteControl.txt" || got.DataDir != "/data/" {
		t.Fatalf("defaults not applied: %+v", got)
	}

	chain.Resolvers = chain.Resolvers[:2]
	got, err = chain.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ResponseFile != want {
		t.Fatalf("expected derived response file %q, got %q", want, got.ResponseFile)
	}
}

func TestChainOverridesWin(t *testing.T) {
	testlog.Start(t)
	chain := Chain{
		Resolvers: []Resolver{StaticResolver{ResponseFile: "/host/status", ControlFile: "/host/control"}},
		Overrides: Paths{ControlFile: "/cfg/control"},
	}
	got, err := chain.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ControlFile != "/cfg/control" || got.ResponseFile != "/host/status" {
		t.Fatalf("unexpected paths: %+v", got)
	}
}

func TestChainUnresolved(t *testing.T) {
	testlog.Start(t)
	_, err := Chain{Resolvers: []Resolver{failingResolver{}}}.Resolve()
	if !errors.Is(err, ErrResponseUnresolved) {
		t.Fatalf("expected ErrResponseUnresolved, got %v", err)
	}
}

func TestWithTrailingSeparator(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"":                 "",
		`C:\VibrationVIEW\`: `C:\VibrationVIEW\`,
		"/opt/host/":       "/opt/host/",
		"/opt/host":        "/opt/host" + string(os.PathSeparator),
	}
	for in, want := range cases {
		if got := WithTrailingSeparator(in); got != want {
			t.Fatalf("WithTrailingSeparator(%q) = %q want %q", in, got, want)
		}
	}
}

func TestFileRegistrarOnlyWritesOnChange(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), config.HostRecordFile)
	stamp := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	reg := &FileRegistrar{Path: path, Now: func() time.Time { return stamp }}

	changed, err := reg.Register("/c/RemoteControl.txt", "/h/RemoteControl.Status")
	if err != nil || !changed {
		t.Fatalf("first register changed=%v err=%v", changed, err)
	}
	changed, err = reg.Register("/c/RemoteControl.txt", "/h/RemoteControl.Status")
	if err != nil || changed {
		t.Fatalf("repeat register changed=%v err=%v", changed, err)
	}
	changed, err = reg.Register("/c2/RemoteControl.txt", "/h/RemoteControl.Status")
	if err != nil || !changed {
		t.Fatalf("moved control changed=%v err=%v", changed, err)
	}

	rec, err := config.LoadHostRecord(path)
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	if rec.ControlFile != "/c2/RemoteControl.txt" || !rec.UpdatedAt.Equal(stamp) {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestRecordResolverReadsRegistration(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), config.HostRecordFile)
	if _, err := (RecordResolver{Path: path}).Resolve(); !errors.Is(err, config.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if _, err := (&FileRegistrar{Path: path}).Register("/c/ctl", "/h/status"); err != nil {
		t.Fatalf("register: %v", err)
	}
	got, err := Chain{Resolvers: []Resolver{RecordResolver{Path: path}}}.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.ControlFile != "/c/ctl" || got.ResponseFile != "/h/status" {
		t.Fatalf("unexpected paths: %+v", got)
	}
}
