package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/local"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/reduce"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/runlog"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/tinify"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// newTestRunner builds a runner whose logs are captured and whose environment is empty.
func newTestRunner(t *testing.T, pass runlog.Pass, opts *passOptions) (*passRunner, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	if opts.logFile == "" {
		opts.logFile = filepath.Join(t.TempDir(), runlog.DefaultFile)
	}
	if opts.engine == "" {
		opts.engine = engineTinify
	}
	if opts.apiURL == "" {
		opts.apiURL = tinify.DefaultBaseURL
	}
	r := newPassRunner(pass, opts, zap.New(core))
	r.getenv = func(string) string { return "" }
	return r, logs
}

func set(t *testing.T, o *optionalString, v string) {
	t.Helper()
	if err := o.Set(v); err != nil {
		t.Fatal(err)
	}
}

func hasMessage(logs *observer.ObservedLogs, msg string) bool {
	return logs.FilterMessage(msg).Len() > 0
}

func TestMissingKeyAndOutputAreBothLogged(t *testing.T) {
	opts := &passOptions{}
	r, logs := newTestRunner(t, runlog.PassOutput, opts)

	if err := r.run(context.Background()); err != nil {
		t.Fatalf("run() error = %v, want nil without --fail-on-error", err)
	}
	if !hasMessage(logs, passMessages[runlog.PassOutput].missingKey) {
		t.Error("missing key guidance was not logged")
	}
	if !hasMessage(logs, msgMissingOutput) {
		t.Error("missing output guidance was not logged")
	}
	if _, err := os.Stat(opts.logFile); !os.IsNotExist(err) {
		t.Error("no run log should be written when configuration is incomplete")
	}
}

func TestMissingKeyMakesNoCalls(t *testing.T) {
	outDir := t.TempDir()
	size := writePNG(t, filepath.Join(outDir, "a.png"))

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	t.Cleanup(srv.Close)

	opts := &passOptions{apiURL: srv.URL, failOnError: true}
	set(t, &opts.output, outDir)
	r, logs := newTestRunner(t, runlog.PassOutput, opts)

	err := r.run(context.Background())
	var cfgErr *reduce.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Flag != "key" {
		t.Fatalf("run() error = %v, want key ConfigError", err)
	}
	if called {
		t.Error("compression service must not be called without a key")
	}
	if !hasMessage(logs, passMessages[runlog.PassOutput].missingKey) {
		t.Error("missing key guidance was not logged")
	}
	if info, _ := os.Stat(filepath.Join(outDir, "a.png")); info.Size() != size {
		t.Error("image must be untouched")
	}
}

func TestKeyFromEnvironment(t *testing.T) {
	opts := &passOptions{engine: engineTinify}
	r, _ := newTestRunner(t, runlog.PassOutput, opts)
	r.getenv = func(name string) string {
		if name == keyEnv {
			return "env-key"
		}
		return ""
	}

	c, err := r.compressor()
	if err != nil {
		t.Fatalf("compressor() error = %v", err)
	}
	if _, ok := c.(*tinify.Client); !ok {
		t.Errorf("compressor() = %T, want *tinify.Client", c)
	}
}

func TestLocalEngineNeedsNoKey(t *testing.T) {
	opts := &passOptions{engine: engineLocal, quality: 70}
	r, _ := newTestRunner(t, runlog.PassOutput, opts)

	c, err := r.compressor()
	if err != nil {
		t.Fatalf("compressor() error = %v", err)
	}
	if enc, ok := c.(*local.Encoder); !ok || enc.Quality != 70 {
		t.Errorf("compressor() = %#v, want local encoder with quality 70", c)
	}
}

func TestUnknownEngine(t *testing.T) {
	opts := &passOptions{engine: "zopfli"}
	r, _ := newTestRunner(t, runlog.PassOutput, opts)

	_, err := r.compressor()
	var cfgErr *reduce.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Flag != "engine" {
		t.Fatalf("compressor() error = %v, want engine ConfigError", err)
	}
}

func TestMalformedMinSizeDisablesFilter(t *testing.T) {
	outDir := t.TempDir()
	writePNG(t, filepath.Join(outDir, "a.png"))

	opts := &passOptions{dryRun: true}
	set(t, &opts.output, outDir)
	set(t, &opts.minSize, "3MB")
	r, logs := newTestRunner(t, runlog.PassOutput, opts)

	cfg, _, err := r.configure()
	if err != nil {
		t.Fatalf("configure() error = %v", err)
	}
	if cfg.MinSizeMB != nil {
		t.Errorf("MinSizeMB = %v, want size filtering disabled", *cfg.MinSizeMB)
	}
	if !hasMessage(logs, msgBadMinSize) {
		t.Error("malformed --minsize was not logged")
	}
}

func TestConfigureExcludesAndMinSize(t *testing.T) {
	tests := []struct {
		name    string
		pass    runlog.Pass
		exclude string
		want    []string
	}{
		{name: "output defaults", pass: runlog.PassOutput, want: []string{"Skins", "skins"}},
		{name: "output with extra", pass: runlog.PassOutput, exclude: "Resources,Temp", want: []string{"Skins", "skins", "Resources", "Temp"}},
		{name: "source has no defaults", pass: runlog.PassSource, want: nil},
		{name: "source with extra", pass: runlog.PassSource, exclude: "Resources", want: []string{"Resources"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &passOptions{dryRun: true}
			set(t, &opts.output, t.TempDir())
			set(t, &opts.content, t.TempDir())
			set(t, &opts.minSize, " 2.5 ")
			if tt.exclude != "" {
				set(t, &opts.exclude, tt.exclude)
			}
			r, _ := newTestRunner(t, tt.pass, opts)

			cfg, _, err := r.configure()
			if err != nil {
				t.Fatalf("configure() error = %v", err)
			}
			if len(cfg.Exclude) != len(tt.want) {
				t.Fatalf("Exclude = %v, want %v", cfg.Exclude, tt.want)
			}
			for i := range tt.want {
				if cfg.Exclude[i] != tt.want[i] {
					t.Errorf("Exclude = %v, want %v", cfg.Exclude, tt.want)
				}
			}
			if cfg.MinSizeMB == nil || *cfg.MinSizeMB != 2.5 {
				t.Errorf("MinSizeMB = %v, want 2.5", cfg.MinSizeMB)
			}
		})
	}
}

func TestSourceRootDefaultsToGrandparent(t *testing.T) {
	opts := &passOptions{dryRun: true}
	r, _ := newTestRunner(t, runlog.PassSource, opts)
	wd := filepath.Join(string(filepath.Separator), "proj", "Content", "Resources", "Python")
	r.getwd = func() (string, error) { return wd, nil }

	root, err := r.root()
	if err != nil {
		t.Fatalf("root() error = %v", err)
	}
	if want := filepath.Join(string(filepath.Separator), "proj", "Content"); root != want {
		t.Errorf("root() = %q, want %q", root, want)
	}
}

func TestServiceErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"Unauthorized","message":"Credentials are invalid"}`)
	}))
	t.Cleanup(srv.Close)

	content := t.TempDir()
	writePNG(t, filepath.Join(content, "a.png"))

	opts := &passOptions{apiURL: srv.URL}
	set(t, &opts.key, "bad-key")
	set(t, &opts.content, content)
	r, logs := newTestRunner(t, runlog.PassSource, opts)

	if err := r.run(context.Background()); err != nil {
		t.Fatalf("run() error = %v, want nil without --fail-on-error", err)
	}
	entries := logs.FilterMessage(passMessages[runlog.PassSource].service).All()
	if len(entries) != 1 {
		t.Fatalf("expected one service error log, got %d", len(entries))
	}
	if kind := entries[0].ContextMap()["kind"]; kind != "account" {
		t.Errorf("kind = %v, want account", kind)
	}

	opts.failOnError = true
	err := r.run(context.Background())
	var svcErr *reduce.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("run() error = %v, want *ServiceError with --fail-on-error", err)
	}
	if !IsReported(err) {
		t.Error("returned error should be marked as already logged")
	}
	if n := logs.FilterMessage(passMessages[runlog.PassSource].service).Len(); n != 2 {
		t.Errorf("expected one service error log per run, got %d in total", n)
	}
}

func TestIsReported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("unknown flag: --nope"), want: false},
		{name: "reported", err: &reportedError{err: &reduce.ConfigError{Flag: "key"}}, want: true},
		{name: "wrapped", err: fmt.Errorf("pass: %w", &reportedError{err: errors.New("x")}), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReported(tt.err); got != tt.want {
				t.Errorf("IsReported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestUsageErrorIsNotReported(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"output", "--nope"})
	root.SetErr(io.Discard)
	if err := root.Execute(); err == nil || IsReported(err) {
		t.Errorf("Execute() error = %v, want an unreported usage error", err)
	}
}

func TestNoImagesIsLogged(t *testing.T) {
	opts := &passOptions{engine: engineLocal}
	set(t, &opts.output, t.TempDir())
	r, logs := newTestRunner(t, runlog.PassOutput, opts)

	if err := r.run(context.Background()); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !hasMessage(logs, passMessages[runlog.PassOutput].noImages) {
		t.Error("no-images guidance was not logged")
	}
	if _, err := runlog.Load(opts.logFile); err != nil {
		t.Errorf("run log should still be written: %v", err)
	}
}
