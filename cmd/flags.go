package cmd

import (
	"time"

	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/local"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/runlog"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/tinify"

	"github.com/spf13/pflag"
)

// Engines accepted by --engine.
const (
	engineTinify = "tinify"
	engineLocal  = "local"
)

// keyEnv is consulted when --key is not given.
const keyEnv = "TINIFY_API_KEY"

// optionalString is a string flag that remembers whether it was given.
type optionalString struct {
	value string
	set   bool
}

var _ pflag.Value = (*optionalString)(nil)

func (o *optionalString) String() string { return o.value }

func (o *optionalString) Set(v string) error {
	o.value = v
	o.set = true
	return nil
}

func (o *optionalString) Type() string { return "string" }

// Get returns the value and whether the flag was given.
func (o *optionalString) Get() (string, bool) { return o.value, o.set }

// passOptions holds the flags of the source and output commands.
type passOptions struct {
	key         optionalString
	exclude     optionalString
	minSize     optionalString
	output      optionalString // output pass only
	content     optionalString // source pass only
	logFile     string
	engine      string
	apiURL      string
	quality     int
	maxWidth    uint
	timeout     time.Duration
	dryRun      bool
	failOnError bool
}

// addCommonFlags registers the flags shared by both passes.
func addCommonFlags(fs *pflag.FlagSet, opts *passOptions) {
	fs.Var(&opts.key, "key", "Tinify API key (defaults to $"+keyEnv+")")
	fs.Var(&opts.exclude, "exclude", "Comma-separated folder names to skip")
	fs.Var(&opts.minSize, "minsize", "Only compress images of at least this many megabytes")
	fs.StringVar(&opts.logFile, "log-file", runlog.DefaultFile, "Run log location")
	fs.StringVar(&opts.engine, "engine", engineTinify, "Compression engine: tinify or local")
	fs.StringVar(&opts.apiURL, "api-url", tinify.DefaultBaseURL, "Tinify API endpoint")
	_ = fs.MarkHidden("api-url")
	fs.IntVar(&opts.quality, "quality", local.DefaultQuality, "JPEG quality for the local engine")
	fs.UintVar(&opts.maxWidth, "max-width", 0, "Downscale wider images with the local engine (0 keeps the size)")
	fs.DurationVar(&opts.timeout, "timeout", 0, "Timeout for each Tinify request (0 waits indefinitely)")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "List the images that would be compressed without changing anything")
	fs.BoolVar(&opts.failOnError, "fail-on-error", false, "Exit with a non-zero status when the pass fails")
}
