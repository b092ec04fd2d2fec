package cmd

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/local"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/reduce"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/runlog"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/scan"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/tinify"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/version"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// passText holds the guidance printed for each pass.
type passText struct {
	missingKey string
	noImages   string
	service    string
}

var passMessages = map[runlog.Pass]passText{
	runlog.PassSource: {
		missingKey: "Include --key {Key} in the command line, where {Key} is your Tinify API key.",
		noImages: "No image files were found in the Content folder that match the criteria in the command line. " +
			"Make sure JPEG images in the project have .jpg or .jpeg extensions and PNG images in the project have .png extensions.",
		service: "Verify that your Tinify API key is valid and that the command line is set up as defined in read-me.htm.",
	},
	runlog.PassOutput: {
		missingKey: "Include --key {Key} in the post-build event command line, where {Key} is your Tinify API key.",
		noImages: "No image files were found in the output that match the criteria in the command line. " +
			"Make sure JPEG images in the project have .jpg or .jpeg extensions, PNG images in the project have .png extensions, " +
			"and the --output parameter in the command line is set to $(OutputDirectory).",
		service: "Verify that your Tinify API key is valid and that the post-build event command line follows the conventions in read-me.htm.",
	},
}

const (
	msgMissingOutput = "Include --output $(OutputDirectory) in the post-build event command line."
	msgBadMinSize    = "For the --minsize parameter, provide a number (in megabytes) only. For example, 3 not 3MB."
)

// passRunner carries everything one invocation needs.
type passRunner struct {
	pass   runlog.Pass
	opts   *passOptions
	logger *zap.Logger
	getwd  func() (string, error)
	getenv func(string) string
}

func newPassRunner(pass runlog.Pass, opts *passOptions, logger *zap.Logger) *passRunner {
	return &passRunner{
		pass:   pass,
		opts:   opts,
		logger: logger.With(zap.String("pass", string(pass))),
		getwd:  os.Getwd,
		getenv: os.Getenv,
	}
}

// run executes the pass. Failures are logged; they are returned only with --fail-on-error.
func (r *passRunner) run(ctx context.Context) error {
	cfg, compressor, err := r.configure()
	if err != nil {
		return r.fail(err)
	}

	result, err := reduce.Run(ctx, cfg, compressor, r.logger)
	if err != nil {
		r.report(err)
		return r.fail(err)
	}

	if len(result.Found) == 0 {
		r.logger.Error(passMessages[r.pass].noImages)
	}
	if client, ok := compressor.(*tinify.Client); ok && result.Compressed > 0 {
		r.logger.Info("Tinify compressions used this month", zap.Int("compressionCount", client.CompressionCount()))
	}
	return nil
}

// configure turns flags into a reduce.Config and an engine. Every missing
// required setting is logged before returning.
func (r *passRunner) configure() (reduce.Config, reduce.Compressor, error) {
	cfg := reduce.Config{
		Pass:    r.pass,
		LogFile: r.opts.logFile,
		DryRun:  r.opts.dryRun,
	}
	var errs error

	compressor, err := r.compressor()
	if err != nil {
		r.report(err)
		errs = multierr.Append(errs, err)
	}

	root, err := r.root()
	if err != nil {
		r.report(err)
		errs = multierr.Append(errs, err)
	}
	cfg.Root = root

	if r.pass == runlog.PassOutput {
		cfg.Exclude = append(cfg.Exclude, reduce.DefaultOutputExclude...)
	}
	if value, ok := r.opts.exclude.Get(); ok {
		cfg.Exclude = append(cfg.Exclude, scan.ParseExcludeList(value)...)
	}

	if value, ok := r.opts.minSize.Get(); ok {
		minSize, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			// Size filtering is disabled and the pass continues.
			r.report(&reduce.ConfigError{Flag: "minsize", Message: "not a number", Err: err})
		} else {
			cfg.MinSizeMB = &minSize
		}
	}

	return cfg, compressor, errs
}

func (r *passRunner) compressor() (reduce.Compressor, error) {
	switch r.opts.engine {
	case engineTinify:
		key, ok := r.opts.key.Get()
		if !ok || key == "" {
			key = r.getenv(keyEnv)
		}
		if key == "" {
			if r.opts.dryRun {
				return nil, nil
			}
			return nil, &reduce.ConfigError{Flag: "key", Message: "Tinify API key is required"}
		}
		return tinify.New(key,
			tinify.WithBaseURL(r.opts.apiURL),
			tinify.WithTimeout(r.opts.timeout),
			tinify.WithLogger(r.logger),
			tinify.WithUserAgent(version.Get().UserAgent()),
		), nil
	case engineLocal:
		return local.New(r.opts.quality, r.opts.maxWidth), nil
	default:
		return nil, &reduce.ConfigError{Flag: "engine", Message: "must be " + engineTinify + " or " + engineLocal}
	}
}

// root resolves the walk root for the pass.
func (r *passRunner) root() (string, error) {
	if r.pass == runlog.PassOutput {
		output, ok := r.opts.output.Get()
		if !ok || output == "" {
			return "", &reduce.ConfigError{Flag: "output", Message: "output directory is required"}
		}
		return output, nil
	}

	if content, ok := r.opts.content.Get(); ok && content != "" {
		return content, nil
	}
	// The hook runs two levels below the project's Content folder.
	wd, err := r.getwd()
	if err != nil {
		return "", &reduce.IOError{Op: "getwd", Path: ".", Err: err}
	}
	return grandparent(wd), nil
}

// report logs err with the guidance matching its kind.
func (r *passRunner) report(err error) {
	text := passMessages[r.pass]

	var cfgErr *reduce.ConfigError
	var ioErr *reduce.IOError
	var svcErr *reduce.ServiceError
	switch {
	case errors.As(err, &cfgErr):
		switch cfgErr.Flag {
		case "key":
			r.logger.Error(text.missingKey)
		case "output":
			r.logger.Error(msgMissingOutput)
		case "minsize":
			r.logger.Error(msgBadMinSize, zap.Error(cfgErr))
		default:
			r.logger.Error("Invalid command line", zap.Error(cfgErr))
		}
	case errors.As(err, &svcErr):
		var apiErr *tinify.Error
		if errors.As(svcErr, &apiErr) {
			r.logger.Error(text.service,
				zap.String("filePath", svcErr.Path),
				zap.Stringer("kind", apiErr.Kind),
				zap.Error(apiErr))
			return
		}
		r.logger.Error("Failed to compress image", zap.String("filePath", svcErr.Path), zap.Error(svcErr.Err))
	case errors.As(err, &ioErr):
		r.logger.Error("Failed to access files", zap.String("op", ioErr.Op), zap.String("path", ioErr.Path), zap.Error(ioErr.Err))
	case errors.Is(err, context.Canceled):
		r.logger.Warn("Pass canceled", zap.Error(err))
	default:
		r.logger.Error(text.service, zap.Error(err))
	}
}

func (r *passRunner) fail(err error) error {
	if r.opts.failOnError {
		return &reportedError{err: err}
	}
	return nil
}

// reportedError marks a failure that has already been logged with its guidance.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already logged by the pass that returned it.
func IsReported(err error) bool {
	var re *reportedError
	return errors.As(err, &re)
}
