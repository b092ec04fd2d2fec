package main

import (
	"log"
	"os"
	"strings"

	"github.com/kschatzke/reduce-image-file-sizes-in-flare/cmd"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/logging"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/version"

	"go.uber.org/zap"
	"golang.org/x/term"
)

func main() {
	// Bootstrap logger for errors raised before flags are parsed.
	if err := logging.Setup(logging.Options{AppName: version.AppName, AppVersion: version.Get().Version}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	err := cmd.Execute()

	// Check if stderr is a terminal or a regular file before attempting to sync.
	if term.IsTerminal(int(os.Stderr.Fd())) || isRegularFile(os.Stderr) {
		if syncErr := logging.Logger.Sync(); syncErr != nil {
			lowerErr := strings.ToLower(syncErr.Error())
			if !strings.Contains(lowerErr, "invalid argument") {
				log.Printf("Logger sync failed: %v", syncErr)
			}
		}
	}

	if cmd.IsReported(err) {
		os.Exit(1)
	}
	if err != nil {
		logging.Logger.Fatal("reduce-file-sizes execution failed", zap.Error(err))
	}
}

// isRegularFile checks if the given file is a regular file.
func isRegularFile(f *os.File) bool {
	fileInfo, err := f.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode().IsRegular()
}
