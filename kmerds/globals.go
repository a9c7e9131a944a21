package internal

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var (
	DefaultAppName    = "kmerds"
	DefaultEnvPrefix  = "KMERDS"
	DefaultConfigPath = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultCacheDir   = filepath.Join(DefaultConfigPath, ".cache")

	// Default data settings
	DefaultValDir         = filepath.Join("data", "TestData")
	DefaultSequenceColumn = "SEQ"
	DefaultClassColumns   = []string{"CLASS", "Class"}
	DefaultLabelBase      = 1

	// Default k-mer and encoding settings
	DefaultKmer          = 6
	DefaultMaxLength     = 512
	DefaultTokenizerKind = "vocab"
	DefaultDevice        = "cpu"
	DefaultWorkers       = 1

	// Empty DSN keeps encodings in memory for the lifetime of the process
	DefaultCacheDSN = ""
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// GetDiagnosticLogger returns the plain-text logger used for per-file
// progress lines, e.g. "a.csv rows=3". Timestamp and level are left out.
func GetDiagnosticLogger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	out := zerolog.ConsoleWriter{
		Out:          w,
		NoColor:      true,
		PartsExclude: []string{zerolog.TimestampFieldName, zerolog.LevelFieldName},
	}
	return zerolog.New(out)
}
