// Command diagnostico serves the business diagnostic wizard.
//
//	diagnostico serve               run the HTTP server
//	diagnostico render --section X  resolve one section from flags and print it
//	diagnostico sections            list the section ids
//
// Configuration: --config (YAML), --env-file (.env, default ".env"), then the
// environment. GEMINI_API_KEY enables generation; without it every section is
// served from its static fallback.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/hazyhaar/diagnostico/config"
)

var version = "dev"

type globalFlags struct {
	configPath string
	envFile    string
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var gf globalFlags
	root := &cobra.Command{
		Use:          "diagnostico",
		Short:        "Business diagnostic wizard",
		Version:      version,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&gf.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&gf.envFile, "env-file", ".env", "dotenv file (never overrides the environment)")

	root.AddCommand(
		newServeCmd(&gf),
		newRenderCmd(&gf),
		newSectionsCmd(),
	)
	return root
}

func loadConfig(gf *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(gf.configPath, gf.envFile)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the JSON logger writing to w and, when log_file is set, to
// a rotated file. The returned closer releases the file.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, io.Closer) {
	var closer io.Closer = nopCloser{}
	if cfg.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			LocalTime:  true,
		}
		w = io.MultiWriter(w, lj)
		closer = lj
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	return slog.New(h).With("service", "diagnostico"), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
