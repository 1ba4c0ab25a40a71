// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cik-extract CLI. Running it with
// no arguments reads CIK-File-6-input.txt and writes the extracted fields
// to output2.txt.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Open-Finance-Lab/Chat-XBRL/internal/extract"
	"github.com/Open-Finance-Lab/Chat-XBRL/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Exit codes reported by main.
const (
	exitError      = 1
	exitInputOpen  = 2
	exitOutputOpen = 3
	exitMalformed  = 4
)

// logger is configured in PersistentPreRunE once flags are parsed.
var logger = zerolog.Nop()

// rootCmd extracts fields when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "cik-extract",
	Short: "Extract CIK fields from colon-delimited company lists",
	Long: `cik-extract reads a text file of <key>:<value> records, takes the first
8 characters after the first colon of each line, and writes them as an array
to the output file. Lines without a colon are skipped with a warning unless
--strict is set.

The default format reproduces the legacy output byte for byte, including the
trailing comma after the last element. Use --format json for valid JSON or
--format yaml to keep each record's key. --format records writes
{"CIK", "company_name"} objects with the full numeric value.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.InfoLevel
		if viper.GetBool("verbose") {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			Level(level).
			With().Timestamp().Logger()
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug().Str("file", f).Msg("using config file")
		}
		return nil
	},
	RunE: runExtract,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./cik-extract.yaml or ~/.config/cik-extract/config.yaml)")
	pf.String("input", types.DefaultInputPath, "input file of <key>:<value> records")
	pf.Int("max-line-length", types.DefaultMaxLineLength, "bytes read per record; longer lines are split (negative: no limit)")
	pf.Bool("strict", false, "fail on a line without a colon instead of skipping it")
	pf.BoolP("verbose", "v", false, "enable debug logging")

	f := rootCmd.Flags()
	f.String("output", types.DefaultOutputPath, "output file, created or truncated")
	f.String("format", string(types.FormatLegacy), "output format: legacy, json, yaml, or records")

	bindFlag("input", pf.Lookup("input"))
	bindFlag("max_line_length", pf.Lookup("max-line-length"))
	bindFlag("strict", pf.Lookup("strict"))
	bindFlag("verbose", pf.Lookup("verbose"))
	bindFlag("output", f.Lookup("output"))
	bindFlag("format", f.Lookup("format"))
}

func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", key, err))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cik-extract")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cik-extract"))
		}
	}

	viper.SetEnvPrefix("CIK_EXTRACT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// extractConfig assembles the extraction settings from flags, environment,
// and config file, in viper's precedence order.
func extractConfig() types.ExtractConfig {
	return types.ExtractConfig{
		InputPath:     viper.GetString("input"),
		OutputPath:    viper.GetString("output"),
		Format:        types.OutputFormat(viper.GetString("format")),
		MaxLineLength: viper.GetInt("max_line_length"),
		Strict:        viper.GetBool("strict"),
	}
}

func runExtract(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments %v; use --input and --output", args)
	}

	e := extract.New(extractConfig(), logger)
	sum, err := e.RunFile()
	if err != nil {
		return err
	}
	if sum.Malformed > 0 {
		logger.Warn().Int("count", sum.Malformed).Msg("lines without a colon were skipped")
	}
	return nil
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, extract.ErrInputOpen):
		return exitInputOpen
	case errors.Is(err, extract.ErrOutputOpen):
		return exitOutputOpen
	case errors.Is(err, extract.ErrMalformedLine):
		return exitMalformed
	default:
		return exitError
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
