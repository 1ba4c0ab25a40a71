// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Open-Finance-Lab/Chat-XBRL/internal/extract"
	"github.com/Open-Finance-Lab/Chat-XBRL/internal/index"
	"github.com/Open-Finance-Lab/Chat-XBRL/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the SQLite CIK index (store, list)",
	Long: `Index keeps extracted CIK fields in a local SQLite database so later
stages can look up a company's CIK by name. Use subcommands to ingest an
input file or list what is stored.`,
}

// --- store subcommand ---

var indexStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Extract fields from the input file and add them to the index",
	Long: `Store runs the same extraction as the root command over --input and
inserts each record's key and field into the index. Fields that are already
indexed keep their original key and are reported as duplicates.`,
	Args: cobra.NoArgs,
	RunE: runIndexStore,
}

func runIndexStore(cmd *cobra.Command, args []string) error {
	e := extract.New(extractConfig(), logger)
	records, sum, err := e.Collect()
	if err != nil {
		return err
	}
	logger.Debug().Int("records", sum.Records).Int("emitted", sum.Emitted).Msg("input scanned")

	store, err := index.Open(indexConfig().DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Ingest(cmd.Context(), e.Config().InputPath, records, cmd.OutOrStdout())
	return err
}

// --- list subcommand ---

var indexListCmd = &cobra.Command{
	Use:   "list [key-prefix]",
	Short: "List indexed CIK fields, optionally filtered by key prefix",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndexList,
}

func runIndexList(cmd *cobra.Command, args []string) error {
	store, err := index.Open(indexConfig().DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var entries []index.Entry
	if len(args) == 1 {
		entries, err = store.Lookup(cmd.Context(), args[0])
	} else {
		entries, err = store.List(cmd.Context())
	}
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatEntries(cmd.OutOrStdout(), entries, jsonOutput)
}

func formatEntries(w io.Writer, entries []index.Entry, jsonOutput bool) error {
	if jsonOutput {
		if entries == nil {
			entries = []index.Entry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return nil
	}

	fmt.Fprintf(w, "%-10s  %-40s  %s\n", "CIK", "Key", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for _, e := range entries {
		fmt.Fprintf(w, "%-10s  %-40s  %s:%d\n", e.Value, shorten(e.Key, 40), e.Source, e.Line)
	}
	return nil
}

// shorten caps s at n runes, marking the cut with "...".
func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func indexConfig() types.IndexConfig {
	return types.IndexConfig{DBPath: viper.GetString("index.db")}
}

func init() {
	indexCmd.PersistentFlags().String("db", types.DefaultIndexPath, "SQLite index database")
	bindFlag("index.db", indexCmd.PersistentFlags().Lookup("db"))

	indexListCmd.Flags().Bool("json", false, "output entries as JSON")

	indexCmd.AddCommand(indexStoreCmd)
	indexCmd.AddCommand(indexListCmd)
	rootCmd.AddCommand(indexCmd)
}
