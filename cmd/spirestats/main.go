// Package main provides the CLI entrypoint for spirestats.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/spirestats/internal/api"
	"github.com/verte-zerg/spirestats/internal/config"
	"github.com/verte-zerg/spirestats/internal/model"
	"github.com/verte-zerg/spirestats/internal/runpath"
	"github.com/verte-zerg/spirestats/internal/service"
	"github.com/verte-zerg/spirestats/internal/stats"
	"github.com/verte-zerg/spirestats/internal/statsui"
	"github.com/verte-zerg/spirestats/internal/store"
)

const defaultLiveInterval = 5

var version = "dev"

// stderr receives diagnostics.
var stderr io.Writer = os.Stderr

var (
	globalRunsPath string
	globalQuiet    bool

	runsCharacter     string
	runsVictoriesOnly bool
	runsMinAscension  int
	runsJSON          bool

	statsJSON bool

	exportOut       string
	exportClipboard bool
	exportRecord    bool
	exportDB        string

	pathSave bool

	serveAddr         string
	serveLiveInterval int

	historyCharacter string
	historyLast      int
	historyDB        string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "spirestats",
		Short:         "Slay the Spire run statistics",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&globalRunsPath, "runs-path", "", "runs directory (overrides config and auto-detection)")
	rootCmd.PersistentFlags().BoolVarP(&globalQuiet, "quiet", "q", false, "suppress diagnostics for skipped files")

	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newCharactersCmd())
	rootCmd.AddCommand(newPathCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newOpenAPICmd())

	return rootCmd
}

// setup loads the config file and builds the service for one invocation.
func setup(quiet bool) (*service.Service, config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	logger := log.New(stderr, "spirestats: ", 0)
	if quiet {
		logger = log.New(io.Discard, "", 0)
	}
	resolver := runpath.New(runpath.DefaultCandidates(), logger)
	if fileCfg.Runs.Path != nil && *fileCfg.Runs.Path != "" {
		resolver.Restore(*fileCfg.Runs.Path)
	}
	if globalRunsPath != "" {
		if err := resolver.Set(globalRunsPath); err != nil {
			return nil, config.FileConfig{}, err
		}
	}
	return service.New(resolver, logger), fileCfg, nil
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs",
		Args:  cobra.NoArgs,
		RunE:  runRunsCmd,
	}
	cmd.Flags().StringVar(&runsCharacter, "character", "", "character filter (case-insensitive)")
	cmd.Flags().BoolVar(&runsVictoriesOnly, "victories-only", false, "only list victories")
	cmd.Flags().IntVar(&runsMinAscension, "min-ascension", 0, "minimum ascension level (inclusive)")
	cmd.Flags().BoolVar(&runsJSON, "json", false, "print JSON")
	return cmd
}

func runRunsCmd(cmd *cobra.Command, _ []string) error {
	svc, _, err := setup(globalQuiet)
	if err != nil {
		return err
	}
	filter := model.RunFilter{
		Character:     runsCharacter,
		VictoriesOnly: runsVictoriesOnly,
	}
	if cmd.Flags().Changed("min-ascension") {
		minAsc := runsMinAscension
		filter.MinAscension = &minAsc
	}
	var runs []model.RunMetrics
	if runsCharacter != "" {
		if runs, err = svc.CharacterRuns(runsCharacter); err != nil {
			return notFoundError(err)
		}
		runs = service.FilterRuns(runs, filter)
	} else {
		runs = svc.ListRuns(filter)
	}
	if runsJSON {
		return writeJSON(cmd.OutOrStdout(), runs)
	}
	return stats.RenderRunsTable(cmd.OutOrStdout(), runs)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [character]",
		Short: "Show per-character stats",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runStatsCmd,
	}
	cmd.Flags().BoolVar(&statsJSON, "json", false, "print JSON")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, args []string) error {
	svc, _, err := setup(globalQuiet)
	if err != nil {
		return err
	}
	runs := svc.LoadRuns()
	rows := stats.Aggregate(runs)
	if len(args) == 1 {
		st, err := service.FindStats(rows, args[0])
		if err != nil {
			return notFoundError(err)
		}
		rows = []model.CharacterStats{st}
		if statsJSON {
			return writeJSON(cmd.OutOrStdout(), st)
		}
	} else if statsJSON {
		return writeJSON(cmd.OutOrStdout(), rows)
	}
	return stats.RenderStatsTable(cmd.OutOrStdout(), rows, runs, 0)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all runs and stats as JSON",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportOut, "out", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&exportClipboard, "clipboard", false, "copy the export to the clipboard")
	cmd.Flags().BoolVar(&exportRecord, "record", false, "record the snapshot in the history database")
	cmd.Flags().StringVar(&exportDB, "db", "", "history database path")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	svc, fileCfg, err := setup(globalQuiet)
	if err != nil {
		return err
	}
	export := svc.Export()
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	if exportRecord {
		st, err := store.Open(resolveDBPath(cmd, exportDB, fileCfg))
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
		id, err := st.InsertSnapshot(cmd.Context(), export)
		if err != nil {
			return fmt.Errorf("failed to record snapshot: %w", err)
		}
		logErrf("Recorded snapshot %d (%d runs)\n", id, len(export.Runs))
	}

	if exportClipboard {
		if err := clipboard.WriteAll(string(data)); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		logErrf("Copied export (%d runs) to clipboard\n", len(export.Runs))
	}

	switch {
	case exportOut != "":
		if err := writeFileAtomic(exportOut, append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOut, err)
		}
		logErrln("Wrote", exportOut)
	case !exportClipboard && !exportRecord:
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(data)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newCharactersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "characters",
		Short: "List playable characters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, c := range model.Characters() {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", c.DirName(), c.DisplayName()); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			}
			return nil
		},
	}
}

func newPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show the runs directory configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := setup(globalQuiet)
			if err != nil {
				return err
			}
			return printPathInfo(cmd.OutOrStdout(), svc.PathInfo())
		},
	}
	setCmd := &cobra.Command{
		Use:   "set <dir>",
		Short: "Set a custom runs directory",
		Args:  cobra.ExactArgs(1),
		RunE:  runPathSetCmd,
	}
	setCmd.Flags().BoolVar(&pathSave, "save", true, "persist the path in the config file")
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the custom runs directory",
		Args:  cobra.NoArgs,
		RunE:  runPathClearCmd,
	}
	clearCmd.Flags().BoolVar(&pathSave, "save", true, "remove the path from the config file")
	cmd.AddCommand(setCmd, clearCmd)
	return cmd
}

func runPathSetCmd(cmd *cobra.Command, args []string) error {
	svc, _, err := setup(globalQuiet)
	if err != nil {
		return err
	}
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := svc.SetPath(dir)
	if err != nil {
		return err
	}
	if pathSave {
		if err := config.SaveRunsPath(config.DefaultConfigPath(), dir); err != nil {
			return err
		}
	}
	return printPathInfo(cmd.OutOrStdout(), info)
}

func runPathClearCmd(cmd *cobra.Command, _ []string) error {
	svc, _, err := setup(globalQuiet)
	if err != nil {
		return err
	}
	info := svc.ClearPath()
	if pathSave {
		if err := config.SaveRunsPath(config.DefaultConfigPath(), ""); err != nil {
			return err
		}
	}
	return printPathInfo(cmd.OutOrStdout(), info)
}

func printPathInfo(w io.Writer, info model.PathInfo) error {
	current := "(none)"
	if info.CurrentPath != nil {
		current = *info.CurrentPath
	}
	auto := "(none)"
	if info.AutoDetectedPath != nil {
		auto = *info.AutoDetectedPath
	}
	_, err := fmt.Fprintf(w, "Current:       %s\nCustom:        %t\nAuto-detected: %s\nExists:        %t\n",
		current, info.IsCustom, auto, info.PathExists)
	return err
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", api.DefaultAddr, "listen address")
	cmd.Flags().IntVar(&serveLiveInterval, "live-interval", defaultLiveInterval, "seconds between live snapshots")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	svc, fileCfg, err := setup(globalQuiet)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	applyIntConfig(cmd, "live-interval", &serveLiveInterval, fileCfg.Server.LiveInterval)
	if serveLiveInterval <= 0 {
		return fmt.Errorf("--live-interval must be > 0")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(svc, api.Options{
		Version:      version,
		LiveInterval: time.Duration(serveLiveInterval) * time.Second,
		Logger:       log.New(stderr, "spirestats: ", log.LstdFlags),
	})
	if err := server.ListenAndServe(ctx, serveAddr); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded stats snapshots",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyCharacter, "character", "", "character filter (case-insensitive)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to the last N snapshots")
	cmd.Flags().StringVar(&historyDB, "db", "", "history database path")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if historyCharacter != "" {
		if _, ok := model.LookupCharacter(historyCharacter); !ok {
			return fmt.Errorf("unknown character %q (available: %s)", historyCharacter, strings.Join(model.CharacterIDs(), ", "))
		}
	}
	st, err := store.Open(resolveDBPath(cmd, historyDB, fileCfg))
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	rows, err := st.ListHistory(cmd.Context(), historyCharacter, historyLast)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	return stats.RenderHistory(cmd.OutOrStdout(), rows)
}

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Browse stats in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Diagnostics on stderr would corrupt the alternate screen.
			svc, _, err := setup(true)
			if err != nil {
				return err
			}
			program := tea.NewProgram(statsui.NewModel(svc), tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("failed to run stats TUI: %w", err)
			}
			return nil
		},
	}
}

func newOpenAPICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "openapi",
		Short: "Print the API's OpenAPI document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := api.OpenAPIDocument(version)
			if err != nil {
				return fmt.Errorf("failed to build OpenAPI document: %w", err)
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(doc)); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# spirestats configuration
# Uncomment a value to enable it. CLI flags override config values.

[runs]
# path = "/path/to/SlayTheSpire/runs"   # Custom runs directory (default: auto-detect)

[server]
# addr = %q        # API listen address
# live-interval = %d            # Seconds between live snapshots

[history]
# db = %q
`,
		api.DefaultAddr,
		defaultLiveInterval,
		config.DefaultDBPath(),
	)
}

func resolveDBPath(cmd *cobra.Command, flagValue string, fileCfg config.FileConfig) string {
	path := config.DefaultDBPath()
	applyStringConfig(cmd, "db", &path, fileCfg.History.DB)
	if flagValue != "" {
		path = flagValue
	}
	return path
}

func notFoundError(err error) error {
	var nf *service.NotFoundError
	if !errors.As(err, &nf) {
		return err
	}
	if errors.Is(err, service.ErrNoRuns) {
		return fmt.Errorf("%w (no runs recorded)", err)
	}
	return fmt.Errorf("%w\n%s", err, nf.Details())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "export-*.json")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(data); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
