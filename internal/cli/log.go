package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/yildizm/go-logparser"
)

type logOptions struct {
	format string
	tail   int
	follow bool
}

func newLogCommand() *cobra.Command {
	var opts logOptions

	cmd := &cobra.Command{
		Use:   "log [file]",
		Short: "Summarize or follow the BlogView log file",
		Long: `Summarize a BlogView log file: entries per level and the most recent
warnings and errors. With --follow, print new warnings and errors as they
are written. Press Ctrl+C to stop following.

The file defaults to output.log_file from the configuration.`,
		Example: `  blogview log
  blogview log ~/.cache/blogview.log --tail 20
  blogview log --follow`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := ""
			if len(args) > 0 {
				filename = args[0]
			} else {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				filename = cfg.Output.LogFile
			}
			if filename == "" {
				return fmt.Errorf("no log file given and output.log_file is not set")
			}
			if err := validateLogFilePath(filename); err != nil {
				return fmt.Errorf("invalid file path: %w", err)
			}
			parser, err := newLogParser(opts.format)
			if err != nil {
				return err
			}
			if opts.follow {
				return runFollow(cmd, filename, parser)
			}
			return runLogReport(cmd, filename, parser, opts.tail)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "log format (auto, text, logfmt, json)")
	cmd.Flags().IntVarP(&opts.tail, "tail", "n", 10, "number of recent warnings and errors to show")
	cmd.Flags().BoolVar(&opts.follow, "follow", false, "print new warnings and errors as they are written")
	return cmd
}

func newLogParser(format string) (logparser.Parser, error) {
	switch format {
	case "auto":
		return logparser.New(), nil
	case "text":
		return logparser.NewWithFormat(logparser.FormatText), nil
	case "logfmt":
		return logparser.NewWithFormat(logparser.FormatLogfmt), nil
	case "json":
		return logparser.NewWithFormat(logparser.FormatJSON), nil
	default:
		return nil, fmt.Errorf("unknown format %s. Available formats: auto, text, logfmt, json", format)
	}
}

func isProblem(level string) bool {
	switch strings.ToUpper(level) {
	case "WARN", "WARNING", "ERROR", "FATAL":
		return true
	}
	return false
}

func runLogReport(cmd *cobra.Command, filename string, parser logparser.Parser, tail int) error {
	// #nosec G304 - path is validated by caller
	raw, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}
	entries, err := parser.ParseString(string(raw))
	if err != nil {
		return fmt.Errorf("failed to parse logs: %w", err)
	}

	counts := make(map[string]int)
	var problems []logparser.LogEntry
	for _, entry := range entries {
		counts[strings.ToUpper(entry.Level)]++
		if isProblem(entry.Level) {
			problems = append(problems, entry)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s: %d entries\n", GetEmoji("chart"), filepath.Base(filename), len(entries))
	levels := make([]string, 0, len(counts))
	for level := range counts {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	for _, level := range levels {
		fmt.Fprintf(out, "   %-5s %d\n", level, counts[level])
	}

	if len(problems) == 0 {
		fmt.Fprintf(out, "%s No warnings or errors\n", GetStatusEmoji(true))
		return nil
	}
	if tail > 0 && len(problems) > tail {
		problems = problems[len(problems)-tail:]
	}
	fmt.Fprintf(out, "\nRecent warnings and errors:\n")
	for _, entry := range problems {
		printLogEntry(out, entry)
	}
	return nil
}

func printLogEntry(out io.Writer, entry logparser.LogEntry) {
	level := strings.ToUpper(entry.Level)
	fmt.Fprintf(out, "%s [%s] %s: %s\n", GetLevelEmoji(level), entry.Timestamp.Format("15:04:05"), level, entry.Message)
}

// runFollow prints warnings and errors appended to filename until
// interrupted.
func runFollow(cmd *cobra.Command, filename string, parser logparser.Parser) error {
	watcher, file, cleanup, err := setupFileWatcher(filename)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return followLoop(ctx, cmd.OutOrStdout(), watcher, file, parser)
}

func followLoop(ctx context.Context, out io.Writer, watcher *fsnotify.Watcher, file *os.File, parser logparser.Parser) error {
	for {
		select {
		case <-ctx.Done():
			if isVerbose() {
				fmt.Fprintf(os.Stderr, "\nStopped following\n")
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&fsnotify.Write != fsnotify.Write {
				continue
			}
			if err := processNewLines(out, file, parser); err != nil && isVerbose() {
				fmt.Fprintf(os.Stderr, "Error handling event: %v\n", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			if isVerbose() {
				fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
			}
		}
	}
}

func processNewLines(out io.Writer, file *os.File, parser logparser.Parser) error {
	scanner := bufio.NewScanner(file)
	var lines []string
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}

	entries, err := parser.ParseString(strings.Join(lines, "\n"))
	if err != nil {
		return fmt.Errorf("failed to parse lines: %w", err)
	}
	for _, entry := range entries {
		if isProblem(entry.Level) {
			printLogEntry(out, entry)
		}
	}
	return nil
}

func cleanupWatcher(watcher *fsnotify.Watcher) {
	if err := watcher.Close(); err != nil && isVerbose() {
		fmt.Fprintf(os.Stderr, "Warning: failed to close watcher: %v\n", err)
	}
}

func cleanupFile(file *os.File) {
	if err := file.Close(); err != nil && isVerbose() {
		fmt.Fprintf(os.Stderr, "Warning: failed to close file: %v\n", err)
	}
}

// setupFileWatcher opens filename at its end and watches it for writes
func setupFileWatcher(filename string) (*fsnotify.Watcher, *os.File, func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filename); err != nil {
		cleanupWatcher(watcher)
		return nil, nil, nil, fmt.Errorf("failed to watch file: %w", err)
	}

	// #nosec G304 - path is validated by caller
	file, err := os.Open(filename)
	if err != nil {
		cleanupWatcher(watcher)
		return nil, nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		cleanupWatcher(watcher)
		cleanupFile(file)
		return nil, nil, nil, fmt.Errorf("failed to seek to end of file: %w", err)
	}

	if isVerbose() {
		fmt.Fprintf(os.Stderr, "Following %s\nPress Ctrl+C to stop...\n\n", filename)
	}
	return watcher, file, func() {
		cleanupWatcher(watcher)
		cleanupFile(file)
	}, nil
}

// validateLogFilePath rejects traversal and directories
func validateLogFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty file path")
	}
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("cannot read directory, must be a file")
	}
	return nil
}
