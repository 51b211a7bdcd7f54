// Консольный хост ядра редактора. Читает команды из stdin построчно и передает их редактору,
// после каждой команды выполняет отложенную задачу (например, обводку распознанной ссылки).
//
// Пример запуска: go run ./cmd/richtext -doc doc.json -trace
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aisa-it/aiplan-richtext/internal/richtext/config"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/edtypes"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/editor/htmlimport"
	"github.com/aisa-it/aiplan-richtext/internal/richtext/metrics"
)

var version string = "DEV"

func main() {
	docPath := flag.String("doc", "", "Path to initial document json")
	trace := flag.Bool("trace", false, "Verbose logs")
	flag.Parse()

	cfg, err := config.ReadConfig()
	if err != nil {
		slog.Error("Read config", "err", err)
		os.Exit(1)
	}

	if *trace || cfg.Trace {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Set prod log format
	if version != "DEV" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})))
	}

	s, err := newSession(cfg, os.Stdout)
	if err != nil {
		slog.Error("Init editor", "err", err)
		os.Exit(1)
	}

	if *docPath != "" {
		f, err := os.Open(*docPath)
		if err != nil {
			slog.Error("Open document", "path", *docPath, "err", err)
			os.Exit(1)
		}
		err = s.ed.LoadJSON(f)
		f.Close()
		if err != nil {
			slog.Error("Load document", "path", *docPath, "err", err)
			os.Exit(1)
		}
	}

	slog.Info("Richtext editor start", "version", version)
	fmt.Fprintln(os.Stdout, `type "help" for commands`)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := s.exec(scanner.Text()); err != nil {
			if errors.Is(err, errQuit) {
				return
			}
			fmt.Fprintln(os.Stdout, "error:", err)
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Error("Read input", "err", err)
		os.Exit(1)
	}
}

// newSession собирает редактор из конфигурации.
func newSession(cfg *config.Config, out io.Writer) (*session, error) {
	s := &session{
		history: editor.NewMemoryRecorder(cfg.HistoryLimit),
		out:     out,
	}

	opts := []editor.Option{
		editor.WithLogger(slog.Default()),
		editor.WithHistory(s.history),
		editor.WithLinkDetection(cfg.LinkDetection),
		editor.WithURLSchemes(cfg.LinkSchemes...),
		editor.WithDefaultBlock(edtypes.ElementType(cfg.DefaultBlock)),
		editor.WithImporter(htmlimport.NewImporter(
			htmlimport.WithSanitize(cfg.SanitizeImport),
			htmlimport.WithMinify(cfg.MinifyImport),
			htmlimport.WithMaxBytes(cfg.MaxImportBytes),
			htmlimport.WithLogger(slog.Default()),
		)),
	}

	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		m := metrics.New()
		if err := m.Register(reg); err != nil {
			return nil, err
		}
		s.gatherer = reg
		opts = append(opts, editor.WithMetrics(m))
	}

	ed, err := editor.New(nil, opts...)
	if err != nil {
		return nil, err
	}
	s.ed = ed
	return s, nil
}
