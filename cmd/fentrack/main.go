package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/thyrook/fentrack/internal/board"
	"github.com/thyrook/fentrack/internal/config"
	"github.com/thyrook/fentrack/internal/engine"
	"github.com/thyrook/fentrack/internal/iface"
	"github.com/thyrook/fentrack/internal/session"
	"github.com/thyrook/fentrack/internal/storage"
	"github.com/thyrook/fentrack/internal/vision"
)

func main() {
	var (
		configPath  = flag.String("config", "config.json", "Path to configuration file")
		povFlag     = flag.String("pov", "", "Side at the bottom of the screen: white or black")
		videoPath   = flag.String("video", "", "Replay a recorded video instead of capturing the screen")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		quiet       = flag.Bool("quiet", false, "Print bare FENs only")
		writeConfig = flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	)
	flag.Parse()

	if *writeConfig {
		if err := config.DefaultConfig().Save(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default configuration to %s\n", *configPath)
		return
	}

	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.DefaultConfig()
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *povFlag != "" {
		cfg.Tracker.POV = *povFlag
	}
	if *videoPath != "" {
		cfg.Vision.VideoPath = *videoPath
	}
	if *verbose {
		cfg.Interface.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	logger, err := iface.NewLogger(cfg.Interface.LogPath, cfg.Interface.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cli := iface.NewCLI(cfg, *quiet)
	cli.PrintBanner()

	logger.Info("fentrack starting",
		zap.String("version", cfg.Version),
		zap.String("config", *configPath),
		zap.String("go_version", runtime.Version()),
	)

	if err := run(cfg, logger, cli, *quiet); err != nil {
		logger.Error("fentrack stopped", zap.Error(err))
		cli.PrintError(err)
		os.Exit(1)
	}

	logger.Info("fentrack shutting down gracefully")
}

// historySize is how many journal entries the history command lists
const historySize = 20

func run(cfg *config.Config, logger *zap.Logger, cli *iface.CLI, quiet bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := session.NewMetrics(reg)
	if addr := cfg.Interface.MetricsAddr; addr != "" {
		go serveMetrics(addr, reg, logger)
	}

	pov, err := board.ParseColor(cfg.Tracker.POV)
	if err != nil {
		return err
	}

	source, interval, err := openSource(cfg, logger)
	if err != nil {
		return err
	}
	defer source.Close()

	piecesReader, err := vision.NewExecClassifier(cfg.Classifier.Command, cfg.Classifier.WorkDir, logger)
	if err != nil {
		return fmt.Errorf("failed to start classifier: %w", err)
	}
	defer piecesReader.Close()

	var classifier vision.Classifier = piecesReader
	if cfg.Classifier.Output == "logits" {
		classifier, err = vision.NewLogitsClassifier(piecesReader, cfg.Classifier.MinConfidence)
		if err != nil {
			return err
		}
	}

	opts := session.DefaultOptions()
	opts.Threshold = cfg.Vision.StabilityThreshold
	opts.POV = pov
	opts.TrustRawPlacement = cfg.Tracker.TrustRawPlacement
	opts.SuppressDuplicates = cfg.Tracker.SuppressDuplicates
	opts.Validate = cfg.Tracker.ValidatePositions
	opts.RecordGame = cfg.Tracker.RecordGame

	sess, err := session.New(opts, vision.MatScorer{}, logger, metrics)
	if err != nil {
		return err
	}

	sinks := session.MultiSink{cli, session.LogSink{Logger: logger}}
	if quiet {
		sinks = append(sinks, session.NewWriterSink(os.Stdout))
	}

	var journal *storage.Journal
	if cfg.Storage.JournalPath != "" {
		journal, err = storage.Open(cfg.Storage.JournalPath, cfg.Storage.JournalSize)
		if err != nil {
			return err
		}
		defer journal.Close()
		sinks = append(sinks, journal)
	}

	var wg sync.WaitGroup
	if cfg.Engine.Enabled {
		limits := engine.Limits{
			Depth:    cfg.Engine.Depth,
			MoveTime: time.Duration(cfg.Engine.MoveTimeMs) * time.Millisecond,
		}
		eng, err := engine.NewUCIEngine(ctx, cfg.Engine.Path, limits, logger)
		if err != nil {
			// Tracking works without suggestions
			logger.Warn("Engine unavailable", zap.Error(err))
			cli.PrintWarning(fmt.Sprintf("Engine unavailable: %v", err))
		} else {
			defer eng.Close()
			region := vision.Region(cfg.Vision.ScreenRegion)
			advisor := engine.NewAdvisor(eng, func(e session.Emission, a engine.Analysis) {
				from, to, err := region.MovePoints(a.BestMove, e.POV)
				if err != nil {
					logger.Warn("Cannot place suggestion on screen", zap.String("move", a.BestMove), zap.Error(err))
					return
				}
				cli.PrintAnalysis(a, from, to)
			}, logger)
			sinks = append(sinks, advisor)

			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := advisor.Run(ctx); err != nil {
					logger.Warn("Engine advisor stopped", zap.Error(err))
				}
			}()
		}
	}

	producer := session.NewProducer(source, classifier, session.ProducerConfig{
		Interval:      interval,
		Buffer:        cfg.Pipeline.QueueSize,
		MaxReadErrors: cfg.Pipeline.MaxReadErrors,
	}, logger, metrics)

	go readCommands(ctx, os.Stdin, sess, producer, journal, cli, stop)

	prodErr := make(chan error, 1)
	go func() { prodErr <- producer.Run(ctx) }()

	sessErr := sess.Run(ctx, producer.Observations(), sinks)
	stop()
	perr := <-prodErr
	wg.Wait()

	if vs, ok := source.(*vision.VideoSource); ok {
		logger.Info("Replay stopped", zap.Float64("progress", vs.Progress()))
	}

	if cfg.Tracker.RecordGame && cfg.Storage.PGNPath != "" {
		if pgn := sess.PGN(); pgn != "" {
			if err := os.WriteFile(cfg.Storage.PGNPath, []byte(pgn), 0644); err != nil {
				logger.Warn("Failed to save game", zap.Error(err))
			} else {
				logger.Info("Game saved", zap.String("path", cfg.Storage.PGNPath))
			}
		}
	}

	cli.PrintSessionStats(sess.Stats(), producer.Stats())

	return errors.Join(ignoreCancel(sessErr), ignoreCancel(perr))
}

// ignoreCancel treats shutdown by signal or quit command as success
func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openSource returns the frame source and the capture interval to pace it with
func openSource(cfg *config.Config, logger *zap.Logger) (vision.FrameSource, time.Duration, error) {
	if cfg.Vision.VideoPath != "" {
		vs, err := vision.NewVideoSource(cfg.Vision.VideoPath)
		if err != nil {
			return nil, 0, err
		}
		logger.Info("Replaying video",
			zap.String("path", cfg.Vision.VideoPath),
			zap.Float64("fps", vs.FPS()))
		return vs, 0, nil
	}

	region := vision.Region(cfg.Vision.ScreenRegion)
	ls, err := vision.NewLiveSource(region)
	if err != nil {
		return nil, 0, err
	}
	logger.Info("Capturing screen",
		zap.Stringer("region", region.ToRectangle()),
		zap.Int("displays", len(vision.Displays())))
	return ls, time.Second / time.Duration(cfg.Vision.CaptureFPS), nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Info("Serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("Metrics server failed", zap.Error(err))
	}
}

// readCommands handles interactive input until stdin closes
func readCommands(ctx context.Context, in io.Reader, sess *session.Session, producer *session.Producer, journal *storage.Journal, cli *iface.CLI, stop func()) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := iface.ParseCommand(line)
		if err != nil {
			cli.PrintWarning(err.Error())
			continue
		}

		switch cmd.Kind {
		case iface.CmdPOV:
			if err := sess.SetPOV(cmd.POV); err != nil {
				cli.PrintError(err)
				continue
			}
			cli.PrintStatus("Point of view: "+cmd.POV.String(), "success")
		case iface.CmdReset:
			sess.Reset()
			cli.PrintStatus("Game reset; waiting for a settled board", "info")
		case iface.CmdFEN:
			if f, ok := sess.FEN(); ok {
				cli.PrintStatus(f, "info")
			} else {
				cli.PrintStatus("No position yet", "warning")
			}
		case iface.CmdPGN:
			cli.PrintStatus(sess.PGN(), "info")
		case iface.CmdBoard:
			cli.PrintCurrentBoard(sess)
		case iface.CmdHistory:
			if journal == nil {
				cli.PrintWarning("Journal is disabled")
				continue
			}
			entries, err := journal.Recent(historySize)
			if err != nil {
				cli.PrintError(err)
				continue
			}
			cli.PrintHistory(entries)
		case iface.CmdStats:
			cli.PrintSessionStats(sess.Stats(), producer.Stats())
		case iface.CmdHelp:
			cli.PrintStatus(iface.CommandHelp, "info")
		case iface.CmdQuit:
			stop()
			return
		}
	}
}
