package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"

	"github.com/MimeLyc/videotools/internal/config"
	"github.com/MimeLyc/videotools/internal/downloader"
	"github.com/MimeLyc/videotools/internal/errs"
	"github.com/MimeLyc/videotools/internal/gemini"
	"github.com/MimeLyc/videotools/internal/httpapi"
	"github.com/MimeLyc/videotools/internal/jobs"
	"github.com/MimeLyc/videotools/internal/persistence"
	"github.com/MimeLyc/videotools/internal/service"
	"github.com/MimeLyc/videotools/internal/translator"
	"github.com/MimeLyc/videotools/pkg/icron"
	"github.com/MimeLyc/videotools/pkg/log"
)

const usage = `usage: videotools <command> [flags]

commands:
  translate -i FILE [-o OUT] [-captions FILE] [-thumbnail FILE] [-format srt|json] [-lang TAG]
  download  [-quality best|1080p|720p|audio] [-subs] [-thumbnail] [-metadata] [-playlist] [-dir DIR] URL
  info      URL
  serve     [-addr ADDR]
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		errs.NewDefaultHandler().Handle(err)
		os.Exit(1)
	}

	log.InitLogger(log.ParseLevel(cfg.System.LogLevel))
	if cfg.System.LogFile != "" {
		fl, err := log.InitFileLogger(cfg.System.LogFile, log.ParseLevel(cfg.System.LogLevel))
		if err != nil {
			log.Fatal("Failed to open log file: %v", err)
		}
		defer fl.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		errs.NewDefaultHandler().Handle(err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return errs.New(errs.ErrValidation, "missing command")
	}

	switch args[0] {
	case "translate":
		return runTranslate(ctx, cfg, args[1:])
	case "download":
		return runDownload(ctx, cfg, args[1:], stdout)
	case "info":
		return runInfo(ctx, cfg, args[1:], stdout)
	case "serve":
		return runServe(ctx, cfg, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stdout, usage)
		return errs.New(errs.ErrValidation, fmt.Sprintf("unknown command %q", args[0]))
	}
}

// newPipeline wires the translation stack from cfg and the generator.
func newPipeline(cfg *config.Config, gen gemini.Generator) *service.Pipeline {
	return service.NewPipeline(
		translator.New(gen, translator.Options{
			StrictNumbering:  cfg.Translate.StrictNumbering,
			EnforceWordLimit: cfg.Translate.EnforceWordLimit,
		}),
		translator.NewCreative(gen, translator.Brand{
			Prefix: cfg.Translate.CaptionPrefix,
			Suffix: cfg.Translate.CaptionSuffix,
		}),
		cfg.Translate.TargetLanguage,
	)
}

func newGenerator(cfg *config.Config) (gemini.Generator, error) {
	if err := cfg.ValidateTranslation(); err != nil {
		return nil, err
	}
	client, err := gemini.NewClient(cfg.GeminiClientConfig(), nil)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrConfig, "failed to create Gemini client")
	}
	return client, nil
}

func runTranslate(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	input := fs.String("i", "", "input subtitle file (.srt or timed-text .json)")
	output := fs.String("o", "", "output subtitle file (default: <input>.<lang>.srt)")
	captions := fs.String("captions", "", "captions output file (default: <input>.captions.txt)")
	thumbnail := fs.String("thumbnail", "", "thumbnail text output file (default: <input>.thumbnail.txt)")
	format := fs.String("format", "", "input format, srt or json (default: from the file extension)")
	lang := fs.String("lang", "", "target language (default: TARGET_LANGUAGE)")
	if err := fs.Parse(args); err != nil {
		return errs.Wrap(err, errs.ErrValidation, "invalid translate flags")
	}
	if *input == "" {
		return errs.New(errs.ErrValidation, "-i is required")
	}
	if *lang != "" {
		tag, err := language.Parse(*lang)
		if err != nil {
			return errs.Wrap(err, errs.ErrValidation, "invalid -lang")
		}
		config.WithTargetLanguage(tag)(cfg)
	}

	gen, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	observer := service.NewAsyncObserver(service.LogObserver{}, 64)
	defer observer.Close()

	result, err := service.NewExecutor(newPipeline(cfg, gen), nil).Translate(ctx, service.TranslatePayload{
		Input:           *input,
		Output:          *output,
		CaptionsOutput:  *captions,
		ThumbnailOutput: *thumbnail,
		Format:          *format,
	}, func(progress float64, status string) {
		observer.Notify(service.Update{Progress: progress, Status: status})
	})
	if err != nil {
		return err
	}

	log.Info("Subtitle: %s", result.Output)
	log.Info("Captions: %s", result.CaptionsOutput)
	log.Info("Thumbnail text: %s", result.ThumbnailOutput)
	return nil
}

func runDownload(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	quality := fs.String("quality", "best", "best, 1080p, 720p or audio")
	subs := fs.Bool("subs", false, "download all subtitles")
	thumb := fs.Bool("thumbnail", false, "write the thumbnail")
	meta := fs.Bool("metadata", false, "embed metadata")
	playlist := fs.Bool("playlist", false, "download the whole playlist")
	dir := fs.String("dir", cfg.Download.Dir, "save directory")
	if err := fs.Parse(args); err != nil {
		return errs.Wrap(err, errs.ErrValidation, "invalid download flags")
	}
	if fs.NArg() != 1 {
		return errs.New(errs.ErrValidation, "download needs exactly one URL")
	}
	q, err := downloader.ParseQuality(*quality)
	if err != nil {
		return errs.Wrap(err, errs.ErrValidation, "invalid -quality")
	}

	lastLogged := -1.0
	outcome, err := downloader.New(cfg.Download.YTDLPPath).Download(ctx, downloader.Request{
		URL:     fs.Arg(0),
		Quality: q,
		Options: downloader.Options{
			Subtitles: *subs,
			Thumbnail: *thumb,
			Metadata:  *meta,
			Playlist:  *playlist,
		},
		SaveDir: *dir,
	}, func(ev downloader.Event) {
		switch ev.Kind {
		case downloader.EventProgress:
			if ev.Fraction-lastLogged >= 0.1 || (ev.Fraction >= 1 && lastLogged < 1) {
				lastLogged = ev.Fraction
				log.Info("[%3.0f%%] %s %s ETA %s", ev.Fraction*100, ev.Size, ev.Speed, ev.ETA)
			}
		case downloader.EventMerging:
			log.Info("Merging formats into %s", ev.Path)
		case downloader.EventDestination:
			log.Debug("Destination %s", ev.Path)
		}
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, outcome.FilePath)
	return nil
}

func runInfo(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errs.New(errs.ErrValidation, "info needs exactly one URL")
	}
	info, err := downloader.New(cfg.Download.YTDLPPath).Info(ctx, args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

type scheduler interface {
	Schedule(context.Context) error
}

type cronEngine interface {
	Start()
	Stop() context.Context
}

type httpServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.HTTP.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return errs.Wrap(err, errs.ErrValidation, "invalid serve flags")
	}
	config.WithHTTPAddr(*addr)(cfg)

	store, err := persistence.NewSQLiteStore(cfg.System.DBPath)
	if err != nil {
		return errs.Wrap(err, errs.ErrConfig, "failed to open job store").WithContext("path", cfg.System.DBPath)
	}
	defer store.Close()

	var pipeline *service.Pipeline
	if !cfg.CanTranslate() {
		log.Warn("Translation disabled: GEMINI_API_KEYS is not set")
	} else if gen, err := newGenerator(cfg); err != nil {
		log.Warn("Translation disabled: %v", err)
	} else {
		pipeline = newPipeline(cfg, gen)
	}
	ytdlp := downloader.New(cfg.Download.YTDLPPath)

	queue := jobs.NewQueue(cfg.Translate.Workers, store)
	queue.Start(service.NewExecutor(pipeline, ytdlp).Execute)
	defer queue.Stop()

	engine := cron.New(cron.WithParser(icron.Parser))
	var sched scheduler
	if cfg.Translate.InboxDir != "" {
		sched = service.NewInboxScanner(cfg.Translate.InboxDir, cfg.Translate.CronExpr,
			cfg.Translate.TargetLanguage.String(), queue, engine)
	}

	srv := httpapi.NewServer(queue, ytdlp,
		httpapi.WithDownloadDir(cfg.Download.Dir),
		httpapi.WithAllowedDirs(cfg.Translate.InboxDir, cfg.Download.Dir),
		httpapi.WithUI(cfg.HTTP.UIStaticDir, cfg.HTTP.UIEnabled()),
	)
	return runWithComponents(ctx, cfg, sched, engine, srv)
}

// runWithComponents blocks until ctx is cancelled or the HTTP server fails.
func runWithComponents(ctx context.Context, cfg *config.Config, sched scheduler, engine cronEngine, srv httpServer) error {
	if sched != nil {
		if err := sched.Schedule(ctx); err != nil {
			return errs.Wrap(err, errs.ErrConfig, "failed to schedule inbox scan")
		}
	}
	engine.Start()
	defer func() {
		<-engine.Stop().Done()
	}()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Listening on %s", cfg.HTTP.Addr)
		serveErr <- srv.ListenAndServe(cfg.HTTP.Addr)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errs.Wrap(err, errs.ErrNetwork, "http server failed")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errs.Wrap(err, errs.ErrNetwork, "http shutdown failed")
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errs.Wrap(err, errs.ErrNetwork, "http server failed")
	}
	log.Info("Server stopped")
	return nil
}
