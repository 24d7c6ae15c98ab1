// Command lsbmark embeds, extracts and traces LSB identifiers in image,
// video and audio files.
//
//	lsbmark [-config lsbmark.yaml] [-ledger path] <command> [flags]
//
// Commands:
//
//	embed   -in file [-payload id] [-mode single_id] [-out file | -dir dir]
//	extract -in file [-mode single_id]
//	lookup  -in file [-mode single_id]
//	verify  -original file -marked file
//
// Every command prints one JSON object on stdout.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	watermark "github.com/yyyoichi/watermark_lsb"
	"github.com/yyyoichi/watermark_lsb/internal/config"
	"github.com/yyyoichi/watermark_lsb/ledger"
)

const (
	exitOK = iota
	exitFailed
	exitUsage
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	marker *watermark.Marker
	ledger *ledger.DB // nil when disabled
	stdout io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lsbmark", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "lsbmark.yaml", "path of the yaml configuration")
	ledgerPath := fs.String("ledger", "", "sqlite ledger path, overrides the configuration; \"off\" disables it")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: lsbmark [flags] embed|extract|lookup|verify [command flags]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	switch *ledgerPath {
	case "":
	case "off":
		cfg.Ledger.Path = ""
	default:
		cfg.Ledger.Path = *ledgerPath
	}

	logger := cfg.NewLogger(stderr)
	marker, err := watermark.New(cfg.Options(logger)...)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return exitUsage
	}
	a := &app{cfg: cfg, logger: logger, marker: marker, stdout: stdout}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	commands := map[string]func(context.Context, []string) (int, error){
		"embed":   a.embed,
		"extract": a.extract,
		"lookup":  a.lookup,
		"verify":  a.verify,
	}
	handler, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fs.Usage()
		return exitUsage
	}

	if cmd != "verify" && cfg.Ledger.Path != "" {
		db, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			logger.Error("failed to open ledger", "path", cfg.Ledger.Path, "error", err)
			return exitFailed
		}
		defer db.Close()
		a.ledger = db
	}

	code, err := handler(ctx, rest)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitUsage
		}
		logger.Error(cmd+" failed", "error", err)
	}
	return code
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// result prints res and maps it to an exit code.
func (a *app) result(res watermark.Result) (int, error) {
	if err := a.print(res); err != nil {
		return exitFailed, err
	}
	if !res.OK() {
		return exitFailed, nil
	}
	return exitOK, nil
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (a *app) embed(ctx context.Context, args []string) (int, error) {
	fs := a.flags("embed")
	in := fs.String("in", "", "input media file")
	payload := fs.String("payload", "", "identifier to embed; generated when empty, except for forensic_layer")
	mode := fs.String("mode", string(watermark.ModeSingleID), "single_id, source_layer or forensic_layer")
	out := fs.String("out", "", "output file; defaults to <dir>/<payload>_<input name>")
	dir := fs.String("dir", ".", "output directory used when -out is empty")
	if err := fs.Parse(args); err != nil {
		return exitUsage, err
	}
	if *in == "" {
		return exitUsage, errors.New("embed requires -in")
	}
	m, err := watermark.ParseMode(*mode)
	if err != nil {
		return a.result(watermark.Result{Status: watermark.StatusError, Message: err.Error(), Err: err})
	}
	if *payload == "" {
		if m == watermark.ModeForensic {
			return exitUsage, errors.New("forensic_layer requires -payload")
		}
		gen, err := ledger.NewIDGen([]byte(a.cfg.Ledger.IDKey))
		if err != nil {
			return exitFailed, err
		}
		if *payload, err = gen.Generate(time.Now()); err != nil {
			return exitFailed, err
		}
		a.logger.Info("generated media id", "payload", *payload)
	}
	if *out == "" {
		*out = watermark.OutputName(*dir, *payload, *in)
	}

	// the creator layer is read before the recipient layer goes on top
	var creator string
	if m == watermark.ModeForensic {
		if res := a.marker.Extract(ctx, *in, watermark.ModeDualLayer); res.OK() {
			creator = res.OriginalCreator
		}
	}

	res := a.marker.Embed(ctx, *in, *payload, *out, m)
	if !res.OK() || a.ledger == nil {
		return a.result(res)
	}
	if err := a.record(ctx, m, creator, *payload, *out); errors.Is(err, ledger.ErrDuplicatePayload) {
		code, perr := a.result(res)
		if perr != nil {
			return code, perr
		}
		return exitFailed, err
	} else if err != nil {
		a.logger.Warn("embedded but not recorded", "output", *out, "error", err)
	}
	return a.result(res)
}

func (a *app) record(ctx context.Context, mode watermark.Mode, creator, payload, out string) error {
	if mode != watermark.ModeForensic {
		_, err := a.ledger.RecordMedia(ctx, ledger.Media{
			Payload:   payload,
			MediaType: string(watermark.Classify(out)),
			Mode:      string(mode),
			FilePath:  out,
		})
		return err
	}
	if creator == "" || creator == watermark.Unknown {
		return errors.New("input carries no creator layer")
	}
	_, err := a.ledger.RecordDistribution(ctx, creator, payload, out)
	return err
}

func (a *app) extract(ctx context.Context, args []string) (int, error) {
	fs := a.flags("extract")
	in := fs.String("in", "", "marked media file")
	mode := fs.String("mode", string(watermark.ModeSingleID), "single_id or dual_layer")
	if err := fs.Parse(args); err != nil {
		return exitUsage, err
	}
	if *in == "" {
		return exitUsage, errors.New("extract requires -in")
	}
	return a.result(a.marker.Extract(ctx, *in, watermark.Mode(*mode)))
}

type lookupOutput struct {
	watermark.Result
	Media        *ledger.Media        `json:"media,omitempty"`
	Distribution *ledger.Distribution `json:"distribution,omitempty"`
}

func (a *app) lookup(ctx context.Context, args []string) (int, error) {
	fs := a.flags("lookup")
	in := fs.String("in", "", "marked media file")
	mode := fs.String("mode", string(watermark.ModeSingleID), "single_id or dual_layer")
	if err := fs.Parse(args); err != nil {
		return exitUsage, err
	}
	if *in == "" {
		return exitUsage, errors.New("lookup requires -in")
	}
	if a.ledger == nil {
		return exitUsage, errors.New("lookup requires a ledger")
	}

	res := a.marker.Extract(ctx, *in, watermark.Mode(*mode))
	if !res.OK() {
		return a.result(res)
	}
	out := lookupOutput{Result: res}
	var err error
	if res.Trace == nil {
		out.Media, err = a.ledger.Lookup(ctx, res.MediaID)
	} else {
		var t *ledger.Trace
		if t, err = a.ledger.Trace(ctx, res.OriginalCreator, res.LeakedByRecipient); err == nil {
			out.Media, out.Distribution = t.Media, t.Distribution
		}
	}
	if errors.Is(err, ledger.ErrNotFound) {
		a.logger.Warn("identifier is not on record", "error", err)
	} else if err != nil {
		return exitFailed, err
	}
	if err := a.print(out); err != nil {
		return exitFailed, err
	}
	return exitOK, nil
}
