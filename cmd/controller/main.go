package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ikstudios/step-counter/internal/action"
	"github.com/ikstudios/step-counter/internal/channel"
	"github.com/ikstudios/step-counter/internal/config"
	"github.com/ikstudios/step-counter/internal/fitservice"
	"github.com/ikstudios/step-counter/internal/gate"
	"github.com/ikstudios/step-counter/internal/logging"
	"github.com/ikstudios/step-counter/internal/orchestrator"
	"github.com/ikstudios/step-counter/internal/platform"
	"github.com/ikstudios/step-counter/internal/store"
	"github.com/ikstudios/step-counter/internal/telemetry"
)

const help = `commands:
  read               read today's totals through both gates
  readnow            read today's totals without gates
  subscribe          subscribe every channel through both gates
  allow|deny|cancel  answer the pending permission dialog
  consent|decline    answer the pending consent screen
  ok                 accept the permission rationale
  settings           follow the denial snackbar to settings
  grant|revoke       change the permission from settings
  signout            forget the signed-in identity
  record CH VALUE    add a sample (steps, distance, calories, move_minutes, heart_points)
  log                show the in-app log
  save-config        write the effective settings to the config file
  quit`

// #region main
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	fs := pflag.NewFlagSet("controller", pflag.ExitOnError)
	dbPath := fs.String("db", cfg.Database.Path, "path to the controller database")
	fitAddr := fs.String("fit", cfg.Fit.Addr, "data channel server address (empty serves channels from the local database)")
	mode := fs.String("mode", cfg.Report.Mode, "report assembly mode: await or snapshot")
	level := fs.String("log-level", cfg.Log.Level, "diagnostics level: debug, info, warn, error")
	email := fs.String("email", "walker@example.com", "account used when consenting")
	noStart := fs.Bool("no-start", false, "skip the start-up subscription flow")
	fs.Parse(os.Args[1:])
	cfg.Database.Path = *dbPath
	cfg.Fit.Addr = *fitAddr
	cfg.Report.Mode = *mode
	cfg.Log.Level = *level

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	echo := logging.NewEcho(cfg.Log.EchoLines, nil)
	logger := logging.NewLogger(os.Stderr, echo, logging.ParseLevel(cfg.Log.Level))

	tel, err := telemetry.Setup(ctx, cfg.TelemetryConfig(), logger)
	if err != nil {
		log.Fatalf("failed to set up telemetry: %v", err)
	}
	defer tel.Shutdown(context.Background())

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("failed to create data dir: %v", err)
		}
	}
	db, err := store.NewStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	var channels channel.Service = fitservice.Local{Backend: fitservice.StoreBackend{Store: db}}
	if cfg.Fit.Addr != "" {
		client, err := fitservice.NewClient(cfg.Fit.Addr)
		if err != nil {
			log.Fatalf("failed to connect to data channel service at %s: %v", cfg.Fit.Addr, err)
		}
		defer client.Close()
		channels = client
	}

	reportCfg, err := cfg.ReportConfig()
	if err != nil {
		log.Fatalf("invalid report config: %v", err)
	}
	gateCfg := cfg.GateConfig()

	console := platform.NewConsole(os.Stdout, cfg.Permission.Required)
	orch := orchestrator.New(orchestrator.Config{Gate: gateCfg, Report: reportCfg}, orchestrator.Deps{
		Permissions:    console,
		Identity:       console,
		Channels:       channels,
		Narrator:       console,
		Prompter:       console,
		Registry:       db.Continuations(gateCfg.ContinuationTTL),
		Journal:        logging.DBJournal{DB: db.DB()},
		Recorder:       db,
		Subscriptions:  db,
		Logger:         logger,
		TracerProvider: tel.TracerProvider(),
		MeterProvider:  tel.MeterProvider(),
	})

	fmt.Println("Step Counter controller ready.")
	fmt.Printf("  DB: %s | Channels: %s | Report: %s\n", cfg.Database.Path, channelsLabel(cfg.Fit.Addr), reportCfg.Mode)
	fmt.Println("Type 'help' for commands.")

	if !*noStart {
		printDecision(orch.Start(ctx))
	}

	h := &host{cfg: cfg, orch: orch, console: console, store: db, echo: echo, email: *email, remote: cfg.Fit.Addr != ""}
	h.loop(ctx, os.Stdin, os.Stdout)
}
// #endregion main

// #region repl
type host struct {
	cfg     config.Config
	orch    *orchestrator.Orchestrator
	console *platform.Console
	store   *store.Store
	echo    *logging.Echo
	email   string
	remote  bool
}

func (h *host) loop(ctx context.Context, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() || ctx.Err() != nil {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return
		}
		h.run(ctx, fields, out)
	}
}

func (h *host) run(ctx context.Context, fields []string, out io.Writer) {
	switch fields[0] {
	case "help":
		fmt.Fprintln(out, help)
	case "read":
		printDecision(h.orch.OnAuthorizedFlowEvent(ctx, action.ReadReport))
	case "readnow":
		_, status := h.orch.ReadNow(ctx)
		fmt.Fprintln(out, status)
	case "subscribe":
		printDecision(h.orch.OnAuthorizedFlowEvent(ctx, action.Subscribe))
	case "allow", "deny", "cancel":
		answer := gate.Granted
		if fields[0] == "deny" {
			answer = gate.Denied
		}
		code, grants, ok := h.console.AnswerPermission(answer, fields[0] == "cancel")
		if !ok {
			fmt.Fprintln(out, "no permission dialog is open")
			return
		}
		d, err := h.orch.OnPermissionResult(ctx, code, grants)
		printResult(d, err)
	case "consent", "decline":
		code, result, ok := h.console.AnswerConsent(fields[0] == "consent", h.email)
		if !ok {
			fmt.Fprintln(out, "no consent screen is open")
			return
		}
		d, err := h.orch.OnAuthorizationResult(ctx, code, result)
		printResult(d, err)
	case "ok":
		if !h.console.AcceptRationale() {
			fmt.Fprintln(out, "no rationale is showing")
		}
	case "settings":
		if !h.console.FollowDenied() {
			fmt.Fprintln(out, "no snackbar is showing")
		}
	case "grant":
		h.console.SetPermission(gate.Granted)
	case "revoke":
		h.console.SetPermission(gate.Denied)
	case "signout":
		h.console.SignOut()
	case "record":
		h.record(ctx, fields[1:], out)
	case "log":
		for _, line := range h.echo.Lines() {
			fmt.Fprintln(out, line)
		}
	case "save-config":
		if err := config.Save(h.cfg); err != nil {
			fmt.Fprintf(out, "save error: %v\n", err)
			return
		}
		fmt.Fprintln(out, "config saved")
	default:
		fmt.Fprintf(out, "unknown command %q; type 'help'\n", fields[0])
	}
}

func (h *host) record(ctx context.Context, args []string, out io.Writer) {
	if len(args) != 2 {
		fmt.Fprintln(out, "usage: record CHANNEL VALUE")
		return
	}
	id := channel.ID(args[0])
	if _, ok := channel.Lookup(id); !ok {
		fmt.Fprintf(out, "unknown channel %q\n", args[0])
		return
	}
	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Fprintf(out, "bad value %q: %v\n", args[1], err)
		return
	}
	if h.remote {
		fmt.Fprintln(out, "note: channels are served remotely; this sample only lands in the local database")
	}
	if err := h.store.AddSample(ctx, id, v, time.Now()); err != nil {
		fmt.Fprintf(out, "record error: %v\n", err)
	}
}
// #endregion repl

// #region helpers
func printDecision(d gate.Decision) {
	line := fmt.Sprintf("[%s] %s %s", d.Gate, d.Token, d.Action)
	if d.Reason != "" {
		line += ": " + d.Reason
	}
	if d.Err != nil {
		line += " (" + d.Err.Error() + ")"
	}
	fmt.Println(line)
}

func printResult(d gate.Decision, err error) {
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	printDecision(d)
}

func channelsLabel(addr string) string {
	if addr == "" {
		return "local"
	}
	return addr
}

// #endregion helpers
