package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"oscbridge/avatarconfig"
	"oscbridge/gateway"
	"oscbridge/hub"
	"oscbridge/oscmanager"
	"oscbridge/param"
	"oscbridge/registry"
)

//go:embed static/index.html
var indexHTML []byte

var cfg Config

var rootCmd = &cobra.Command{
	Use:   "oscbridge",
	Short: "Real-time OSC debug bridge for VRChat",
	Long: `oscbridge sits between VRChat's OSC endpoints and a web control panel.
It mirrors every avatar parameter VRChat reports, lets the operator inject
values back, and picks up each avatar's custom parameters from its local
config file whenever the avatar changes.`,
	SilenceUsage: true,
	RunE:         run,
}

func main() {
	var err error
	cfg, err = loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	f := rootCmd.Flags()
	f.StringVar(&cfg.OSCListen, "osc-listen", cfg.OSCListen, "UDP address to receive OSC from VRChat")
	f.StringVar(&cfg.OSCSendHost, "osc-send-host", cfg.OSCSendHost, "host to send OSC to")
	f.IntVar(&cfg.OSCSendPort, "osc-send-port", cfg.OSCSendPort, "port to send OSC to")
	f.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "address for the control panel and websocket")
	f.StringVar(&cfg.AvatarDir, "avatar-dir", cfg.AvatarDir, "directory containing avtr_*.json parameter files")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logCfg := zap.NewProductionConfig()
	if cfg.Verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	reg, err := registry.New(param.Builtins())
	if err != nil {
		return err
	}

	loader := avatarconfig.NewLoader(avatarconfig.DirResolver(cfg.AvatarDir))

	oscMgr := oscmanager.New(cfg.OSCListen, cfg.OSCSendHost, cfg.OSCSendPort, logger)
	if err := oscMgr.Listen(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The watcher only speeds up config reloads; a missing directory is
	// not a reason to refuse to start.
	var reload <-chan string
	if watcher, err := avatarconfig.NewWatcher(cfg.AvatarDir, logger); err != nil {
		logger.Warn("avatar dir not watchable", zap.String("dir", cfg.AvatarDir), zap.Error(err))
	} else {
		reload = watcher.Changes()
		go watcher.Run(ctx)
	}

	h := hub.New(reg, loader, oscMgr, oscMgr.Events(), reload, logger)
	go h.Run(ctx)
	go oscMgr.Run()

	mux := http.NewServeMux()
	mux.Handle("/ws", gateway.New(h, logger))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(indexHTML)
	})

	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("bind http %s: %w", cfg.HTTPAddr, err)
	}

	srv := &http.Server{Handler: mux}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
		oscMgr.Close()
	}()

	logger.Info("oscbridge ready",
		zap.String("http", cfg.HTTPAddr),
		zap.String("osc_listen", cfg.OSCListen),
		zap.String("osc_send", fmt.Sprintf("%s:%d", cfg.OSCSendHost, cfg.OSCSendPort)))

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
