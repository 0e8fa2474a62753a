package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/handcast/internal/app"
	"github.com/ayusman/handcast/internal/capture"
	"github.com/ayusman/handcast/internal/config"
	"github.com/ayusman/handcast/internal/detector"
	"github.com/ayusman/handcast/internal/metrics"
	"github.com/ayusman/handcast/internal/payload"
	"github.com/ayusman/handcast/internal/preview"
	"github.com/ayusman/handcast/internal/server"
	"github.com/ayusman/handcast/internal/store"
	"github.com/ayusman/handcast/internal/transport"
	"github.com/ayusman/handcast/internal/tray"
)

type runOptions struct {
	device    int
	addr      string
	transport string
	format    string
	gesture   bool
	noWindow  bool
	record    bool
	httpAddr  string
	staticDir string
	tray      bool
}

func newRunCmd(e *env) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Capture, detect and send hand landmarks",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.apply(cmd, &e.cfg)
			if err := e.cfg.Validate(); err != nil {
				return err
			}
			return runPipeline(cmd.Context(), e.cfg, e.logger)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.device, "device", 0, "camera device index")
	f.StringVar(&opts.addr, "addr", transport.DefaultAddr, "UDP destination host:port")
	f.StringVar(&opts.transport, "transport", config.TransportUDP, "transport: udp or zmq")
	f.StringVar(&opts.format, "format", payload.FormatList, "payload format: list or framed")
	f.BoolVar(&opts.gesture, "gesture", false, "append the open/closed gesture signal")
	f.BoolVar(&opts.noWindow, "no-window", false, "do not open the preview window")
	f.BoolVar(&opts.record, "record", false, "record sent payloads to the session database")
	f.StringVar(&opts.httpAddr, "http", "", "serve the debug HTTP API on this address")
	f.StringVar(&opts.staticDir, "static", "", "serve files from this directory on the HTTP root")
	f.BoolVar(&opts.tray, "tray", false, "show a system tray menu")
	return cmd
}

// apply copies explicitly set flags over the loaded config.
func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("device") {
		cfg.Camera.DeviceID = o.device
	}
	if changed("addr") {
		cfg.Transport.Addr = o.addr
	}
	if changed("transport") {
		cfg.Transport.Kind = o.transport
	}
	if changed("format") {
		cfg.Payload.Format = o.format
	}
	if changed("gesture") {
		cfg.Payload.Gesture = o.gesture
	}
	if changed("no-window") {
		cfg.Preview.Window = !o.noWindow
	}
	if changed("record") {
		cfg.Record.Enabled = o.record
	}
	if changed("http") {
		cfg.HTTP.Addr = o.httpAddr
	}
	if changed("static") {
		cfg.HTTP.StaticDir = o.staticDir
	}
	if changed("tray") {
		cfg.Tray = o.tray
	}
}

// newSender opens the configured transport.
func newSender(cfg config.TransportConfig) (transport.Sender, error) {
	switch cfg.Kind {
	case config.TransportZMQ:
		return transport.NewZMQSender(cfg.ZMQEndpoint, cfg.Topic)
	case config.TransportUDP, "":
		return transport.NewUDPSender(cfg.Addr)
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Kind)
	}
}

func runPipeline(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	det, err := detector.NewMediaPipeDetector(cfg.Detector, logger.Named("detector"))
	if err != nil {
		return err
	}
	defer det.Close()

	sender, err := newSender(cfg.Transport)
	if err != nil {
		return err
	}
	defer sender.Close()
	if zs, ok := sender.(*transport.ZMQSender); ok {
		if ep, err := zs.Endpoint(); err == nil {
			logger.Info("publishing on zmq", zap.String("endpoint", ep), zap.String("topic", cfg.Transport.Topic))
		}
	}

	format, err := payload.FormatByName(cfg.Payload.Format, cfg.Payload.Gesture)
	if err != nil {
		return err
	}

	appCfg := app.Config{
		Camera:          capture.NewCameraWithConfig(cfg.Camera.Config),
		Detector:        det,
		Sender:          sender,
		Format:          format,
		Gesture:         cfg.Payload.Gesture,
		MaxReadFailures: cfg.Camera.MaxReadFailures,
		Metrics:         metrics.New(),
		Logger:          logger.Named("pipeline"),
	}

	var st *store.Store
	if cfg.Record.Enabled || cfg.HTTP.Addr != "" {
		st, err = store.New(cfg.Record.Path)
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		defer st.Close()
	}

	if cfg.Record.Enabled {
		rec, err := store.NewRecorder(st, cfg.Camera.Width, cfg.Camera.Height, cfg.Payload.Gesture)
		if err != nil {
			return err
		}
		defer rec.Close()
		appCfg.Recorder = rec
		logger.Info("recording session", zap.String("session", rec.SessionID()), zap.String("path", st.Path()))
	}

	if cfg.Preview.Window {
		win := preview.NewWindow(cfg.Preview.Title)
		defer win.Close()
		appCfg.Display = win
	}

	if cfg.HTTP.Addr != "" {
		appCfg.Hub = preview.NewHub()
		srv := server.New(server.Config{
			StaticDir: cfg.HTTP.StaticDir,
			Store:     st,
			Hub:       appCfg.Hub,
			Metrics:   appCfg.Metrics,
			Logger:    logger.Named("http"),
		})
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.HTTP.Addr); err != nil {
				logger.Error("http server failed", zap.Error(err))
			}
		}()
	}

	var tr *tray.Tray
	if cfg.Tray {
		tr = tray.New()
		appCfg.OnSignal = tr.SetLastSignal
	}

	a := app.New(appCfg)
	logger.Info("sending hand landmarks",
		zap.String("transport", cfg.Transport.Kind),
		zap.String("addr", cfg.Transport.Addr),
		zap.Int("device", cfg.Camera.DeviceID),
	)

	if tr == nil {
		return a.Run(ctx)
	}

	tr.OnToggle(func(enabled bool) {
		a.SetEnabled(enabled)
		logger.Info("sending toggled", zap.Bool("enabled", enabled))
	})
	tr.OnQuit(cancel)

	// The tray owns the calling goroutine until it quits.
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx)
		tr.Quit()
	}()
	tr.Run()
	cancel()
	return <-errCh
}
