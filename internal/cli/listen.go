package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/handcast/internal/payload"
	"github.com/ayusman/handcast/internal/transport"
)

func newListenCmd(e *env) *cobra.Command {
	var (
		addr    string
		format  string
		gesture bool
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Receive payloads on a UDP port and print the newest one",
		Long: "listen binds the UDP port a game engine would use, drops stale " +
			"datagrams and logs the newest payload. Use it to check what run sends.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = e.cfg.Transport.Addr
			}
			if !cmd.Flags().Changed("format") {
				format = e.cfg.Payload.Format
			}
			if !cmd.Flags().Changed("gesture") {
				gesture = e.cfg.Payload.Gesture
			}

			f, err := payload.FormatByName(format, gesture)
			if err != nil {
				return err
			}

			recv, err := transport.Listen(addr)
			if err != nil {
				return err
			}
			defer recv.Close()

			e.logger.Info("listening", zap.Stringer("addr", recv.Addr()), zap.String("format", f.Name()))
			return listen(cmd.Context(), recv, f, e.logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", transport.DefaultAddr, "UDP address to bind")
	flags.StringVar(&format, "format", payload.FormatList, "payload format: list or framed")
	flags.BoolVar(&gesture, "gesture", false, "expect a trailing gesture signal")
	return cmd
}

// listen logs every payload until ctx ends. Undecodable datagrams are
// logged and skipped.
func listen(ctx context.Context, recv *transport.Receiver, f payload.Format, logger *zap.Logger) error {
	for {
		data, dropped, err := recv.Latest(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		p, err := f.Unmarshal(data)
		if err != nil {
			logger.Warn("undecodable payload", zap.Error(err), zap.Int("bytes", len(data)))
			continue
		}

		logger.Info("payload",
			zap.Int("landmarks", p.Landmarks()),
			zap.String("signal", signalLabel(p)),
			zap.Int("dropped", dropped),
			zap.Ints("values", p.Values()),
		)
	}
}

// signalLabel is how signals appear in listen output.
func signalLabel(p payload.Payload) string {
	if p.Signal == nil {
		return "-"
	}
	return fmt.Sprintf("%d (%s)", int(*p.Signal), p.Signal)
}
