package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/handcast/internal/app"
	"github.com/ayusman/handcast/internal/payload"
	"github.com/ayusman/handcast/internal/store"
)

func newReplayCmd(e *env) *cobra.Command {
	var (
		sessionID string
		addr      string
		format    string
		speed     float64
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-send a recorded session with its original timing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := e.cfg
			if cmd.Flags().Changed("addr") {
				cfg.Transport.Addr = addr
			}
			if cmd.Flags().Changed("format") {
				cfg.Payload.Format = format
			}

			st, err := store.New(cfg.Record.Path)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			defer st.Close()

			sess, err := pickSession(st, sessionID)
			if err != nil {
				return err
			}

			frames, err := st.Frames().ListBySession(sess.ID)
			if err != nil {
				return err
			}
			if len(frames) == 0 {
				return fmt.Errorf("session %s has no frames", sess.ID)
			}

			f, err := payload.FormatByName(cfg.Payload.Format, sess.Gesture)
			if err != nil {
				return err
			}

			sender, err := newSender(cfg.Transport)
			if err != nil {
				return err
			}
			defer sender.Close()

			e.logger.Info("replaying session",
				zap.String("session", sess.ID),
				zap.Int("frames", len(frames)),
				zap.Float64("speed", speed),
			)

			bar := progressbar.NewOptions(len(frames),
				progressbar.OptionSetDescription("Replaying"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
			)
			sent, err := app.Replay(cmd.Context(), frames, sender, f, speed, func() { bar.Add(1) })
			bar.Finish()
			fmt.Fprintln(os.Stderr)

			e.logger.Info("replay finished", zap.Int("sent", sent))
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&sessionID, "session", "", "session ID to replay (default: newest)")
	flags.StringVar(&addr, "addr", "", "UDP destination host:port (default from config)")
	flags.StringVar(&format, "format", "", "payload format: list or framed (default from config)")
	flags.Float64Var(&speed, "speed", 1, "playback speed factor")
	return cmd
}

// pickSession returns the session with id, or the newest one when id is empty.
func pickSession(st *store.Store, id string) (*store.Session, error) {
	if id != "" {
		sess, err := st.Sessions().GetByID(id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("session %s not found", id)
		}
		return sess, err
	}

	sessions, err := st.Sessions().List()
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, errors.New("no recorded sessions")
	}
	return sessions[0], nil
}
