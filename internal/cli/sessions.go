package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/handcast/internal/store"
)

func newSessionsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect recorded sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List recorded sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.New(e.cfg.Record.Path)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			defer st.Close()

			sessions, err := st.Sessions().List()
			if err != nil {
				return err
			}
			printSessions(cmd.OutOrStdout(), sessions)
			return nil
		},
	})
	return cmd
}

func printSessions(out io.Writer, sessions []*store.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No recorded sessions.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tFRAMES\tSIZE\tGESTURE")
	fmt.Fprintln(w, "--\t-------\t--------\t------\t----\t-------")

	for _, s := range sessions {
		duration := "running"
		if s.EndedAt != nil {
			duration = s.EndedAt.Sub(s.StartedAt).Round(100 * time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%dx%d\t%t\n",
			s.ID, s.StartedAt.Local().Format("2006-01-02 15:04"), duration,
			s.Frames, s.FrameWidth, s.FrameHeight, s.Gesture)
	}
	w.Flush()
}
