package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/terraledger/mrv-cli/internal/gap"
	"github.com/terraledger/mrv-cli/internal/session"
)

var submitCmd = &cobra.Command{
	Use:   "submit <session-id>",
	Short: "Submit a session for registry computation",
	Long:  "Runs gap analysis and submits the session if it passes the readiness gate. A blocked session fails with the analysis recommendations.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sess, err := st.GetSession(ctx, args[0])
		if err != nil {
			return err
		}
		tr, err := session.Resume(catalog, sess)
		if err != nil {
			return err
		}

		analyzer := gap.New(catalog, cfg.Gap.ReadinessThreshold)
		ga := analyzer.Analyze(sess.RegistryID, sess.ProtocolID, sess)
		if err := tr.Submit(ga); err != nil {
			return err
		}
		if err := st.SaveSession(ctx, sess); err != nil {
			return err
		}

		fmt.Printf("session %s submitted (completeness %d%%)\n", sess.SessionID, ga.CompletenessScore)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)
}
