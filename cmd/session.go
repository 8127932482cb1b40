package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/terraledger/mrv-cli/internal/model"
	"github.com/terraledger/mrv-cli/internal/session"
	"github.com/terraledger/mrv-cli/internal/store"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage data-injection sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a session for a project against a registry protocol",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		projectID, _ := cmd.Flags().GetString("project")
		registryID, _ := cmd.Flags().GetString("registry")
		protocolID, _ := cmd.Flags().GetString("protocol")

		tr, err := session.New(catalog, projectID, registryID, protocolID)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SaveSession(ctx, tr.Session()); err != nil {
			return err
		}
		fmt.Println(tr.Session().SessionID)
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session's fields and progress",
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

		fmt.Printf("session   %s\n", sess.SessionID)
		fmt.Printf("project   %s\n", sess.ProjectID)
		fmt.Printf("protocol  %s/%s\n", sess.RegistryID, sess.ProtocolID)
		fmt.Printf("status    %s\n", sess.Status)
		fmt.Printf("progress  %d%%\n", sess.OverallProgress)
		for id, fs := range sess.FieldValues {
			marker := " "
			if fs.Status == model.FieldFilled {
				marker = "*"
			}
			fmt.Printf("  %s %-24s %-10s %s\n", marker, id, fs.Source, fs.Value.AsText())
			for _, ve := range fs.ValidationErrors {
				fmt.Printf("      ! %s\n", ve)
			}
		}
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		projectID, _ := cmd.Flags().GetString("project")
		status, _ := cmd.Flags().GetString("status")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sessions, err := st.ListSessions(ctx, store.SessionFilter{
			ProjectID: projectID,
			Status:    model.SessionStatus(status),
		})
		if err != nil {
			return err
		}
		for _, s := range sessions {
			fmt.Printf("%s  %-12s %-24s %3d%%  %s\n",
				s.SessionID, s.Status, s.RegistryID+"/"+s.ProtocolID, s.OverallProgress, s.ProjectID)
		}
		return nil
	},
}

func init() {
	sessionCreateCmd.Flags().String("project", "", "project id")
	sessionCreateCmd.Flags().String("registry", "", "registry id (e.g. verra)")
	sessionCreateCmd.Flags().String("protocol", "", "protocol id (e.g. vm0042)")
	_ = sessionCreateCmd.MarkFlagRequired("project")
	_ = sessionCreateCmd.MarkFlagRequired("registry")
	_ = sessionCreateCmd.MarkFlagRequired("protocol")

	sessionListCmd.Flags().String("project", "", "filter by project id")
	sessionListCmd.Flags().String("status", "", "filter by status (draft, in_progress, submitted)")

	sessionCmd.AddCommand(sessionCreateCmd, sessionShowCmd, sessionListCmd)
	rootCmd.AddCommand(sessionCmd)
}
