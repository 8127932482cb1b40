package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/terraledger/mrv-cli/internal/ingest"
	"github.com/terraledger/mrv-cli/internal/model"
	"github.com/terraledger/mrv-cli/internal/session"
)

var fieldCmd = &cobra.Command{
	Use:   "field",
	Short: "Edit session field values",
}

var fieldSetCmd = &cobra.Command{
	Use:   "set <session-id> <field-id> <value>",
	Short: "Set a field value",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		source, _ := cmd.Flags().GetString("source")

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

		ref, ok := tr.Field(args[1])
		if !ok {
			return eris.Errorf("unknown field %q", args[1])
		}
		value, err := model.ParseValue(ref.Field.Type, args[2])
		if err != nil {
			return err
		}

		fs, err := tr.UpdateField(args[1], value, model.Source(source))
		if err != nil {
			return err
		}
		if err := st.SaveSession(ctx, sess); err != nil {
			return err
		}

		fmt.Printf("%s = %s (%d%% overall)\n", args[1], fs.Value.AsText(), sess.OverallProgress)
		for _, ve := range fs.ValidationErrors {
			fmt.Printf("  ! %s\n", ve)
		}
		return nil
	},
}

var fieldClearCmd = &cobra.Command{
	Use:   "clear <session-id> <field-id>",
	Short: "Reset a field to empty",
	Args:  cobra.ExactArgs(2),
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
		if _, err := tr.ClearField(args[1], model.SourceManual); err != nil {
			return err
		}
		if err := st.SaveSession(ctx, sess); err != nil {
			return err
		}
		fmt.Printf("%s cleared (%d%% overall)\n", args[1], sess.OverallProgress)
		return nil
	},
}

var fieldImportCmd = &cobra.Command{
	Use:   "import <session-id>",
	Short: "Import field values from an Excel workbook",
	Long:  "Reads field_id/value rows from the first sheet of an XLSX workbook and applies them to the session with source=excel.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		path, _ := cmd.Flags().GetString("file")

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

		rows, err := ingest.ReadWorkbook(path)
		if err != nil {
			return err
		}
		rep, err := ingest.Apply(tr, rows)
		if err != nil {
			return err
		}
		if err := st.SaveSession(ctx, sess); err != nil {
			return err
		}

		fmt.Printf("applied %d field(s), %d skipped (%d%% overall)\n",
			rep.Applied, len(rep.Skipped), sess.OverallProgress)
		for _, sk := range rep.Skipped {
			fmt.Printf("  skipped %s\n", sk)
		}
		return nil
	},
}

func init() {
	fieldSetCmd.Flags().String("source", "manual", "value provenance (api, excel, manual)")
	fieldImportCmd.Flags().String("file", "", "path to XLSX workbook")
	_ = fieldImportCmd.MarkFlagRequired("file")

	fieldCmd.AddCommand(fieldSetCmd, fieldClearCmd, fieldImportCmd)
	rootCmd.AddCommand(fieldCmd)
}
