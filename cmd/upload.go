package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/terraledger/mrv-cli/internal/model"
	"github.com/terraledger/mrv-cli/internal/session"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <session-id> <field-id> <path>",
	Short: "Attach an evidence file to a file field",
	Args:  cobra.ExactArgs(3),
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

		src, err := os.Open(args[2])
		if err != nil {
			return eris.Wrap(err, "open evidence file")
		}
		defer src.Close()

		fileID := uuid.New().String()
		if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
			return eris.Wrap(err, "create upload dir")
		}
		dst := filepath.Join(cfg.Upload.Dir, fileID+filepath.Ext(args[2]))
		out, err := os.Create(dst)
		if err != nil {
			return eris.Wrap(err, "create stored file")
		}
		size, err := io.Copy(out, src)
		out.Close()
		if err != nil {
			return eris.Wrap(err, "copy evidence file")
		}

		fs, err := tr.UploadFile(args[1], model.UploadedFile{
			FileID:     fileID,
			FileName:   filepath.Base(args[2]),
			FileType:   strings.TrimPrefix(filepath.Ext(args[2]), "."),
			FileSize:   size,
			StorageURL: dst,
		})
		if err != nil {
			return err
		}
		if err := st.SaveSession(ctx, sess); err != nil {
			return err
		}

		fmt.Printf("%s <- %s (%d bytes)\n", args[1], filepath.Base(args[2]), size)
		for _, ve := range fs.ValidationErrors {
			fmt.Printf("  ! %s\n", ve)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
