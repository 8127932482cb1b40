package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/terraledger/mrv-cli/internal/evaluator"
)

var calcCmd = &cobra.Command{
	Use:   "calc <session-id>",
	Short: "Run the Net CORC calculation for a session",
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

		result, err := evaluator.Calculate(sess)
		if err != nil {
			return err
		}
		if err := st.SaveResult(ctx, sess.SessionID, result); err != nil {
			return err
		}

		fmt.Printf("%s\n\n", result.Formula)
		fmt.Printf("gross removal      %12.2f tCO2e\n", result.GrossRemoval)
		fmt.Printf("project emissions  %12.2f tCO2e\n", result.TotalEmissions)
		fmt.Printf("leakage            %12.2f tCO2e\n", result.Leakage)
		fmt.Printf("buffer             %12.2f tCO2e\n", result.Buffer)
		fmt.Printf("net corc           %12.2f tCO2e\n", result.NetCORC)
		if !result.IsValid {
			fmt.Println()
			for _, ve := range result.ValidationErrors {
				fmt.Printf("! %s\n", ve)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(calcCmd)
}
