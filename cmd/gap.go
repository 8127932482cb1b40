package main

import (
	"fmt"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/terraledger/mrv-cli/internal/gap"
	"github.com/terraledger/mrv-cli/internal/model"
	"github.com/terraledger/mrv-cli/internal/store"
)

var gapCmd = &cobra.Command{
	Use:   "gap [session-id]",
	Short: "Run gap analysis for one session, or every open session with --all",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) != 1 {
			return eris.New("pass a session id or --all")
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		analyzer := gap.New(catalog, cfg.Gap.ReadinessThreshold)

		if !all {
			sess, err := st.GetSession(ctx, args[0])
			if err != nil {
				return err
			}
			printGap(sess, analyzer.Analyze(sess.RegistryID, sess.ProtocolID, sess))
			return nil
		}

		sessions, err := st.ListSessions(ctx, store.SessionFilter{Limit: 1000})
		if err != nil {
			return err
		}

		type verdict struct {
			sess model.Session
			ga   *model.GapAnalysis
		}
		var (
			mu       sync.Mutex
			verdicts []verdict
		)
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(8)
		for _, sess := range sessions {
			sess := sess
			g.Go(func() error {
				ga := analyzer.Analyze(sess.RegistryID, sess.ProtocolID, &sess)
				mu.Lock()
				verdicts = append(verdicts, verdict{sess: sess, ga: ga})
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		sort.Slice(verdicts, func(i, j int) bool {
			return verdicts[i].ga.CompletenessScore > verdicts[j].ga.CompletenessScore
		})
		for _, v := range verdicts {
			gate := "blocked"
			if v.ga.CanProceed {
				gate = "ready"
			}
			fmt.Printf("%s  %3d%%  %-7s %s/%s\n",
				v.sess.SessionID, v.ga.CompletenessScore, gate, v.sess.RegistryID, v.sess.ProtocolID)
		}
		return nil
	},
}

func printGap(sess *model.Session, ga *model.GapAnalysis) {
	fmt.Printf("session       %s\n", sess.SessionID)
	fmt.Printf("completeness  %d%%\n", ga.CompletenessScore)
	fmt.Printf("can proceed   %t\n", ga.CanProceed)
	if len(ga.MissingRequiredFields) > 0 {
		fmt.Println("missing:")
		for _, f := range ga.MissingRequiredFields {
			fmt.Printf("  - %s\n", f)
		}
	}
	if len(ga.Recommendations) > 0 {
		fmt.Println("recommendations:")
		for _, r := range ga.Recommendations {
			fmt.Printf("  - %s\n", r)
		}
	}
}

func init() {
	gapCmd.Flags().Bool("all", false, "analyze every stored session")
	rootCmd.AddCommand(gapCmd)
}
