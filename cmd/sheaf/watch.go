package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/sheaf/pkg/storage"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes made to the store by other processes",
	Long:  `Watch reloads the notes whenever another process rewrites them and prints each change. Stop with Ctrl+C.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		out := cmd.OutOrStdout()
		err = st.Watch(ctx, func(e storage.Event) {
			fmt.Fprintf(out, "%s  %s  %d notes\n",
				time.Unix(e.Timestamp, 0).Format(time.TimeOnly), e, st.Repo.Len())
		})
		if err != nil {
			return fmt.Errorf("failed to watch store: %w", err)
		}

		fmt.Fprintf(out, "watching %q (%d notes)\n", st.Repo.Key(), st.Repo.Len())
		<-ctx.Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
