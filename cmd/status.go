package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	config "github.com/socialdb/migrator/configs"
	"github.com/socialdb/migrator/internal/migrator"
	"github.com/socialdb/migrator/internal/rpc"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "show both accounts",
	Long:  "print status, node count and account count of the source and destination accounts without changing anything",
	Run:   RunStatus,
}

func RunStatus(cmd *cobra.Command, args []string) {
	client, err := rpc.Initialize()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize RPC")
	}
	defer client.Close()
	log.Debug().Str("rpc", client.GetURL()).Msg("Inspecting accounts")

	report, err := migrator.Inspect(context.Background(), migrator.NewRPCRemote(client, nil), config.Cfg.Migration.SourceAccount, config.Cfg.Migration.DestinationAccount)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to inspect accounts")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROLE\tACCOUNT\tSTATUS\tNODES\tACCOUNTS")
	fmt.Fprintf(w, "source\t%s\t%s\t%d\t%d\n", report.Source.Account, report.Source.Status, report.Source.NodeCount, report.Source.AccountCount)
	fmt.Fprintf(w, "destination\t%s\t%s\t%d\t%d\n", report.Destination.Account, report.Destination.Status, report.Destination.NodeCount, report.Destination.AccountCount)
	w.Flush()

	for _, account := range []migrator.AccountReport{report.Source, report.Destination} {
		if !account.KnownStatus() {
			fmt.Printf("Warning: %s reports unknown status %q\n", account.Account, account.Status)
		}
	}

	if report.Ready() {
		fmt.Println("Ready to migrate")
	} else {
		fmt.Println("Not ready: source must be ReadOnly and destination Genesis")
	}
}
