package orderbook

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/skatteetaten/orderbook/pkg/config"
	"github.com/skatteetaten/orderbook/pkg/log"
	"github.com/spf13/cobra"
)

func init() {
	Replay.Flags().StringP("file", "f", "", "Path to the order feed")
	Replay.Flags().StringP("format", "", "", "Feed format [csv, jsonl], guessed from the file extension when empty")
	Replay.Flags().IntP("depth", "d", config.DefaultDepth, "Number of price levels per side in the report")
	Replay.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")
	Replay.Flags().StringP("report-format", "", config.DefaultReportFormat, "Report format [text, json, yaml]")
	Replay.Flags().StringP("publish-url", "", "", "Post the JSON report to this collector")
	Replay.Flags().BoolP("lenient", "", false, "Skip events the book rejects instead of failing")
	Replay.Flags().DurationP("settle-timeout", "", config.DefaultSettleTimeout, "How long to wait for sorted views after the replay")
	Replay.Flags().StringP("config", "c", "", "Path to a YAML or JSON configuration file")
	Replay.Flags().BoolP("verbose", "v", false, "Verbose logging")
}

// Replay command
var Replay = &cobra.Command{
	Use:   "replay",
	Short: "replay --file <feed> [--depth N] [--output <file>]",
	Long:  "Replay a recorded order feed into a book and report the resulting depth",
	Run: func(cmd *cobra.Command, args []string) {
		c, err := config.NewCmdConfigReader(cmd).ReadConfig()
		if err != nil {
			logrus.Fatalf("Could not read configuration: %s", err)
		}
		log.Setup(os.Stderr, c.Verbose)

		if err := c.ValidateForReplay(); err != nil {
			logrus.Errorf("Invalid configuration: %s", err)
			_ = cmd.Help()
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if _, err := RunReplay(ctx, RunConfiguration{Config: c, Out: cmd.OutOrStdout()}); err != nil {
			logrus.Fatalf("Failed to replay feed: "+log.ErrorFormat()+", Terminating", err)
		}
	},
}
