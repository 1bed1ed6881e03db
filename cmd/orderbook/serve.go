package orderbook

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/skatteetaten/orderbook/pkg/config"
	"github.com/skatteetaten/orderbook/pkg/log"
	"github.com/spf13/cobra"
)

func init() {
	Serve.Flags().StringP("listen", "l", config.DefaultListen, "Address to listen on")
	Serve.Flags().StringP("feed", "f", "", "Order feed to load before serving")
	Serve.Flags().StringP("format", "", "", "Feed format [csv, jsonl]")
	Serve.Flags().BoolP("lenient", "", false, "Skip feed events the book rejects instead of failing")
	Serve.Flags().DurationP("settle-timeout", "", config.DefaultSettleTimeout, "How long to wait for sorted views after loading the feed")
	Serve.Flags().StringP("config", "c", "", "Path to a YAML or JSON configuration file")
	Serve.Flags().BoolP("verbose", "v", false, "Verbose logging")
}

// Serve command
var Serve = &cobra.Command{
	Use:   "serve",
	Short: "serve [--listen :8080] [--feed <feed>]",
	Long:  "Serve an order book over HTTP, with a websocket stream of sorted views",
	Run: func(cmd *cobra.Command, args []string) {
		c, err := config.NewCmdConfigReader(cmd).ReadConfig()
		if err != nil {
			logrus.Fatalf("Could not read configuration: %s", err)
		}
		log.Setup(os.Stderr, c.Verbose)

		if err := c.Validate(); err != nil {
			logrus.Fatalf("Invalid configuration: %s", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := RunServe(ctx, RunConfiguration{Config: c, Out: cmd.OutOrStdout()}); err != nil {
			logrus.Fatalf("Server failed: "+log.ErrorFormat(), err)
		}
	},
}
