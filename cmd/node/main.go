package main

import (
	"fmt"
	"os"

	"github.com/abcfe/abcfe-wallet/app"
	"github.com/abcfe/abcfe-wallet/common/logger"
	"github.com/spf13/cobra"
)

// Version info (Injected from Makefile)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var configFile string

func main() {
	var rootCmd = &cobra.Command{
		Use:     "abcfe-devnet",
		Short:   "ABCFe devnet ledger node",
		Long:    `Single-process coin-object ledger serving the wallet over REST and WebSocket.`,
		Version: Version + " (" + BuildTime + ")",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Run the ledger node until interrupted",
		Run: func(cmd *cobra.Command, args []string) {
			runNode()
		},
	})
	rootCmd.AddCommand(inspectCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Failed to execute command:", err)
		os.Exit(1)
	}
}

func runNode() {
	application, err := app.NewNode(configFile)
	if err != nil {
		fmt.Println("Failed to initialize application:", err)
		os.Exit(1)
	}

	application.SigHandler()
	logger.Info("Node start.")

	if err := application.Start(); err != nil {
		logger.Error("Failed to start services:", err)
		application.Terminate()
		os.Exit(1)
	}

	application.Wait()
	logger.Info("Node terminated.")
}
