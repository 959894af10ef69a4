package main

import (
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meterforecast/backend/internal/client"
)

var (
	serverURL     string
	clientTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "meterctl",
	Short: "Command line client for the meter forecast API",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	defaultServer := os.Getenv("METERCTL_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "forecast server base URL")
	rootCmd.PersistentFlags().DurationVar(&clientTimeout, "timeout", 2*time.Minute, "request timeout")

	rootCmd.AddCommand(businessesCmd, metersCmd, predictCmd)
}

func newClient() *client.Client {
	return client.New(serverURL, clientTimeout)
}
