package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meterforecast/backend/pkg/utils"
)

var (
	businessID string
	meterID    string
	csvURL     string
)

var businessesCmd = &cobra.Command{
	Use:   "businesses",
	Short: "List business ids",
	Args:  cobra.NoArgs,
	RunE:  runBusinesses,
}

var metersCmd = &cobra.Command{
	Use:   "meters",
	Short: "List the meter ids of a business",
	Args:  cobra.NoArgs,
	RunE:  runMeters,
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Forecast a meter's hourly consumption from a weather CSV",
	Args:  cobra.NoArgs,
	RunE:  runPredict,
}

func init() {
	metersCmd.Flags().StringVar(&businessID, "business", "", "business id")
	metersCmd.MarkFlagRequired("business")

	predictCmd.Flags().StringVar(&meterID, "meter", "", "meter id")
	predictCmd.Flags().StringVar(&csvURL, "csv-url", "", "URL of the hourly weather CSV")
	predictCmd.MarkFlagRequired("meter")
	predictCmd.MarkFlagRequired("csv-url")
}

func runBusinesses(cmd *cobra.Command, args []string) error {
	ids, err := newClient().BusinessIDs(cmd.Context())
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func runMeters(cmd *cobra.Command, args []string) error {
	ids, err := newClient().MeterIDs(cmd.Context(), businessID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	f, err := newClient().Predict(cmd.Context(), meterID, csvURL)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "HOUR (UTC)\tCONSUMPTION\n")
	for i, ts := range f.Timestamps {
		fmt.Fprintf(w, "%s\t%v\n", utils.FormatHour(ts), utils.RoundTo(f.Consumption[i], 3))
	}
	return w.Flush()
}
