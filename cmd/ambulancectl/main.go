// Command ambulancectl trains the allocation model offline and converts
// between coordinates and encoded polylines.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SevaDrive/service-ambulance/internal/domain/allocation"
	"github.com/SevaDrive/service-ambulance/internal/domain/ambulance"
	"github.com/SevaDrive/service-ambulance/internal/polyline"
	"github.com/SevaDrive/service-ambulance/internal/repository"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ambulancectl",
		Short:         "Ambulance allocation service tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRetrainCmd(), newPolylineCmd())
	return root
}

func newRetrainCmd() *cobra.Command {
	var (
		datasetPath string
		outPath     string
		epochs      int
	)

	cmd := &cobra.Command{
		Use:   "retrain",
		Short: "Train the allocation model from the dataset",
		Long:  `Train the logistic-regression allocation model on the CSV dataset and write it as JSON.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := repository.LoadDataset(datasetPath)
			if err != nil {
				return err
			}

			opts := allocation.DefaultTrainOptions()
			if epochs > 0 {
				opts.Epochs = epochs
			}
			m, err := allocation.Train(records, opts)
			if err != nil {
				return err
			}
			if err := m.Save(outPath); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "trained on %d rows, accuracy %.2f%%, written to %s\n",
				m.Samples, m.Accuracy*100, outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&datasetPath, "dataset", "d", "final_dataset.csv", "Dataset CSV path")
	cmd.Flags().StringVarP(&outPath, "out", "o", "model.json", "Model output path")
	cmd.Flags().IntVar(&epochs, "epochs", 0, "Gradient descent epochs (0 uses the default)")
	return cmd
}

func newPolylineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "polyline",
		Short: "Encode or decode Google encoded polylines",
	}

	encode := &cobra.Command{
		Use:     "encode <lat,lng>...",
		Short:   "Encode points into a polyline",
		Example: "  ambulancectl polyline encode 38.5,-120.2 40.7,-120.95 43.252,-126.453",
		Args:    cobra.MinimumNArgs(1),
		// Southern and western points start with '-' and must not parse as flags.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 && args[0] == "--" {
				args = args[1:]
			}
			if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
				return cmd.Help()
			}

			path := make(polyline.Path, len(args))
			for i, arg := range args {
				p, err := ambulance.ParseCoordinates(arg)
				if err != nil {
					return fmt.Errorf("argument %d: %w", i+1, err)
				}
				path[i] = p
			}

			encoded, err := polyline.Encode(path)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		},
	}

	decode := &cobra.Command{
		Use:   "decode <encoded>",
		Short: "Decode a polyline into one lat,lng pair per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := polyline.Decode(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			for _, p := range path {
				fmt.Fprintf(cmd.OutOrStdout(), "%.5f,%.5f\n", p.Lat, p.Lng)
			}
			return nil
		},
	}

	cmd.AddCommand(encode, decode)
	return cmd
}
