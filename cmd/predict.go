package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"studentperf/inference"
	"studentperf/ml"
	"studentperf/student"
)

func newPredictCmd() *cobra.Command {
	var (
		modelPath string
		inputPath string
		report    string
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict once from a JSON feature object (stdin by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := student.ParseReportMode(report)
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			if inputPath != "" && inputPath != "-" {
				f, err := os.Open(inputPath)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			result, err := predictOnce(in, modelPath, mode)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model", "m", "logistic_model.json", "path to the model artifact")
	cmd.Flags().StringVarP(&inputPath, "file", "f", "", "JSON feature file, - for stdin")
	cmd.Flags().StringVar(&report, "report", "all", "validation report mode: all or first")
	return cmd
}

func predictOnce(in io.Reader, modelPath string, mode student.ReportMode) (inference.Result, error) {
	dec := json.NewDecoder(in)
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return inference.Result{}, fmt.Errorf("decode features: %w", err)
	}

	features, err := student.NewValidator(mode).Validate(raw)
	if err != nil {
		return inference.Result{}, err
	}

	handle := ml.Open(modelPath, student.NumFeatures, nil)
	return inference.NewPredictor(handle, nil).Predict(features)
}

func newFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the input fields and their allowed ranges",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FIELD\tRANGE\tDESCRIPTION")
			for _, f := range student.Fields {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, f.Bound(), f.Description)
			}
			return tw.Flush()
		},
	}
}
