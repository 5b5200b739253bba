package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/provider-verify/internal/model"
)

var (
	verifyAddress    string
	verifyPhone      string
	verifyCandidates string
)

var verifyCmd = &cobra.Command{
	Use:   "verify <provider-name>",
	Short: "Verify a provider against a candidate set",
	Long:  "Runs consensus resolution and confidence scoring over candidates read from a JSON file (or stdin with -), records a drift snapshot, and prints the combined result.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEngine(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		candidates, err := readCandidates(verifyCandidates)
		if err != nil {
			return err
		}

		listed := model.Listed{
			Name:          args[0],
			ListedAddress: verifyAddress,
			ListedPhone:   verifyPhone,
		}
		result, err := env.Service.Verify(ctx, listed, candidates)
		if err != nil {
			return err
		}

		return printJSON(result)
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyAddress, "address", "", "listed address")
	verifyCmd.Flags().StringVar(&verifyPhone, "phone", "", "listed phone")
	verifyCmd.Flags().StringVarP(&verifyCandidates, "candidates", "c", "", "JSON file with candidate records (- for stdin)")
	rootCmd.AddCommand(verifyCmd)
}

func readCandidates(path string) ([]model.Candidate, error) {
	if path == "" {
		return nil, nil
	}

	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read candidates %s", path)
	}

	var candidates []model.Candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, eris.Wrapf(err, "parse candidates %s", path)
	}
	return candidates, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode result")
	}
	fmt.Println(string(out))
	return nil
}
