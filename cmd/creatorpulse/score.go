package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/creatorpulse/creatorpulse/internal/application"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/api"
	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

var scoreCmd = &cobra.Command{
	Use:   "score [file.json]",
	Short: "Score trends offline from a JSON content payload",
	Long: `Reads {"content": [...]} from a file, or stdin when no file or "-" is given,
and prints the ranked trends as JSON. Needs no database or credentials.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open content file: %w", err)
			}
			defer f.Close()
			in = f
		}
		return scoreContent(cmd.Context(), in, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func scoreContent(ctx context.Context, in io.Reader, out io.Writer) error {
	items, err := api.DecodeAnalyzeRequest(in)
	if err != nil {
		return err
	}

	uc := application.NewAnalyzeContentUseCase(logging.Discard())
	trends, err := uc.Execute(ctx, items)
	if err != nil {
		return err
	}
	return api.WriteTrends(out, trends)
}
