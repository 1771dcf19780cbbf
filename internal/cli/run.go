package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gptenrich/internal/dataset"
	"gptenrich/internal/enrich"
	"gptenrich/internal/recipe"
	"gptenrich/pkg/graceful"
)

var (
	inputPath  string
	outputPath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured recipe over a local CSV file",
	RunE:  runRecipe,
}

func init() {
	runCmd.Flags().StringVar(&inputPath, "input", "", "input CSV file (optional in output mode)")
	runCmd.Flags().StringVar(&outputPath, "output", "enriched.csv", "output CSV file")
	rootCmd.AddCommand(runCmd)
}

func runRecipe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return err
	}

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	gen, closeGen, err := NewGenerator(ctx, cfg)
	if err != nil {
		slog.Error("Failed to build generator", "error", err)
		return err
	}
	defer closeGen()

	runner, err := recipe.NewRunner(cfg.RecipeParams(), cfg.EngineConfig(), gen)
	if err != nil {
		slog.Error("Failed to build recipe", "error", err)
		return err
	}

	var in *enrich.Table
	if inputPath != "" {
		if in, err = readTable(inputPath); err != nil {
			slog.Error("Failed to read input", "path", inputPath, "error", err)
			return err
		}
	}

	start := time.Now()
	out, err := runner.Run(ctx, in)
	if err != nil {
		slog.Error("Run aborted", "error", err)
		return err
	}
	if err := writeOutput(outputPath, out); err != nil {
		slog.Error("Failed to write output", "path", outputPath, "error", err)
		return err
	}
	slog.Info("Run finished",
		"output", outputPath,
		"rows", out.Table.Len(),
		"succeeded", out.Succeeded,
		"failed", out.Failed,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func readTable(path string) (*enrich.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return dataset.ReadCSV(f)
}

// descriptionsPath maps out.csv to out.columns.json.
func descriptionsPath(output string) string {
	return strings.TrimSuffix(output, ".csv") + ".columns.json"
}

func writeOutput(path string, out *enrich.Output) error {
	if err := writeFile(path, func(f *os.File) error { return dataset.WriteCSV(f, out.Table) }); err != nil {
		return err
	}
	return writeFile(descriptionsPath(path), func(f *os.File) error {
		return dataset.WriteDescriptions(f, out.Descriptions)
	})
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
