package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/welli-app/retention-go/internal/logging"
	"github.com/welli-app/retention-go/pkg/catalog"
	"github.com/welli-app/retention-go/pkg/core"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Embed and load the content catalog into the vector store",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "data/content_catalog.json", "content catalog JSON file")
}

// catalogFile is the on-disk content catalog format.
type catalogFile struct {
	Content []*catalog.Item `json:"content"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := core.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("read catalog file: %w", err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse catalog file: %w", err)
	}
	if len(file.Content) == 0 {
		return fmt.Errorf("catalog file %s has no content items", seedFile)
	}

	engine, err := core.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}
	defer engine.Close()

	count, err := engine.SeedCatalog(cmd.Context(), file.Content)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	logging.Info().Int("items", count).Str("file", seedFile).Msg("catalog seeded")
	return nil
}
