package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/welli-app/retention-go/internal/logging"
	"github.com/welli-app/retention-go/pkg/churn"
	"github.com/welli-app/retention-go/pkg/core"
	"github.com/welli-app/retention-go/pkg/features"
	"github.com/welli-app/retention-go/pkg/segment"
)

var (
	trainDataFile string
	trainK        int
	trainEpochs   int
	trainSeed     int64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train model artifacts from labeled behavioral data",
}

var trainClusteringCmd = &cobra.Command{
	Use:   "clustering",
	Short: "Fit the user clustering model",
	RunE:  runTrainClustering,
}

var trainChurnCmd = &cobra.Command{
	Use:   "churn",
	Short: "Fit the churn prediction model",
	RunE:  runTrainChurn,
}

func init() {
	trainCmd.PersistentFlags().StringVar(&trainDataFile, "data", "", "training data JSON file (required)")
	_ = trainCmd.MarkPersistentFlagRequired("data")

	trainClusteringCmd.Flags().IntVar(&trainK, "k", 4, "number of clusters")
	trainClusteringCmd.Flags().Int64Var(&trainSeed, "seed", 0, "random seed (0 uses current time)")
	trainChurnCmd.Flags().IntVar(&trainEpochs, "epochs", 200, "gradient descent epochs")

	trainCmd.AddCommand(trainClusteringCmd)
	trainCmd.AddCommand(trainChurnCmd)
}

// clusteringTrainingFile is the on-disk format for clustering training data.
type clusteringTrainingFile struct {
	Samples  []features.UserBehavior        `json:"samples"`
	Clusters map[string]segment.ClusterMeta `json:"clusters"`
}

// churnTrainingFile is the on-disk format for churn training data.
type churnTrainingFile struct {
	Samples []churn.Features `json:"samples"`
	Labels  []float64        `json:"labels"`
}

func runTrainClustering(cmd *cobra.Command, args []string) error {
	cfg, err := core.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var file clusteringTrainingFile
	if err := readTrainingFile(trainDataFile, &file); err != nil {
		return err
	}
	if len(file.Samples) == 0 {
		return fmt.Errorf("training file %s has no samples", trainDataFile)
	}

	engine, err := core.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}
	defer engine.Close()

	model, err := engine.TrainClustering(cmd.Context(), file.Samples,
		segment.FitOptions{K: trainK, Seed: trainSeed}, file.Clusters)
	if err != nil {
		return fmt.Errorf("train clustering: %w", err)
	}

	logging.Info().
		Int("samples", len(file.Samples)).
		Int("clusters", model.KMeans.K()).
		Msg("clustering model trained")
	return nil
}

func runTrainChurn(cmd *cobra.Command, args []string) error {
	cfg, err := core.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var file churnTrainingFile
	if err := readTrainingFile(trainDataFile, &file); err != nil {
		return err
	}
	if len(file.Samples) == 0 {
		return fmt.Errorf("training file %s has no samples", trainDataFile)
	}
	if len(file.Samples) != len(file.Labels) {
		return fmt.Errorf("training file %s has %d samples but %d labels",
			trainDataFile, len(file.Samples), len(file.Labels))
	}

	engine, err := core.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}
	defer engine.Close()

	if _, err := engine.TrainChurn(cmd.Context(), file.Samples, file.Labels,
		churn.TrainOptions{Epochs: trainEpochs}); err != nil {
		return fmt.Errorf("train churn: %w", err)
	}

	logging.Info().Int("samples", len(file.Samples)).Msg("churn model trained")
	return nil
}

func readTrainingFile(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read training file: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse training file: %w", err)
	}
	return nil
}
