package segment

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/welli-app/retention-go/pkg/features"
)

// ClusterMeta describes a behavioral segment for presentation.
type ClusterMeta struct {
	// Name is the human-readable segment name (e.g. "Consistent Moderates").
	Name string `json:"name"`

	// Description summarizes the segment's behavior pattern.
	Description string `json:"description"`
}

// Model is the persisted clustering artifact: the fitted centroids, the
// scaler they were fitted with, and presentation metadata per cluster.
//
// The artifact is stored as JSON so it can be produced by `welli train`
// and inspected by hand.
type Model struct {
	// KMeans holds the fitted centroids.
	KMeans *KMeans `json:"kmeans"`

	// Scaler standardizes behavior vectors before distance computation.
	Scaler *features.Scaler `json:"scaler"`

	// Clusters maps cluster id (as a decimal string) to its metadata.
	// String keys keep the JSON artifact friendly to hand editing.
	Clusters map[string]ClusterMeta `json:"clusters"`
}

// Assignment is the result of clustering one user.
type Assignment struct {
	// UserID identifies the user.
	UserID string `json:"user_id"`

	// ClusterID is the assigned cluster index.
	ClusterID int `json:"cluster_id"`

	// ClusterName is the human-readable segment name.
	ClusterName string `json:"cluster_name"`

	// ClusterDescription summarizes the segment.
	ClusterDescription string `json:"cluster_description"`

	// ConfidenceScore expresses how decisively the user belongs to the
	// assigned cluster relative to the others (0.0-1.0).
	ConfidenceScore float64 `json:"confidence_score"`
}

// LoadModel reads a clustering artifact from a JSON file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("segment: load model: %w", err)
	}

	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("segment: parse model: %w", err)
	}

	if model.KMeans == nil || model.KMeans.K() == 0 {
		return nil, errors.New("segment: model has no centroids")
	}

	return &model, nil
}

// Save writes the clustering artifact to a JSON file, creating parent
// directories as needed.
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("segment: save model: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("segment: save model: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("segment: save model: %w", err)
	}

	return nil
}

// Assign clusters a user into a behavioral segment.
//
// The behavior vector is standardized with the model's scaler, assigned to
// the nearest centroid, and scored with:
//
//	confidence = 1 - minDistance/maxDistance
//
// so a user equidistant from all centroids scores near 0 and a user far
// from every centroid but one scores near 1.
func (m *Model) Assign(b features.UserBehavior) (*Assignment, error) {
	if m.KMeans == nil || m.KMeans.K() == 0 {
		return nil, errors.New("segment: model not fitted")
	}

	x := m.Scaler.Transform(b.Vector())
	clusterID, distances := m.KMeans.Predict(x)

	minDist := distances[clusterID]
	maxDist := minDist
	for _, d := range distances {
		if d > maxDist {
			maxDist = d
		}
	}

	confidence := 1.0
	if maxDist > 0 {
		confidence = 1.0 - minDist/maxDist
	}

	meta, ok := m.Clusters[fmt.Sprintf("%d", clusterID)]
	if !ok {
		meta = ClusterMeta{
			Name:        fmt.Sprintf("Cluster %d", clusterID),
			Description: "Unknown cluster",
		}
	}

	return &Assignment{
		UserID:             b.UserID,
		ClusterID:          clusterID,
		ClusterName:        meta.Name,
		ClusterDescription: meta.Description,
		ConfidenceScore:    confidence,
	}, nil
}

// Train fits a complete clustering artifact from raw behavior vectors:
// the scaler is fitted first, the data standardized, then k-means run.
//
// Cluster metadata can be attached afterwards by filling in Clusters.
func Train(X [][]float64, opts FitOptions) (*Model, error) {
	scaler := features.FitScaler(X)
	kmeans, err := Fit(scaler.TransformAll(X), opts)
	if err != nil {
		return nil, err
	}

	return &Model{
		KMeans:   kmeans,
		Scaler:   scaler,
		Clusters: map[string]ClusterMeta{},
	}, nil
}
