package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/admissionsflow/internal/applicants"
	"github.com/Lllllllleong/admissionsflow/internal/gcp"
	"github.com/Lllllllleong/admissionsflow/internal/models"
	"github.com/Lllllllleong/admissionsflow/internal/progress"
)

// StoreConfig locates the applicant collection.
type StoreConfig struct {
	ProjectID      string
	CollectionName string
}

func loadStoreConfig() (StoreConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return StoreConfig{}, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	return StoreConfig{
		ProjectID:      projectID,
		CollectionName: gcp.GetEnv("FIRESTORE_COLLECTION", "applicants"),
	}, nil
}

func newFirestoreStore(ctx context.Context, cfg StoreConfig) (*applicants.FirestoreStore, error) {
	client, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, err
	}
	return applicants.NewFirestoreStore(client, cfg.CollectionName), nil
}

// startMirror returns a mirror and, when MIRROR_FOLLOW is enabled, keeps it
// in sync with the collection for the life of the instance.
func startMirror(store applicants.Store) *applicants.Mirror {
	mirror := applicants.NewMirror()
	if gcp.GetEnvBool("MIRROR_FOLLOW", false) {
		mirror.Subscribe(func(a models.Applicant, removed bool) {
			slog.Debug("Applicant mirror changed.", "applicantId", a.ID, "status", a.Status, "removed", removed)
		})
		go func() {
			if err := mirror.Follow(context.Background(), store); err != nil {
				slog.Error("Applicant mirror stopped following changes.", "error", err)
			}
		}()
	}
	return mirror
}

func factsOf(a *models.Applicant) progress.Facts {
	return progress.Facts{
		HasInterview:  a.Interview != nil,
		HasDemo:       a.DemoTeaching != nil,
		FinalDecision: a.FinalDecision,
	}
}

func checklistOf(raw string) []models.ChecklistStep {
	steps := progress.Checklist(raw)
	out := make([]models.ChecklistStep, len(steps))
	for i, s := range steps {
		out[i] = models.ChecklistStep{Stage: string(s.Stage), State: s.State}
	}
	return out
}
