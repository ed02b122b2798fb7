package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
)

// RetentionScheduler starts the workflow that owns post-decision record
// deletion. The workflow sleeps until deleteAfter and then removes the
// applicant's record and uploads.
type RetentionScheduler struct {
	client   *executions.Client
	workflow string
}

// NewRetentionScheduler creates an executions client for the given workflow.
func NewRetentionScheduler(ctx context.Context, projectID, location, workflowID string) (*RetentionScheduler, error) {
	if projectID == "" || location == "" || workflowID == "" {
		return nil, fmt.Errorf("NewRetentionScheduler: projectID, location and workflowID cannot be empty")
	}
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &RetentionScheduler{
		client:   client,
		workflow: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
	}, nil
}

// ScheduleRetention creates one workflow execution for the applicant and
// returns its resource name.
func (s *RetentionScheduler) ScheduleRetention(ctx context.Context, applicantID, decision string, deleteAfter time.Time) (string, error) {
	payload := map[string]interface{}{
		"applicantId": applicantID,
		"decision":    decision,
		"deleteAfter": deleteAfter.UTC().Format(time.RFC3339),
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	exec, err := s.client.CreateExecution(ctx, &executionspb.CreateExecutionRequest{
		Parent: s.workflow,
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to trigger retention workflow: %w", err)
	}
	return exec.GetName(), nil
}

func (s *RetentionScheduler) Close() error {
	return s.client.Close()
}
