package gcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
)

// WorkflowPublisher starts a Cloud Workflows execution whenever the content
// document changes, e.g. to rebuild cached pages.
type WorkflowPublisher struct {
	client *executions.Client
	parent string
}

// NewWorkflowPublisher creates a publisher for one workflow.
func NewWorkflowPublisher(ctx context.Context, projectID, location, workflowID string) (*WorkflowPublisher, error) {
	if projectID == "" || location == "" || workflowID == "" {
		return nil, fmt.Errorf("NewWorkflowPublisher: projectID, location and workflowID cannot be empty")
	}
	client, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}
	return &WorkflowPublisher{
		client: client,
		parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
	}, nil
}

// ContentPublished triggers one execution carrying the write timestamp.
func (p *WorkflowPublisher) ContentPublished(ctx context.Context, updatedAt time.Time) error {
	payload, err := json.Marshal(map[string]any{
		"event":     "content.updated",
		"updatedAt": updatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}
	_, err = p.client.CreateExecution(ctx, &executionspb.CreateExecutionRequest{
		Parent: p.parent,
		Execution: &executionspb.Execution{
			Argument: string(payload),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return nil
}

func (p *WorkflowPublisher) Close() error {
	return p.client.Close()
}
