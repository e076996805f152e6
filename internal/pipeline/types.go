package pipeline

import (
	"context"
	"time"

	"github.com/andresuchdata/sop-dashboard/backend-go/internal/domain"
)

// Pipeline defines the interface that all file pipelines must implement
type Pipeline interface {
	// Name returns the unique identifier for this pipeline
	Name() string

	// Validate checks if the input file is valid for this pipeline
	Validate(inputFile string) error

	// Transform processes a single input file
	Transform(ctx context.Context, inputFile string) (*Output, error)
}

// Output summarizes what a pipeline produced for one file.
type Output struct {
	Rows    int
	Notices []domain.Notice
}

// PipelineConfig holds configuration for a pipeline run
type PipelineConfig struct {
	Name        string
	WorkerCount int // Number of files processed concurrently
}

// DefaultPipelineConfig returns sensible defaults
func DefaultPipelineConfig(name string) PipelineConfig {
	return PipelineConfig{
		Name:        name,
		WorkerCount: 4,
	}
}

// FileJobStatus represents the state of a single file processing job
type FileJobStatus string

const (
	FileStatusQueued     FileJobStatus = "queued"
	FileStatusProcessing FileJobStatus = "processing"
	FileStatusCompleted  FileJobStatus = "completed"
	FileStatusFailed     FileJobStatus = "failed"
)

// FileJob tracks the processing of a single file
type FileJob struct {
	FilePath string
	Status   FileJobStatus
	Rows     int
	Notices  []domain.Notice
	Err      error
	Duration time.Duration
}
