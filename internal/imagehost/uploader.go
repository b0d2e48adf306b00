package imagehost

import (
	"context"
	"errors"
)

var (
	ErrRejected     = errors.New("image host rejected the upload")
	ErrInvalidImage = errors.New("invalid image")
)

// File is an image selected by the admin.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader sends an image to a hosting service and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file File) (string, error)
}

// Pipeline runs every file through the Processor before handing it to the backend uploader.
type Pipeline struct {
	processor *Processor
	backend   Uploader
}

func NewPipeline(processor *Processor, backend Uploader) *Pipeline {
	return &Pipeline{processor: processor, backend: backend}
}

func (p *Pipeline) Upload(ctx context.Context, file File) (string, error) {
	prepared, err := p.processor.Prepare(file)
	if err != nil {
		return "", err
	}
	return p.backend.Upload(ctx, prepared)
}
