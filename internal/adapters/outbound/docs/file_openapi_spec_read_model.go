package docs

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"taskflow/internal/application/dto"
	portsout "taskflow/internal/application/ports/out"
	apperrors "taskflow/internal/shared_kernel/errors"
)

const (
	yamlContentType = "application/yaml; charset=utf-8"
	jsonContentType = "application/json; charset=utf-8"
)

// FileOpenAPISpecReadModel serves the API document from disk, re-read per request.
type FileOpenAPISpecReadModel struct {
	path string
}

var _ portsout.OpenAPISpecReadModel = (*FileOpenAPISpecReadModel)(nil)

func NewFileOpenAPISpecReadModel(path string) *FileOpenAPISpecReadModel {
	return &FileOpenAPISpecReadModel{path: path}
}

func (r *FileOpenAPISpecReadModel) Read(_ context.Context) (dto.OpenAPISpecOutput, *apperrors.AppError) {
	content, err := os.ReadFile(r.path)
	if err != nil {
		return dto.OpenAPISpecOutput{}, apperrors.NewInternal(
			"OPENAPI_FILE_READ_FAILED",
			"failed to read OpenAPI spec file",
			map[string]any{"path": r.path},
		)
	}

	contentType := yamlContentType
	if strings.EqualFold(filepath.Ext(r.path), ".json") {
		contentType = jsonContentType
	}
	return dto.OpenAPISpecOutput{Content: content, ContentType: contentType}, nil
}
