package controllers

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"net/http"

	"taskflow/internal/application/dto"
	portsin "taskflow/internal/application/ports/in"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const OpenAPISpecRoute = "/swagger/openapi.yaml"

type SwaggerController struct {
	useCase         portsin.GetOpenAPISpecUseCase
	logger          *log.Logger
	swaggerUIHandle http.Handler
}

func NewSwaggerController(useCase portsin.GetOpenAPISpecUseCase, logger *log.Logger) *SwaggerController {
	return &SwaggerController{
		useCase: useCase,
		logger:  logger,
		swaggerUIHandle: httpSwagger.Handler(
			httpSwagger.URL(OpenAPISpecRoute),
			httpSwagger.PersistAuthorization(true),
		),
	}
}

func (c *SwaggerController) RedirectToIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/swagger/index.html", http.StatusTemporaryRedirect)
}

func (c *SwaggerController) ServeUI(w http.ResponseWriter, r *http.Request) {
	c.swaggerUIHandle.ServeHTTP(w, r)
}

// GetOpenAPISpec serves the document with a content ETag so the UI can revalidate cheaply.
func (c *SwaggerController) GetOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.useCase.Execute(r.Context(), dto.GetOpenAPISpecQuery{})
	if appErr != nil {
		logRequestError(c.logger, r.Method, OpenAPISpecRoute, appErr)
		writeAppError(w, appErr)
		return
	}

	sum := sha256.Sum256(output.Content)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", output.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(output.Content); err != nil && c.logger != nil {
		c.logger.Printf("response write error path=%s method=%s error=%v", OpenAPISpecRoute, r.Method, err)
	}
}
