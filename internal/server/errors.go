package server

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/job-evaluator/internal/extraction"
	"github.com/jonathan/job-evaluator/internal/llm"
	"github.com/jonathan/job-evaluator/internal/pipeline"
	"github.com/jonathan/job-evaluator/internal/standards"
)

// HTTPStatus maps pipeline errors to response codes. Stage errors are
// unwrapped first so the underlying cause decides the code.
func HTTPStatus(err error) int {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		err = stageErr.Err
	}

	var (
		fieldErrs     validator.ValidationErrors
		extractErr    *extraction.ExtractionError
		levelErr      *standards.LevelDetectionError
		validationErr *llm.ValidationError
		transportErr  *llm.TransportError
	)
	switch {
	case errors.As(err, &fieldErrs):
		return http.StatusBadRequest
	case errors.As(err, &extractErr):
		return http.StatusBadRequest
	case errors.As(err, &levelErr):
		return http.StatusBadRequest
	case errors.As(err, &validationErr):
		// The model answered but the response failed the contract.
		return http.StatusUnprocessableEntity
	case errors.As(err, &transportErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
