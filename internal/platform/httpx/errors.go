package httpx

import (
	"errors"
	"net/http"

	"github.com/lessonflow/lessonflow/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. Conflict
// and transfer-abort outcomes are expected results, not server failures, so
// they surface as 409 with their full reason intact.
func RespondError(w http.ResponseWriter, err error) {
	var conflict *shared.ConflictError
	var aborted *shared.TransferAbortedError
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.As(err, &conflict):
		Problem(w, http.StatusConflict, "Schedule Conflict", conflict.Reason)
	case errors.As(err, &aborted):
		Problem(w, http.StatusConflict, "Transfer Aborted", aborted.Error())
	case errors.Is(err, shared.ErrComputationInconsistency):
		Problem(w, http.StatusInternalServerError, "Computation Inconsistency", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
