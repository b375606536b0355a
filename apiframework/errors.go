package apiframework

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/contenox/orchestrator/libdbexec"
	"github.com/contenox/orchestrator/orchestrator"
)

// Operation categorizes the handler calling Error, for the op-based fallback
// mapErrorToStatus uses once none of the specific error checks match.
type Operation uint16

const (
	CreateOperation Operation = iota
	GetOperation
	UpdateOperation
	DeleteOperation
	ListOperation
	ServerOperation
)

// mapErrorToStatus implements SPEC_FULL.md §10.2's error->status table.
func mapErrorToStatus(op Operation, err error) int {
	var unknownCloud *orchestrator.UnknownCloudError
	if errors.As(err, &unknownCloud) {
		return http.StatusBadRequest
	}

	var modelLoad *orchestrator.ModelLoadError
	if errors.As(err, &modelLoad) {
		return http.StatusNotFound
	}
	if errors.Is(err, libdbexec.ErrNotFound) {
		return http.StatusNotFound
	}

	var alreadyExists *orchestrator.ModelAlreadyExistsError
	if errors.As(err, &alreadyExists) {
		return http.StatusConflict
	}
	var alreadyDeleted *orchestrator.ModelAlreadyDeletedError
	if errors.As(err, &alreadyDeleted) {
		return http.StatusConflict
	}

	var existingActive *orchestrator.ExistingActiveTaskError
	if errors.As(err, &existingActive) {
		// Programmer error: the driver should never observe a second active
		// request for the same model (invariant 1).
		return http.StatusInternalServerError
	}

	if errors.Is(err, ErrDecodeInvalidJSON) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrEncodeInvalidJSON) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, libdbexec.ErrUniqueViolation) ||
		errors.Is(err, libdbexec.ErrForeignKeyViolation) ||
		errors.Is(err, libdbexec.ErrNotNullViolation) ||
		errors.Is(err, libdbexec.ErrCheckViolation) ||
		errors.Is(err, libdbexec.ErrConstraintViolation) {
		return http.StatusConflict
	}
	if errors.Is(err, libdbexec.ErrInvalidInputSyntax) ||
		errors.Is(err, libdbexec.ErrDataTruncation) ||
		errors.Is(err, libdbexec.ErrNumericOutOfRange) {
		return http.StatusBadRequest
	}
	if errors.Is(err, libdbexec.ErrDeadlockDetected) ||
		errors.Is(err, libdbexec.ErrSerializationFailure) ||
		errors.Is(err, libdbexec.ErrLockNotAvailable) {
		return http.StatusConflict
	}

	switch op {
	case CreateOperation, UpdateOperation:
		return http.StatusUnprocessableEntity
	case GetOperation, ListOperation, DeleteOperation:
		return http.StatusNotFound
	case ServerOperation:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error sends a JSON-encoded {"error": "..."} response with the status
// mapErrorToStatus derives for op/err.
func Error(w http.ResponseWriter, _ *http.Request, err error, op Operation) error {
	status := mapErrorToStatus(op, err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
