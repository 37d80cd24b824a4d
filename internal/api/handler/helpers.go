package handler

import (
	"errors"
	"net/http"

	"github.com/opscale/warehouse-scheduler/internal/api/response"
	"github.com/opscale/warehouse-scheduler/internal/core"
)

// writeServiceError maps engine error kinds onto HTTP statuses: validation
// failures are 400, conflicts 409, controller trouble 502, the rest 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var ce *core.Error
	if !errors.As(err, &ce) {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	switch ce.Kind {
	case core.ErrConflict:
		response.WriteError(w, http.StatusConflict, ce.Error())
	case core.ErrControllerDown, core.ErrControllerRejected:
		response.WriteError(w, http.StatusBadGateway, ce.Error())
	case core.ErrStoreUnavailable, core.ErrBug:
		response.WriteError(w, http.StatusInternalServerError, ce.Error())
	default:
		response.WriteError(w, http.StatusBadRequest, ce.Error())
	}
}

// writeLookupError is writeServiceError for read paths, where a conflict
// means the requested entry does not exist.
func writeLookupError(w http.ResponseWriter, err error) {
	var ce *core.Error
	if errors.As(err, &ce) && ce.Kind == core.ErrConflict {
		response.WriteError(w, http.StatusNotFound, ce.Error())
		return
	}
	writeServiceError(w, err)
}

// parseDayClass maps the {dayClass} path segment onto the weekday flag.
func parseDayClass(s string) (bool, bool) {
	switch s {
	case "weekdays":
		return true, true
	case "weekends":
		return false, true
	}
	return false, false
}
