package handler

import (
	"net/http"
	"strconv"

	"github.com/opscale/warehouse-scheduler/internal/api/response"
	"github.com/opscale/warehouse-scheduler/internal/core"
)

type RunLog struct {
	svc *core.RunLogService
}

func NewRunLog(svc *core.RunLogService) *RunLog {
	return &RunLog{svc: svc}
}

func (h *RunLog) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			response.WriteError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	records, err := h.svc.List(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, records)
}
