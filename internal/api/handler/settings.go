package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opscale/warehouse-scheduler/internal/api/request"
	"github.com/opscale/warehouse-scheduler/internal/api/response"
	"github.com/opscale/warehouse-scheduler/internal/core"
	"github.com/opscale/warehouse-scheduler/internal/model"
)

type Settings struct {
	svc *core.SettingsService
}

func NewSettings(svc *core.SettingsService) *Settings {
	return &Settings{svc: svc}
}

func (h *Settings) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	value, err := h.svc.Get(r.Context(), key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if value == "" {
		response.WriteError(w, http.StatusNotFound, "setting not found")
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

func (h *Settings) Put(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req request.UpdateSetting
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if key == model.SettingDefaultTimezone {
		if _, err := time.LoadLocation(req.Value); err != nil {
			response.WriteError(w, http.StatusBadRequest, "unknown timezone "+req.Value)
			return
		}
	}

	if err := h.svc.Set(r.Context(), key, req.Value); err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
}
