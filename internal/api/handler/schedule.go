package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opscale/warehouse-scheduler/internal/api/request"
	"github.com/opscale/warehouse-scheduler/internal/api/response"
	"github.com/opscale/warehouse-scheduler/internal/core"
	"github.com/opscale/warehouse-scheduler/internal/model"
)

type Schedule struct {
	svc *core.ScheduleService
}

func NewSchedule(svc *core.ScheduleService) *Schedule {
	return &Schedule{svc: svc}
}

func (h *Schedule) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, entries)
}

func (h *Schedule) GetWarehouse(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	weekdays, err := h.svc.GetDay(r.Context(), name, true)
	if err != nil {
		writeLookupError(w, err)
		return
	}
	weekends, err := h.svc.GetDay(r.Context(), name, false)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]model.DaySchedule{
		"weekdays": weekdays,
		"weekends": weekends,
	})
}

func (h *Schedule) GetDay(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	weekday, ok := parseDayClass(chi.URLParam(r, "dayClass"))
	if !ok {
		response.WriteError(w, http.StatusBadRequest, "day class must be weekdays or weekends")
		return
	}

	day, err := h.svc.GetDay(r.Context(), name, weekday)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, day)
}

func (h *Schedule) GetEntry(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	weekday, ok := parseDayClass(chi.URLParam(r, "dayClass"))
	if !ok {
		response.WriteError(w, http.StatusBadRequest, "day class must be weekdays or weekends")
		return
	}

	start, err := model.ParseTimeOfDay(r.URL.Query().Get("start"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "start: "+err.Error())
		return
	}
	finish, err := model.ParseTimeOfDay(r.URL.Query().Get("finish"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "finish: "+err.Error())
		return
	}

	entry, err := h.svc.FindEntry(r.Context(), name, weekday, start, finish)
	if err != nil {
		writeLookupError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, entry)
}

func (h *Schedule) Create(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	weekday, ok := parseDayClass(chi.URLParam(r, "dayClass"))
	if !ok {
		response.WriteError(w, http.StatusBadRequest, "day class must be weekdays or weekends")
		return
	}

	var req request.ScheduleEntry
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := req.Model(name, weekday)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Create(r.Context(), entry); err != nil {
		writeServiceError(w, err)
		return
	}

	day, err := h.svc.GetDay(r.Context(), name, weekday)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, day)
}

func (h *Schedule) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req request.ScheduleEntry
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Warehouse and day class are taken from the stored entry; the body
	// only carries the replacement interval and configuration.
	entry, err := req.Model("", false)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Update(r.Context(), id, entry); err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Schedule) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Schedule) SetEnabled(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req request.SetEnabled
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.SetEnabled(r.Context(), name, req.Enabled); err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{"warehouse": name, "enabled": req.Enabled})
}

func (h *Schedule) Reset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.svc.Reset(r.Context(), name); err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Schedule) CreateDefaults(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.svc.CreateDefaults(r.Context(), name); err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "created"})
}
