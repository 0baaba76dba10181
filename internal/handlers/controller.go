package handlers

import (
	"net/http"
	"time"

	"chamber_control/internal/schedule"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errGetState    = "failed to load state"
	errNoScheduler = "scheduler not available"
	errAtInvalid   = "invalid 'at' time; use HH:MM"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// SlotResponse is one schedule slot as served by the API.
type SlotResponse struct {
	Range string `json:"range" example:"10:20-10:35"`
	Mode  string `json:"mode" example:"heat"`
	// False when the executor will skip this slot
	Known bool `json:"known" example:"true"`
}

// ScheduleResponse lists the slots in evaluation order and the one active at At.
type ScheduleResponse struct {
	At     string         `json:"at" example:"10:40"`
	Active *SlotResponse  `json:"active,omitempty"`
	Slots  []SlotResponse `json:"slots"`
}

func toSlotResponse(s schedule.Slot) SlotResponse {
	return SlotResponse{Range: s.Range(), Mode: s.Mode.String(), Known: s.Mode.Known()}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get controller state
// @Description  Last snapshot written by the control loop: mode, slot, temperatures, device flags and fault codes.
// @Tags         controller
// @Produce      json
// @Success      200  {object}  models.ControllerState
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/controller/state [get]
func (h *Handler) getState(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Monitoring.GetState(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "controller_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Get schedule
// @Description  Configured slots in evaluation order and the slot active at the given time of day (default: now).
// @Tags         controller
// @Produce      json
// @Param        at   query     string  false  "Time of day, HH:MM"  example(10:40)
// @Success      200  {object}  ScheduleResponse
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/controller/schedule [get]
func (h *Handler) getSchedule(c *gin.Context) {
	if h.services.Scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoScheduler})
		return
	}

	at := time.Now()
	if qs := c.Query("at"); qs != "" {
		tod, err := schedule.ParseTimeOfDay(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errAtInvalid})
			return
		}
		at = tod.On(at)
	}

	sched := h.services.Scheduler.Schedule()
	resp := ScheduleResponse{
		At:    at.Format("15:04"),
		Slots: make([]SlotResponse, 0, len(sched)),
	}
	for _, s := range sched {
		resp.Slots = append(resp.Slots, toSlotResponse(s))
	}
	if slot, ok := h.services.Scheduler.Active(at); ok {
		active := toSlotResponse(slot)
		resp.Active = &active
	}
	c.JSON(http.StatusOK, resp)
}
