package availability

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careslot/careslot/internal/platform/auth"
	"github.com/careslot/careslot/pkg/interval"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/availability")

	// Read endpoints - any authenticated role
	g.GET("/weekly-schedule/:doctorId", h.GetWeeklySchedule)
	g.GET("/day-view/:doctorId", h.GetDayView)
	g.GET("/overrides/:doctorId", h.GetOverride)
	g.GET("/slots/:doctorId", h.GetAvailableSlots)
	g.GET("/block-time-reasons", h.ListBlockTimeReasons)

	// Write endpoints - doctors manage their own availability
	write := g.Group("", auth.RequireRole("doctor"))
	write.POST("/weekly-schedule", h.SetWeeklySchedule)
	write.DELETE("/weekly-schedule/:doctorId", h.DeleteWeeklySchedule)
	write.POST("/overrides", h.CreateOverride)
	write.DELETE("/overrides/:doctorId", h.DeleteOverride)
	write.POST("/block-time", h.AddBlockTime)
}

func doctorIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	return id, nil
}

func dateQuery(c echo.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, name+" is required")
	}
	d, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return d, nil
}

type weeklyScheduleRequest struct {
	DoctorID            uuid.UUID `json:"doctor_id"`
	Days                WeekMap   `json:"days"`
	SlotDurationMinutes int       `json:"slot_duration_minutes"`
}

func (h *Handler) SetWeeklySchedule(c echo.Context) error {
	var req weeklyScheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	tmpl := &WeeklyTemplate{
		DoctorID:            req.DoctorID,
		Days:                req.Days,
		SlotDurationMinutes: req.SlotDurationMinutes,
	}
	if err := h.svc.SetTemplate(c.Request().Context(), tmpl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, tmpl)
}

func (h *Handler) GetWeeklySchedule(c echo.Context) error {
	id, err := doctorIDParam(c)
	if err != nil {
		return err
	}
	tmpl, err := h.svc.GetTemplate(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "weekly schedule not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tmpl)
}

func (h *Handler) DeleteWeeklySchedule(c echo.Context) error {
	id, err := doctorIDParam(c)
	if err != nil {
		return err
	}
	err = h.svc.DeleteTemplate(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "weekly schedule not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetDayView(c echo.Context) error {
	id, err := doctorIDParam(c)
	if err != nil {
		return err
	}
	date, err := dateQuery(c, "date")
	if err != nil {
		return err
	}
	view, err := h.svc.DayView(c.Request().Context(), id, date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, view)
}

type overrideRequest struct {
	DoctorID     uuid.UUID          `json:"doctor_id"`
	Date         string             `json:"date"`
	IsAvailable  bool               `json:"is_available"`
	CustomWindow *interval.Interval `json:"custom_window,omitempty"`
	Blocks       []BlockTime        `json:"blocks,omitempty"`
	Reason       string             `json:"reason,omitempty"`
}

func (h *Handler) CreateOverride(c echo.Context) error {
	var req overrideRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := ParseDate(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	kind := OverrideUnavailable
	if req.IsAvailable {
		kind = OverrideAvailable
	}
	o := &DailyOverride{
		DoctorID:     req.DoctorID,
		Date:         date,
		Kind:         kind,
		CustomWindow: req.CustomWindow,
		Blocks:       req.Blocks,
		Reason:       req.Reason,
	}
	if err := h.svc.UpsertOverride(c.Request().Context(), o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetOverride(c echo.Context) error {
	id, err := doctorIDParam(c)
	if err != nil {
		return err
	}
	date, err := dateQuery(c, "date")
	if err != nil {
		return err
	}
	o, err := h.svc.GetOverride(c.Request().Context(), id, date)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "override not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) DeleteOverride(c echo.Context) error {
	id, err := doctorIDParam(c)
	if err != nil {
		return err
	}
	date, err := dateQuery(c, "date")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteOverride(c.Request().Context(), id, date); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type blockTimeRequest struct {
	DoctorID    uuid.UUID         `json:"doctor_id"`
	Date        string            `json:"date"`
	Window      interval.Interval `json:"window"`
	Reason      string            `json:"reason"`
	Description string            `json:"description,omitempty"`
}

func (h *Handler) AddBlockTime(c echo.Context) error {
	var req blockTimeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	date, err := ParseDate(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	block := BlockTime{
		Window:      req.Window,
		Reason:      BlockReason(req.Reason),
		Description: req.Description,
	}
	o, err := h.svc.AddBlockTime(c.Request().Context(), req.DoctorID, date, block)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) GetAvailableSlots(c echo.Context) error {
	id, err := doctorIDParam(c)
	if err != nil {
		return err
	}
	from, err := dateQuery(c, "start_date")
	if err != nil {
		return err
	}
	to := from
	if raw := c.QueryParam("end_date"); raw != "" {
		to, err = ParseDate(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	slots, err := h.svc.SlotsRange(c.Request().Context(), id, from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"doctor_id": id,
		"slots":     slots,
	})
}

func (h *Handler) ListBlockTimeReasons(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"reasons": BlockReasons()})
}
