package api

import (
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/j-emberton/HXforge/internal/engine"
	"github.com/j-emberton/HXforge/internal/hxerr"
	"github.com/j-emberton/HXforge/internal/metrics"
	"github.com/j-emberton/HXforge/internal/models"
	"github.com/j-emberton/HXforge/internal/physics"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	store    *engine.TableStore
	metrics  *metrics.Metrics
	bounds   engine.BoundsPolicy
	backends map[string]engine.Backend
	sessions *sessionRegistry
	ready    atomic.Bool
}

// NewHandler serves tables from store. The API is live immediately but
// /api/health reports 503 until SetReady is called.
func NewHandler(store *engine.TableStore, m *metrics.Metrics, bounds engine.BoundsPolicy) *Handler {
	return &Handler{
		store:    store,
		metrics:  m,
		bounds:   bounds,
		backends: make(map[string]engine.Backend),
		sessions: newSessionRegistry(),
	}
}

// SetReady marks the preload as finished.
func (h *Handler) SetReady() { h.ready.Store(true) }

// RegisterBackend makes b available to external-strategy sessions as name.
// Call it before serving; the backend map is not guarded.
func (h *Handler) RegisterBackend(name string, b engine.Backend) { h.backends[name] = b }

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/health", h.GetHealth)

	api.GET("/fluids", h.ListFluids)
	api.GET("/fluids/:fluid", h.GetFluid)
	api.GET("/fluids/:fluid/properties", h.GetProperties)
	api.GET("/fluids/:fluid/sweep", h.GetSweep)
	api.GET("/fluids/:fluid/table.arrow", h.GetArrow)

	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions/:id", h.GetSession)
	api.PUT("/sessions/:id/enthalpy", h.SetSessionEnthalpy)
	api.GET("/sessions/:id/properties", h.GetSessionProperties)
	api.DELETE("/sessions/:id", h.DeleteSession)

	api.POST("/physics/overall-htc", h.PostOverallHTC)
	api.POST("/physics/wall-resistance", h.PostWallResistance)
	api.POST("/physics/heat-load", h.PostHeatLoad)
	api.POST("/physics/tube-area", h.PostTubeArea)

	e.GET("/metrics", echo.WrapHandler(h.metrics.Handler()))
}

// --- HELPERS ---

func floatParam(c echo.Context, name string) (float64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, hxerr.Invalid(name, 0, "query parameter is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("query parameter %s=%q is not a number", name, raw))
	}
	return v, nil
}

func (h *Handler) boundsParam(c echo.Context) (engine.BoundsPolicy, error) {
	raw := c.QueryParam("bounds")
	if raw == "" {
		return h.bounds, nil
	}
	p, err := engine.ParseBoundsPolicy(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return p, nil
}

func (h *Handler) table(c echo.Context) (*engine.Table, error) {
	t, err := h.store.Get(c.Param("fluid"))
	if err != nil {
		return nil, httpError(err)
	}
	c.Response().Header().Set("ETag", etag(t))
	return t, nil
}

func etag(t *engine.Table) string { return fmt.Sprintf(`"%016x"`, t.Checksum()) }

func propertiesOf(ev *engine.Evaluator, row engine.Row) models.Properties {
	return models.Properties{
		Fluid:      ev.Fluid(),
		Strategy:   string(ev.Kind()),
		Enthalpy:   row.Enthalpy,
		Properties: row.Map(),
	}
}

// setEnthalpy runs one evaluation and records it.
func (h *Handler) setEnthalpy(ev *engine.Evaluator, v float64) (engine.Row, error) {
	start := time.Now()
	row, err := ev.SetEnthalpy(v)
	h.metrics.ObserveEvaluation(ev.Fluid(), ev.Kind(), start, err)
	return row, err
}

// --- FLUID HANDLERS ---

// returns 200 once the preload is done, 503 before
func (h *Handler) GetHealth(c echo.Context) error {
	if !h.ready.Load() {
		return c.JSON(http.StatusServiceUnavailable, models.Health{Status: "loading"})
	}
	return c.JSON(http.StatusOK, models.Health{Status: "ok", Loaded: h.store.Loaded()})
}

// returns the fluids the table directory offers and those already loaded
func (h *Handler) ListFluids(c echo.Context) error {
	fluids, err := h.store.Fluids()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, models.FluidList{Fluids: fluids, Loaded: h.store.Loaded()})
}

// returns columns, row count and key bounds of one table
func (h *Handler) GetFluid(c echo.Context) error {
	t, err := h.table(c)
	if err != nil {
		return err
	}
	lo, hi, _ := t.Bounds()
	return c.JSON(http.StatusOK, models.FluidSummary{
		Fluid:     t.Fluid(),
		KeyColumn: t.KeyColumn(),
		Columns:   t.Columns(),
		Rows:      t.Len(),
		Min:       lo,
		Max:       hi,
		Checksum:  fmt.Sprintf("%016x", t.Checksum()),
	})
}

// returns the row at ?h=, using a throwaway evaluator
func (h *Handler) GetProperties(c echo.Context) error {
	t, err := h.table(c)
	if err != nil {
		return err
	}
	v, err := floatParam(c, "h")
	if err != nil {
		return httpError(err)
	}
	bounds, err := h.boundsParam(c)
	if err != nil {
		return err
	}

	ev := engine.NewTableEvaluator(t, engine.WithBounds(bounds))
	row, err := h.setEnthalpy(ev, v)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, propertiesOf(ev, row))
}

// returns ?steps= evenly spaced rows between ?from= and ?to=
func (h *Handler) GetSweep(c echo.Context) error {
	t, err := h.table(c)
	if err != nil {
		return err
	}
	from, err := floatParam(c, "from")
	if err != nil {
		return httpError(err)
	}
	to, err := floatParam(c, "to")
	if err != nil {
		return httpError(err)
	}
	steps, err := strconv.Atoi(c.QueryParam("steps"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter steps must be an integer")
	}
	bounds, err := h.boundsParam(c)
	if err != nil {
		return err
	}

	points, err := engine.Sweep(t, from, to, steps, bounds)
	if err != nil {
		return httpError(err)
	}
	out := models.Sweep{
		Fluid:   t.Fluid(),
		Bounds:  bounds.String(),
		Columns: t.Columns(),
		Points:  make([]models.SweepPoint, len(points)),
	}
	for i, p := range points {
		out.Points[i] = models.SweepPoint{Enthalpy: p.Enthalpy, Values: p.Values}
	}
	return c.JSON(http.StatusOK, out)
}

// streams the whole table as Arrow IPC
func (h *Handler) GetArrow(c echo.Context) error {
	t, err := h.table(c)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.apache.arrow.stream")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.arrow"`, t.Fluid()))
	c.Response().WriteHeader(http.StatusOK)
	return engine.WriteArrow(c.Response(), t)
}

// --- SESSION HANDLERS ---

// returns a new evaluator session, table-backed unless strategy says otherwise
func (h *Handler) CreateSession(c echo.Context) error {
	req := new(models.SessionRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	var opts []engine.EvaluatorOption
	if req.Bounds != "" {
		p, err := engine.ParseBoundsPolicy(req.Bounds)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		opts = append(opts, engine.WithBounds(p))
	} else {
		opts = append(opts, engine.WithBounds(h.bounds))
	}
	if req.Pressure != nil {
		opts = append(opts, engine.WithPressure(*req.Pressure))
	}

	var ev *engine.Evaluator
	switch req.Strategy {
	case "", string(engine.KindTable):
		t, err := h.store.Get(req.Fluid)
		if err != nil {
			return httpError(err)
		}
		ev = engine.NewTableEvaluator(t, opts...)
	case string(engine.KindExternal):
		b, ok := h.backends[req.Fluid]
		if !ok {
			return httpError(hxerr.NotFound(req.Fluid, fmt.Errorf("no external backend")))
		}
		ev = engine.NewExternalEvaluator(req.Fluid, b, opts...)
	}

	s, ok := h.sessions.add(ev)
	if !ok {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many open sessions")
	}
	h.metrics.Sessions.Set(float64(h.sessions.len()))
	c.Logger().Infof("session %s opened for %q (%s)", s.id, ev.Fluid(), ev.Kind())
	return c.JSON(http.StatusCreated, models.Session{ID: s.id, Fluid: ev.Fluid(), Strategy: string(ev.Kind())})
}

// returns the session's enthalpy and, when valid, its row
func (h *Handler) GetSession(c echo.Context) error {
	s, err := h.sessions.get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := models.Session{ID: s.id, Fluid: s.ev.Fluid(), Strategy: string(s.ev.Kind())}
	if v, err := s.ev.Enthalpy(); err == nil {
		out.Enthalpy = &v
	}
	if row, err := s.ev.Properties(); err == nil {
		out.Properties = row.Map()
	}
	return c.JSON(http.StatusOK, out)
}

// recomputes the session's row and returns it
func (h *Handler) SetSessionEnthalpy(c echo.Context) error {
	s, err := h.sessions.get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	req := new(models.EnthalpyRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	row, err := h.setEnthalpy(s.ev, *req.Enthalpy)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, propertiesOf(s.ev, row))
}

// returns the row of the last successful recompute
func (h *Handler) GetSessionProperties(c echo.Context) error {
	s, err := h.sessions.get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, err := s.ev.Properties()
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, propertiesOf(s.ev, row))
}

// drops the session
func (h *Handler) DeleteSession(c echo.Context) error {
	id := c.Param("id")
	if !h.sessions.remove(id) {
		return httpError(errUnknownSession)
	}
	h.metrics.Sessions.Set(float64(h.sessions.len()))
	return c.NoContent(http.StatusNoContent)
}

// --- PHYSICS HANDLERS ---

// returns U for two films and a wall
func (h *Handler) PostOverallHTC(c echo.Context) error {
	req := new(models.OverallHTCRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	u, err := physics.OverallHTC(req.HTC1, req.HTC2, req.RWall)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, models.Scalar{Value: u, Unit: "W/(m2.K)"})
}

// returns the plane-wall resistance
func (h *Handler) PostWallResistance(c echo.Context) error {
	req := new(models.WallResistanceRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	r, err := physics.WallResistance(req.Thickness, req.K)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, models.Scalar{Value: r, Unit: "K.m2/W"})
}

// returns Q = U·A·LMTD
func (h *Handler) PostHeatLoad(c echo.Context) error {
	req := new(models.HeatLoadRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	q, err := physics.HeatLoadLMTD(req.U, req.Area, req.DT1, req.DT2)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, models.Scalar{Value: q, Unit: "W"})
}

// returns the outer surface of a straight tube
func (h *Handler) PostTubeArea(c echo.Context) error {
	req := new(models.TubeAreaRequest)
	if err := c.Bind(req); err != nil {
		return err
	}
	a, err := physics.TubeOuterArea(req.Length, req.OD)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, models.Scalar{Value: a, Unit: "m2"})
}
