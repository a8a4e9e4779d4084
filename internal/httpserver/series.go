package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/OctaveLauby/olanalytics/internal/series"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type seriesHandler struct {
	store    *series.Store
	detector detectHandler
}

type createSeriesRequest struct {
	TenantID  string     `json:"tenant_id" binding:"required"`
	SeriesID  string     `json:"series_id"`
	Name      string     `json:"name"`
	X         []float64  `json:"x" binding:"omitempty,nondecreasing"`
	Y         []float64  `json:"y" binding:"required"`
	CreatedAt *time.Time `json:"created_at"`
}

type tenantQuery struct {
	TenantID string `form:"tenant_id" binding:"required"`
}

type contextRequest struct {
	Anchors      []int `json:"anchors" binding:"required"`
	TopK         int   `json:"top_k" binding:"required"`
	BufferBefore int   `json:"buffer_before"`
	BufferAfter  int   `json:"buffer_after"`
}

type contextResponse struct {
	Samples []series.Sample `json:"samples"`
}

func newSeriesHandler(store *series.Store, detector detectHandler) seriesHandler {
	return seriesHandler{store: store, detector: detector}
}

func (h seriesHandler) create(c *gin.Context) {
	var req createSeriesRequest
	if !bindJSON(c, &req, false) {
		return
	}
	if len(req.Y) > h.detector.maxSamples {
		writeError(c, http.StatusBadRequest, "y exceeds the sample limit")
		return
	}

	seriesID := req.SeriesID
	if seriesID == "" {
		seriesID = "srs_" + uuid.NewString()
	}
	createdAt := time.Now().UTC()
	if req.CreatedAt != nil {
		createdAt = req.CreatedAt.UTC()
	}

	s, err := series.NewSeries(seriesID, req.TenantID, req.Name, req.X, req.Y, createdAt)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.Append(s); err != nil {
		if errors.Is(err, series.ErrDuplicateSeriesID) {
			writeError(c, http.StatusConflict, err.Error())
			return
		}
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusCreated, s)
}

func (h seriesHandler) list(c *gin.Context) {
	var q tenantQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "tenant_id is required")
		return
	}

	c.JSON(http.StatusOK, h.store.ListByTenant(q.TenantID))
}

func (h seriesHandler) get(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h seriesHandler) context(c *gin.Context) {
	var q tenantQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "tenant_id is required")
		return
	}
	var req contextRequest
	if !bindJSON(c, &req, false) {
		return
	}

	samples, err := h.store.Neighborhood(
		q.TenantID,
		c.Param("series_id"),
		req.Anchors,
		req.TopK,
		req.BufferBefore,
		req.BufferAfter,
	)
	if err != nil {
		if errors.Is(err, series.ErrSeriesNotFound) {
			writeError(c, http.StatusNotFound, err.Error())
			return
		}
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, contextResponse{Samples: samples})
}

func (h seriesHandler) bounds(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var p BoundsParams
	if !bindJSON(c, &p, true) {
		return
	}

	h.detector.respond(c, "bounds", len(s.Y), func() (any, error) {
		return runBounds(p, s.Y)
	})
}

func (h seriesHandler) elbow(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var p ElbowParams
	if !bindJSON(c, &p, true) {
		return
	}

	h.detector.respond(c, "elbow", len(s.Y), func() (any, error) {
		return h.detector.runElbow(c.Request.Context(), p, s.Y)
	})
}

func (h seriesHandler) iso(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var p IsoParams
	if !bindJSON(c, &p, true) {
		return
	}

	h.detector.respond(c, "iso", len(s.Y), func() (any, error) {
		return h.detector.runIso(p, s.Y)
	})
}

// leap uses the series axis, or sample positions when the series has none.
func (h seriesHandler) leap(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	var p LeapParams
	if !bindJSON(c, &p, false) {
		return
	}

	h.detector.respond(c, "leap", len(s.Y), func() (any, error) {
		return runLeap(p, s.Axis(), s.Y)
	})
}

func (h seriesHandler) lookup(c *gin.Context) (series.Series, bool) {
	var q tenantQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, http.StatusBadRequest, "tenant_id is required")
		return series.Series{}, false
	}

	s, ok := h.store.Get(q.TenantID, c.Param("series_id"))
	if !ok {
		writeError(c, http.StatusNotFound, series.ErrSeriesNotFound.Error())
		return series.Series{}, false
	}
	return s, true
}
