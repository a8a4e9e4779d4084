package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/OctaveLauby/olanalytics/internal/detect"
	"github.com/OctaveLauby/olanalytics/internal/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type detectHandler struct {
	logger          *zap.Logger
	metrics         *metrics
	maxSamples      int
	maxElbowSamples int
	defaultDeltaR   float64
}

type groupRequest struct {
	Indexes []int `json:"indexes" binding:"required,nondecreasing"`
	Step    *int  `json:"step"`
}

type groupResponse struct {
	Groups [][]int `json:"groups"`
}

type BoundsParams struct {
	BotThld *float64 `json:"bot_thld"`
	TopThld *float64 `json:"top_thld"`
	Mode    string   `json:"mode" binding:"omitempty,oneof=value step"`
}

type boundsRequest struct {
	Values []float64 `json:"values" binding:"required"`
	BoundsParams
}

type boundsResponse struct {
	Boundaries []int           `json:"boundaries"`
	Regions    []detect.Region `json:"regions"`
}

type linearizeRequest struct {
	Values []float64 `json:"values" binding:"required"`
	Index  *int      `json:"index"`
}

type linearizeResponse struct {
	Values []float64 `json:"values"`
}

type ElbowParams struct {
	Method string `json:"method"`
}

type elbowRequest struct {
	Values []float64 `json:"values" binding:"required"`
	ElbowParams
}

type elbowResponse struct {
	Index  int                `json:"index"`
	Method detect.ElbowMethod `json:"method"`
}

type IsoParams struct {
	DeltaR          *float64 `json:"delta_r"`
	LevelReference  *float64 `json:"level_reference" binding:"excluded_with=LevelPercentile"`
	LevelPercentile *float64 `json:"level_percentile"`
}

type isoRequest struct {
	Values []float64 `json:"values" binding:"required"`
	IsoParams
}

type isoResponse struct {
	Indexes []int `json:"indexes"`
}

type LeapParams struct {
	Threshold      *float64 `json:"threshold" binding:"required"`
	LevelThreshold *float64 `json:"level_threshold"`
	OnSpan         *float64 `json:"onspan"`
	FadingWeight   *float64 `json:"fading_weight"`
}

type leapRequest struct {
	X []float64 `json:"x" binding:"omitempty,nondecreasing"`
	Y []float64 `json:"y" binding:"required"`
	LeapParams
}

type leapResponse struct {
	Indexes []int         `json:"indexes"`
	Leaps   []detect.Leap `json:"leaps"`
}

func newDetectHandler(opts Options, m *metrics) detectHandler {
	return detectHandler{
		logger:          opts.Logger,
		metrics:         m,
		maxSamples:      opts.MaxSamples,
		maxElbowSamples: opts.MaxElbowSamples,
		defaultDeltaR:   opts.DefaultDeltaR,
	}
}

func (h detectHandler) group(c *gin.Context) {
	var req groupRequest
	if !bindJSON(c, &req, false) {
		return
	}

	h.respond(c, "group", len(req.Indexes), func() (any, error) {
		step := 1
		if req.Step != nil {
			step = *req.Step
		}
		return groupResponse{Groups: detect.GroupConsecutives(req.Indexes, step)}, nil
	})
}

func (h detectHandler) bounds(c *gin.Context) {
	var req boundsRequest
	if !bindJSON(c, &req, false) {
		return
	}

	h.respond(c, "bounds", len(req.Values), func() (any, error) {
		return runBounds(req.BoundsParams, req.Values)
	})
}

func (h detectHandler) linearize(c *gin.Context) {
	var req linearizeRequest
	if !bindJSON(c, &req, false) {
		return
	}

	h.respond(c, "linearize", len(req.Values), func() (any, error) {
		index := detect.NoSplit
		if req.Index != nil {
			index = *req.Index
		}
		return linearizeResponse{Values: detect.Linearize(req.Values, index)}, nil
	})
}

func (h detectHandler) elbow(c *gin.Context) {
	var req elbowRequest
	if !bindJSON(c, &req, false) {
		return
	}

	h.respond(c, "elbow", len(req.Values), func() (any, error) {
		return h.runElbow(c.Request.Context(), req.ElbowParams, req.Values)
	})
}

func (h detectHandler) iso(c *gin.Context) {
	var req isoRequest
	if !bindJSON(c, &req, false) {
		return
	}

	h.respond(c, "iso", len(req.Values), func() (any, error) {
		return h.runIso(req.IsoParams, req.Values)
	})
}

func (h detectHandler) leap(c *gin.Context) {
	var req leapRequest
	if !bindJSON(c, &req, false) {
		return
	}

	h.respond(c, "leap", len(req.Y), func() (any, error) {
		return runLeap(req.LeapParams, req.X, req.Y)
	})
}

// respond enforces the sample cap, runs the detection, and writes its result.
// Errors returned by run map to 400 unless the request was cancelled.
func (h detectHandler) respond(c *gin.Context, operation string, samples int, run func() (any, error)) {
	if samples > h.maxSamples {
		writeError(c, http.StatusBadRequest, fmt.Sprintf("sequence exceeds %d samples", h.maxSamples))
		return
	}

	result, err := run()
	h.metrics.observeDetection(operation, samples, err)
	if err != nil {
		h.logger.Debug("detection rejected",
			zap.String("operation", operation),
			zap.Int("samples", samples),
			zap.Error(err),
		)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeError(c, http.StatusServiceUnavailable, "request cancelled")
			return
		}
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}

func runBounds(p BoundsParams, values []float64) (boundsResponse, error) {
	bot, top := 0.0, detect.Unbounded
	if p.BotThld != nil {
		bot = *p.BotThld
	}
	if p.TopThld != nil {
		top = *p.TopThld
	}

	var (
		regions []detect.Region
		err     error
	)
	if p.Mode == "step" {
		regions, err = detect.StepRegions(values, bot, top)
	} else {
		regions, err = detect.Regions(values, bot, top)
	}
	if err != nil {
		return boundsResponse{}, err
	}

	boundaries := make([]int, 0, len(regions))
	for i := 1; i < len(regions); i++ {
		boundaries = append(boundaries, regions[i].Start)
	}
	return boundsResponse{Boundaries: boundaries, Regions: regions}, nil
}

func (h detectHandler) runElbow(ctx context.Context, p ElbowParams, values []float64) (elbowResponse, error) {
	method, err := detect.ParseElbowMethod(p.Method)
	if err != nil {
		return elbowResponse{}, err
	}
	if method == detect.DoubleLine && len(values) > h.maxElbowSamples {
		return elbowResponse{}, fmt.Errorf("doubleline elbow accepts at most %d samples", h.maxElbowSamples)
	}
	index, err := detect.DetectElbowContext(ctx, values, method)
	if err != nil {
		return elbowResponse{}, err
	}
	return elbowResponse{Index: index, Method: method}, nil
}

func (h detectHandler) runIso(p IsoParams, values []float64) (isoResponse, error) {
	deltaR := h.defaultDeltaR
	if p.DeltaR != nil {
		deltaR = *p.DeltaR
	}

	var ref detect.LevelReference
	switch {
	case p.LevelReference != nil:
		ref = detect.LiteralLevel(*p.LevelReference)
	case p.LevelPercentile != nil:
		ref = detect.PercentileLevel(*p.LevelPercentile)
	}

	indexes, err := detect.DetectIso(values, deltaR, ref)
	if err != nil {
		return isoResponse{}, err
	}
	h.logger.Debug("isolation detected",
		logging.Sequence("values", values),
		zap.Float64("delta_r", deltaR),
		zap.Ints("indexes", indexes),
	)
	return isoResponse{Indexes: indexes}, nil
}

func runLeap(p LeapParams, x, y []float64) (leapResponse, error) {
	opts := detect.LeapOptions{LevelThreshold: p.LevelThreshold}
	if p.OnSpan != nil {
		opts.OnSpan = *p.OnSpan
	}
	if p.FadingWeight != nil {
		opts.FadingWeight = *p.FadingWeight
	}

	indexes, err := detect.DetectLeap(x, y, *p.Threshold, opts)
	if err != nil {
		return leapResponse{}, err
	}
	return leapResponse{Indexes: indexes, Leaps: detect.DescribeLeaps(y, indexes)}, nil
}
