// Package handler serves the engine operations over fasthttp.
package handler

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"pension-forecast/internal/engine"
	"pension-forecast/internal/model"
)

// Service is the set of engine operations exposed over HTTP.
type Service interface {
	Simulate(req *model.SimulationRequest) (*model.SimulationResult, error)
	Explain(req *model.SimulationRequest) (*model.Explanation, error)
	Timeline(req *model.SimulationRequest) ([]model.TimelinePoint, error)
	WhatIf(req *model.SimulationRequest, delays []int) (*model.WhatIfResult, error)
	Reload() model.ReloadReport
	Assumptions() model.AssumptionsView
}

// Exporter renders the usage log as an XLSX workbook.
type Exporter interface {
	ExportXLSX() ([]byte, error)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	svc    Service
	export Exporter
	logger *zap.Logger
}

// New returns a handler. export may be nil, in which case the export route
// answers 404.
func New(svc Service, export Exporter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, export: export, logger: logger}
}

// Handle is the fasthttp.RequestHandler routing every endpoint.
func (h *Handler) Handle(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	switch {
	case path == "/health":
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
	case path == "/assumptions":
		if !method(ctx, fasthttp.MethodGet) {
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, h.svc.Assumptions())
	case path == "/admin/reload":
		if !method(ctx, fasthttp.MethodPost) {
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, h.svc.Reload())
	case path == "/admin/export-xls":
		h.exportXLSX(ctx)
	case strings.HasPrefix(path, "/simulate"):
		h.simulate(ctx, strings.TrimPrefix(path, "/simulate"))
	default:
		writeError(ctx, fasthttp.StatusNotFound, "Not found: "+path, nil)
	}
}

func (h *Handler) simulate(ctx *fasthttp.RequestCtx, sub string) {
	var (
		delays []int
		run    func(*model.SimulationRequest) (any, error)
	)
	switch sub {
	case "", "/":
		run = func(r *model.SimulationRequest) (any, error) { return h.svc.Simulate(r) }
	case "/explain":
		run = func(r *model.SimulationRequest) (any, error) { return h.svc.Explain(r) }
	case "/timeline":
		run = func(r *model.SimulationRequest) (any, error) { return h.svc.Timeline(r) }
	case "/what-if":
		run = func(r *model.SimulationRequest) (any, error) { return h.svc.WhatIf(r, delays) }
	default:
		writeError(ctx, fasthttp.StatusNotFound, "Not found: /simulate"+sub, nil)
		return
	}

	if !method(ctx, fasthttp.MethodPost) {
		return
	}
	if sub == "/what-if" {
		var err error
		if delays, err = parseDelays(ctx.QueryArgs()); err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, err.Error(), nil)
			return
		}
	}

	var req model.SimulationRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error(), nil)
		return
	}

	resp, err := run(&req)
	if err != nil {
		if ve, ok := engine.IsValidation(err); ok {
			writeError(ctx, fasthttp.StatusBadRequest, "Validation failed", ve.Messages)
			return
		}
		h.logger.Error("simulation failed", zap.String("op", "handler.simulate"), zap.String("route", sub), zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, err.Error(), nil)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (h *Handler) exportXLSX(ctx *fasthttp.RequestCtx) {
	if !method(ctx, fasthttp.MethodGet) {
		return
	}
	if h.export == nil {
		writeError(ctx, fasthttp.StatusNotFound, "Usage log is disabled", nil)
		return
	}
	data, err := h.export.ExportXLSX()
	if err != nil {
		h.logger.Error("usage log export failed", zap.String("op", "handler.exportXLSX"), zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, "Export failed: "+err.Error(), nil)
		return
	}
	ctx.SetContentType(xlsxContentType)
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="usage.xlsx"`)
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(data)
}

// parseDelays accepts both repeated and comma-separated delays values.
func parseDelays(args *fasthttp.Args) ([]int, error) {
	var delays []int
	for _, raw := range args.PeekMulti("delays") {
		for _, part := range strings.Split(string(raw), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			d, err := strconv.Atoi(part)
			if err != nil {
				return nil, &badDelayError{value: part}
			}
			delays = append(delays, d)
		}
	}
	return delays, nil
}

type badDelayError struct {
	value string
}

func (e *badDelayError) Error() string {
	return "Invalid delays value: " + e.value
}

func method(ctx *fasthttp.RequestCtx, want string) bool {
	if string(ctx.Method()) == want {
		return true
	}
	writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed", nil)
	return false
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = fasthttp.StatusInternalServerError
		body, _ = json.Marshal(model.ErrorResponse{Status: status, Message: err.Error()})
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string, msgs []model.CalculationMessage) {
	writeJSON(ctx, status, model.ErrorResponse{
		Status:   status,
		Message:  message,
		Messages: msgs,
	})
}
