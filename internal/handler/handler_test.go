package handler

import (
	"errors"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"pension-forecast/internal/engine"
	"pension-forecast/internal/model"
	"pension-forecast/internal/tables"
)

const referenceBody = `{"age":28,"sex":"k","gross_salary":8500,"start_year":2020,"retire_year":2065,"quarter_award":3}`

func newHandler(export Exporter) *Handler {
	snap := tables.Empty()
	snap.Assumptions.SickLeaveDays["K"] = 36.5
	cfg := engine.DefaultConfig()
	cfg.Projection.Rates.WageGrowthDefault = 0
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	e := engine.New(cfg, tables.NewStaticStore(snap), nil, engine.WithClock(func() time.Time { return now }))
	return New(e, export, nil)
}

func do(h *Handler, method, uri, body string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	h.Handle(&ctx)
	return &ctx
}

func TestSimulateRoute(t *testing.T) {
	ctx := do(newHandler(nil), fasthttp.MethodPost, "/simulate", referenceBody)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var res model.SimulationResult
	if err := json.Unmarshal(ctx.Response.Body(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Benefit.Nominal != 3359.88 || res.Benefit.Real != 1029.99 {
		t.Fatalf("unexpected benefit %+v", res.Benefit)
	}
	if string(ctx.Response.Header.ContentType()) != "application/json" {
		t.Fatalf("unexpected content type %s", ctx.Response.Header.ContentType())
	}
}

func TestSimulateValidationReturns400(t *testing.T) {
	body := `{"age":28,"sex":"X","gross_salary":8500,"start_year":2020,"retire_year":2010}`
	ctx := do(newHandler(nil), fasthttp.MethodPost, "/simulate", body)
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("expected 400, got %d", ctx.Response.StatusCode())
	}
	var er model.ErrorResponse
	if err := json.Unmarshal(ctx.Response.Body(), &er); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if er.Status != 400 || len(er.Messages) != 2 {
		t.Fatalf("expected 2 validation messages, got %+v", er)
	}
	if er.Messages[0].Code != model.CodeInvalidSex || er.Messages[1].Code != model.CodeInvalidYearRange {
		t.Fatalf("unexpected codes %+v", er.Messages)
	}
}

func TestInvalidJSON(t *testing.T) {
	ctx := do(newHandler(nil), fasthttp.MethodPost, "/simulate", "{")
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("expected 400, got %d", ctx.Response.StatusCode())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ctx := do(newHandler(nil), fasthttp.MethodGet, "/simulate", "")
	if ctx.Response.StatusCode() != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", ctx.Response.StatusCode())
	}
}

func TestExplainRoute(t *testing.T) {
	ctx := do(newHandler(nil), fasthttp.MethodPost, "/simulate/explain", referenceBody)
	var ex model.Explanation
	if err := json.Unmarshal(ctx.Response.Body(), &ex); err != nil {
		t.Fatalf("decode explanation: %v", err)
	}
	if len(ex.Years) != 45 || ex.BenefitBase != 806371.2 {
		t.Fatalf("unexpected explanation: %d years, base %v", len(ex.Years), ex.BenefitBase)
	}
}

func TestTimelineRoute(t *testing.T) {
	body := `{"age":28,"sex":"M","gross_salary":8500,"start_year":2020,"retire_year":2025}`
	ctx := do(newHandler(nil), fasthttp.MethodPost, "/simulate/timeline", body)
	var points []model.TimelinePoint
	if err := json.Unmarshal(ctx.Response.Body(), &points); err != nil {
		t.Fatalf("decode timeline: %v", err)
	}
	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}
}

func TestWhatIfRouteParsesDelays(t *testing.T) {
	ctx := do(newHandler(nil), fasthttp.MethodPost, "/simulate/what-if?delays=0&delays=5,2", referenceBody)
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var res model.WhatIfResult
	if err := json.Unmarshal(ctx.Response.Body(), &res); err != nil {
		t.Fatalf("decode what-if: %v", err)
	}
	if len(res.Scenarios) != 3 || res.Scenarios[2].DelayYears != 5 {
		t.Fatalf("unexpected scenarios %+v", res.Scenarios)
	}

	ctx = do(newHandler(nil), fasthttp.MethodPost, "/simulate/what-if?delays=abc", referenceBody)
	if ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("expected 400 for bad delays, got %d", ctx.Response.StatusCode())
	}
}

func TestAssumptionsAndReload(t *testing.T) {
	h := newHandler(nil)
	ctx := do(h, fasthttp.MethodGet, "/assumptions", "")
	var v model.AssumptionsView
	if err := json.Unmarshal(ctx.Response.Body(), &v); err != nil {
		t.Fatalf("decode assumptions: %v", err)
	}
	if v.SickLeaveDays["K"] != 36.5 {
		t.Fatalf("unexpected sick leave days %v", v.SickLeaveDays)
	}

	ctx = do(h, fasthttp.MethodPost, "/admin/reload", "")
	var report model.ReloadReport
	if err := json.Unmarshal(ctx.Response.Body(), &report); err != nil {
		t.Fatalf("decode reload report: %v", err)
	}
	if !report.Assumptions.Loaded {
		t.Fatalf("expected assumptions loaded, got %+v", report.Assumptions)
	}
}

type fakeExporter struct {
	data []byte
	err  error
}

func (f fakeExporter) ExportXLSX() ([]byte, error) { return f.data, f.err }

func TestExportXLSX(t *testing.T) {
	ctx := do(newHandler(nil), fasthttp.MethodGet, "/admin/export-xls", "")
	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("expected 404 without exporter, got %d", ctx.Response.StatusCode())
	}

	ctx = do(newHandler(fakeExporter{data: []byte("PK")}), fasthttp.MethodGet, "/admin/export-xls", "")
	if ctx.Response.StatusCode() != fasthttp.StatusOK || string(ctx.Response.Body()) != "PK" {
		t.Fatalf("unexpected export response %d %q", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	if string(ctx.Response.Header.ContentType()) != xlsxContentType {
		t.Fatalf("unexpected content type %s", ctx.Response.Header.ContentType())
	}

	ctx = do(newHandler(fakeExporter{err: errors.New("boom")}), fasthttp.MethodGet, "/admin/export-xls", "")
	if ctx.Response.StatusCode() != fasthttp.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", ctx.Response.StatusCode())
	}
}

func TestHealthAndNotFound(t *testing.T) {
	h := newHandler(nil)
	if ctx := do(h, fasthttp.MethodGet, "/health", ""); ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("expected 200 from health, got %d", ctx.Response.StatusCode())
	}
	if ctx := do(h, fasthttp.MethodGet, "/nope", ""); ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("expected 404, got %d", ctx.Response.StatusCode())
	}
}

func TestUnknownSimulateRouteReturns404(t *testing.T) {
	h := newHandler(nil)
	cases := []struct {
		name, method, body string
	}{
		{"get without body", fasthttp.MethodGet, ""},
		{"post with broken body", fasthttp.MethodPost, "{"},
		{"post with valid body", fasthttp.MethodPost, referenceBody},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := do(h, tc.method, "/simulate/foo", tc.body)
			if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
				t.Fatalf("expected 404, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
			}
		})
	}
}
