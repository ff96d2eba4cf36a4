package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	ruleNameKey ctxKey = iota
	surfaceKey
	formatKey
)

// Surfaces a request can enter through.
const (
	SurfaceCLI    = "cli"
	SurfaceMCP    = "mcp"
	SurfaceExport = "export"
)

// WithRuleName returns a context carrying the rule being processed.
func WithRuleName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ruleNameKey, name)
}

// WithSurface returns a context carrying the entry surface (cli|mcp|export).
func WithSurface(ctx context.Context, surface string) context.Context {
	return context.WithValue(ctx, surfaceKey, surface)
}

// WithFormat returns a context carrying the output format in play.
func WithFormat(ctx context.Context, format string) context.Context {
	return context.WithValue(ctx, formatKey, format)
}

// RuleName extracts the rule name from the context, or "" if absent.
func RuleName(ctx context.Context) string {
	v, _ := ctx.Value(ruleNameKey).(string)
	return v
}

// Surface extracts the entry surface from the context, or "" if absent.
func Surface(ctx context.Context) string {
	v, _ := ctx.Value(surfaceKey).(string)
	return v
}

// Format extracts the output format from the context, or "" if absent.
func Format(ctx context.Context) string {
	v, _ := ctx.Value(formatKey).(string)
	return v
}

// LogWith returns a logger enriched with correlation attributes from the
// context. Only non-empty values are added.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if name := RuleName(ctx); name != "" {
		logger = logger.With(slog.String("rule", name))
	}
	if s := Surface(ctx); s != "" {
		logger = logger.With(slog.String("surface", s))
	}
	if f := Format(ctx); f != "" {
		logger = logger.With(slog.String("format", f))
	}
	return logger
}

// CorrelationHandler wraps an slog.Handler, automatically injecting
// correlation attributes from the context into every log record.
// Use with slog.New(NewCorrelationHandler(inner)) so callers can use
// logger.InfoContext(ctx, ...) and the attributes appear automatically.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler with automatic
// correlation attribute injection.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	if v := RuleName(ctx); v != "" {
		r.AddAttrs(slog.String("rule", v))
	}
	if v := Surface(ctx); v != "" {
		r.AddAttrs(slog.String("surface", v))
	}
	if v := Format(ctx); v != "" {
		r.AddAttrs(slog.String("format", v))
	}
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}
