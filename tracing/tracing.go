// Package tracing wraps listcache fetches in OpenTelemetry spans. Only the
// source round trips are traced; cache hits never reach a FetchFunc.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/unkn0wn-root/listcache"
)

const instrumentation = "github.com/unkn0wn-root/listcache/tracing"

type Config struct {
	// TracerProvider supplies the Tracer. When nil the global
	// otel.GetTracerProvider() is used.
	TracerProvider trace.TracerProvider
}

func (c Config) tracer() trace.Tracer {
	tp := c.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(instrumentation)
}

// WrapFetch returns fetch with one client span per attempt, named
// "listcache.fetch <resource>".
func WrapFetch[T any](cfg Config, resource string, fetch listcache.FetchFunc[T]) listcache.FetchFunc[T] {
	tracer := cfg.tracer()
	name := "listcache.fetch " + resource
	return func(ctx context.Context, p listcache.Params) (listcache.Page[T], error) {
		ctx, span := tracer.Start(ctx, name,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("listcache.resource", resource),
				attribute.Int("listcache.page", intParam(p, "page")),
				attribute.Int("listcache.limit", intParam(p, "limit")),
			))
		defer span.End()

		page, err := fetch(ctx, p)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return page, err
		}
		span.SetAttributes(
			attribute.Int("listcache.items", len(page.Items)),
			attribute.Int("listcache.total", page.Total),
		)
		span.SetStatus(codes.Ok, "")
		return page, nil
	}
}

func intParam(p listcache.Params, k string) int {
	if v, ok := p[k].(int); ok {
		return v
	}
	return 0
}
