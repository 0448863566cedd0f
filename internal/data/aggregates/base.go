package aggregates

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	types "github.com/echobeat/catalog-seeder/internal/domain/catalog"
	"github.com/echobeat/catalog-seeder/internal/platform/dbctx"
	"github.com/echobeat/catalog-seeder/internal/platform/logger"
)

const tracerName = "github.com/echobeat/catalog-seeder/internal/data/aggregates"

type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
}

func (d BaseDeps) WithDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	return d
}

// ExecuteWrite runs fn as one transaction. The returned error is always nil or
// a *catalog.Error carrying op and subject.
func ExecuteWrite(ctx context.Context, deps BaseDeps, op, subject string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.WithDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "catalog.write"
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("catalog.subject", subject))

	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, subject, err)

	status := "success"
	if mapped != nil {
		status = string(types.CodeOf(mapped))
		if IsUniqueViolation(err) {
			deps.Hooks.IncConflict(op)
		}
		span.RecordError(mapped)
		span.SetStatus(codes.Error, status)
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}
