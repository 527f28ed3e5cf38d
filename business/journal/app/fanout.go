package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/flashroute/business/journal/domain"
	routingDomain "github.com/fd1az/flashroute/business/routing/domain"
	"github.com/fd1az/flashroute/internal/apperror"
)

const meterName = "github.com/fd1az/flashroute/business/journal/app"

// Fanout writes every record to all stores. One failing store never
// stops the others.
type Fanout struct {
	stores  []Store
	symbol  func(common.Address) string
	timeout time.Duration

	writes   metric.Int64Counter
	failures metric.Int64Counter
}

// NewFanout creates a fanout. symbol may be nil.
func NewFanout(stores []Store, symbol func(common.Address) string, timeout time.Duration) (*Fanout, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	f := &Fanout{stores: stores, symbol: symbol, timeout: timeout}

	meter := otel.Meter(meterName)
	var err error
	f.writes, err = meter.Int64Counter("journal_writes_total",
		metric.WithDescription("Cycle records written per store"))
	if err != nil {
		return nil, err
	}
	f.failures, err = meter.Int64Counter("journal_write_failures_total",
		metric.WithDescription("Cycle record writes that failed per store"))
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Record implements the routing journal port. The returned error joins
// every store failure.
func (f *Fanout) Record(ctx context.Context, report *routingDomain.CycleReport) error {
	if report == nil || len(f.stores) == 0 {
		return nil
	}
	rec := domain.FromReport(report, f.symbol)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var errs []error
	for _, s := range f.stores {
		attrs := metric.WithAttributes(attribute.String("store", s.Name()))
		if err := s.Insert(ctx, rec); err != nil {
			f.failures.Add(ctx, 1, attrs)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		f.writes.Add(ctx, 1, attrs)
	}

	if len(errs) > 0 {
		return apperror.New(apperror.CodeJournalWriteFailed,
			apperror.WithCause(errors.Join(errs...)),
			apperror.WithContext(fmt.Sprintf("cycle %d", rec.CycleID)))
	}
	return nil
}

// Recent reads from the first store that supports queries.
func (f *Fanout) Recent(ctx context.Context, limit int) ([]domain.CycleRecord, error) {
	for _, s := range f.stores {
		if q, ok := s.(Querier); ok {
			return q.Recent(ctx, limit)
		}
	}
	return nil, apperror.New(apperror.CodeJournalUnavailable, apperror.WithContext("no queryable store"))
}

// Stores lists the configured store names.
func (f *Fanout) Stores() []string {
	out := make([]string, len(f.stores))
	for i, s := range f.stores {
		out[i] = s.Name()
	}
	return out
}

// Close closes every store.
func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
