// Package di contains dependency injection tokens for the routing context.
package di

import (
	"github.com/fd1az/flashroute/business/routing/app"
	"github.com/fd1az/flashroute/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Runner = di.NewToken[*app.Runner]("routing.Runner")
)

// Private dependency tokens - internal to routing module
var (
	QuoteAdapter = di.NewToken[app.QuoteAdapter]("routing:quoteAdapter")
	Engine       = di.NewToken[*app.Engine]("routing:engine")
	Gate         = di.NewToken[*app.ProfitabilityGate]("routing:gate")
	Scheduler    = di.NewToken[*app.Scheduler]("routing:scheduler")
	Reporter     = di.NewToken[app.Reporter]("routing:reporter")
)

func GetRunner(c di.ServiceRegistry) *app.Runner {
	return di.GetToken(c, Runner)
}

func GetQuoteAdapter(c di.ServiceRegistry) app.QuoteAdapter {
	return di.GetToken(c, QuoteAdapter)
}

func GetEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, Engine)
}

func GetGate(c di.ServiceRegistry) *app.ProfitabilityGate {
	return di.GetToken(c, Gate)
}

func GetScheduler(c di.ServiceRegistry) *app.Scheduler {
	return di.GetToken(c, Scheduler)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
