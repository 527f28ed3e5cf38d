// Package di contains dependency injection tokens for the execution context.
package di

import (
	"github.com/fd1az/flashroute/business/execution/app"
	"github.com/fd1az/flashroute/business/execution/infra/ethereum"
	"github.com/fd1az/flashroute/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Dispatcher = di.NewToken[*app.Dispatcher]("execution.Dispatcher")
)

// Private dependency tokens - internal to execution module
var (
	Executor = di.NewToken[*ethereum.Executor]("execution:executor")
)

func GetDispatcher(c di.ServiceRegistry) *app.Dispatcher {
	return di.GetToken(c, Dispatcher)
}

func GetExecutor(c di.ServiceRegistry) *ethereum.Executor {
	return di.GetToken(c, Executor)
}
