// Package di contains dependency injection tokens for the journal context.
package di

import (
	"github.com/fd1az/flashroute/business/journal/app"
	"github.com/fd1az/flashroute/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Fanout = di.NewToken[*app.Fanout]("journal.Fanout")
)

func GetFanout(c di.ServiceRegistry) *app.Fanout {
	return di.GetToken(c, Fanout)
}
