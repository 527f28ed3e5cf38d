// Package di contains dependency injection tokens for the tokens context.
package di

import (
	"github.com/redis/go-redis/v9"

	"github.com/fd1az/flashroute/business/tokens/app"
	"github.com/fd1az/flashroute/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Universe = di.NewToken[*app.Universe]("tokens.Universe")
)

// Private dependency tokens - internal to tokens module
var (
	Refresher   = di.NewToken[*app.Refresher]("tokens:refresher")
	RedisClient = di.NewToken[*redis.Client]("tokens:redis")
)

func GetUniverse(c di.ServiceRegistry) *app.Universe {
	return di.GetToken(c, Universe)
}

func GetRefresher(c di.ServiceRegistry) *app.Refresher {
	return di.GetToken(c, Refresher)
}

func GetRedisClient(c di.ServiceRegistry) *redis.Client {
	return di.GetToken(c, RedisClient)
}
