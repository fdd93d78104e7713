package pkg

import (
	"go.uber.org/fx"

	"botrouter/pkg/cache"
	"botrouter/pkg/config"
	"botrouter/pkg/logger"
)

var Module = fx.Options(
	config.Module,
	logger.Module,
	cache.Module,
)
