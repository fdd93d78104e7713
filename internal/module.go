package internal

import (
	"go.uber.org/fx"

	"botrouter/internal/client"
)

var Module = fx.Options(
	client.Module,
)
