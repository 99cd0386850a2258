package extrato

import (
	"github.com/inkworks/atelier/internal/extrato/repository"
	"github.com/inkworks/atelier/internal/extrato/service"
	"go.uber.org/fx"
)

var Module = fx.Module("extrato.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
