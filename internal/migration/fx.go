package migration

import (
	auditdomain "github.com/inkworks/atelier/internal/audit/domain"
	"github.com/inkworks/atelier/internal/backup"
	"github.com/inkworks/atelier/internal/config"
	"github.com/inkworks/atelier/internal/extrato/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return RunMigrations(sqlDB)
		}

		// The versioned migrations are written for Postgres. For the
		// embedded engines used in local setups, derive the schema
		// from the models instead.
		return conn.AutoMigrate(
			&domain.Pagamento{},
			&domain.Sessao{},
			&domain.Comissao{},
			&domain.Gasto{},
			&domain.Extrato{},
			&domain.RunLog{},
			&backup.Backup{},
			&auditdomain.AuditLog{},
		)
	}),
)
