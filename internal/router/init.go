package router

import (
	"github.com/crmhq/crm-server/internal/application"
	"github.com/crmhq/crm-server/internal/container"
	pginfra "github.com/crmhq/crm-server/internal/infrastructure/postgres"
	handlers "github.com/crmhq/crm-server/internal/interface/http"
	"github.com/crmhq/crm-server/internal/router/modules"
)

func buildAccountHandler() *handlers.AuthHandler {
	cfg := container.GetConfig()

	repo := pginfra.NewUserRepository(container.GetPGPool())
	var pub application.Publisher
	if rp := container.GetRabbitPub(); rp != nil {
		pub = rp
	}
	svc := application.NewAccountService(
		repo,
		pub,
		container.GetRedis(),
		container.GetJWT(),
		container.GetLogger(),
		cfg.BaseURL,
		cfg.MailSendEnabled,
	)
	return handlers.NewAuthHandler(svc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
}

func buildCustomerHandler() *handlers.CustomerHandler {
	cfg := container.GetConfig()

	repo := pginfra.NewCustomerRepository(container.GetPGPool())
	svc := application.NewCustomerService(
		repo,
		container.GetLogger(),
		container.GetES(),
		cfg.ESCustomersIndex,
	)
	return handlers.NewCustomerHandler(svc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
}

// InitModules wires up all feature modules and registers them with the
// router registry. Call once during startup, after the container is filled.
func InitModules(r *Registry) {
	r.Add(modules.NewAuthModule(buildAccountHandler()))
	r.Add(modules.NewCRMModule(buildCustomerHandler()))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
