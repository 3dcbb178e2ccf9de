package router

import (
	app "github.com/aifinder/aifinder-api/internal/application"
	"github.com/aifinder/aifinder-api/internal/container"
	"github.com/aifinder/aifinder-api/internal/infrastructure/mongodb"
	handlers "github.com/aifinder/aifinder-api/internal/interface/http"
	"github.com/aifinder/aifinder-api/internal/router/modules"
)

type Deps struct {
	UserSvc *app.UserService
	SubSvc  *app.SubscriptionService
	ToolSvc *app.ToolService
	MetaSvc *app.MetadataService
	CompSvc *app.ComplaintService
}

func buildDeps() Deps {
	cfg := container.GetConfig()
	log := container.GetLogger()

	userRepo := mongodb.NewUserRepository(container.GetUserStore())
	toolRepo := mongodb.NewToolRepository(container.GetToolStore())
	orderRepo := mongodb.NewOrderRepository(container.GetUserStore())

	return Deps{
		UserSvc: app.NewUserService(userRepo, container.GetRedis(), log),
		SubSvc: app.NewSubscriptionService(
			userRepo,
			orderRepo,
			container.GetGateway(),
			container.GetRabbitPub(),
			log,
		),
		ToolSvc: app.NewToolService(
			toolRepo,
			userRepo,
			container.GetES(),
			cfg.ESToolsIndex,
			container.GetGCS(),
			cfg.GCSBucket,
			log,
		),
		MetaSvc: app.NewMetadataService(container.GetGroq(), container.GetPageFetcher(), log),
		CompSvc: app.NewComplaintService(container.GetRabbitPub(), cfg.ComplaintRecipient, log),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	log := container.GetLogger()
	deps := buildDeps()

	r.Add(modules.NewUserModule(handlers.NewUserHandler(deps.UserSvc, log)))
	r.Add(modules.NewSubscriptionModule(handlers.NewSubscriptionHandler(deps.SubSvc, log)))
	r.Add(modules.NewToolModule(handlers.NewToolHandler(deps.ToolSvc, log)))
	r.Add(modules.NewFolderModule(handlers.NewFolderHandler(deps.ToolSvc, log)))
	r.Add(modules.NewMetadataModule(handlers.NewMetadataHandler(deps.MetaSvc, log)))
	r.Add(modules.NewComplainModule(handlers.NewComplainHandler(deps.CompSvc, log)))
	r.Add(modules.NewDebugModule())
}
