package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"org-portal-backend/config"
	functionsapi "org-portal-backend/controllers/functions"
	apiv1 "org-portal-backend/controllers/v1"
	"org-portal-backend/fiberlog"
	"org-portal-backend/initializers"
	"org-portal-backend/lib/ws"
	"org-portal-backend/middleware"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberRecover "github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"
)

// jsonBodyLimit applies to every api call except attachment uploads
const jsonBodyLimit = 1024 * 1024

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	initializers.InitAllServices(ctx)

	app := fiber.New(fiber.Config{
		BodyLimit: config.Conf.App.BodyLimit,
	})
	app.Use(fiberRecover.New())

	swaggerCfg := swagger.Config{
		Path:     "/swagger",
		FilePath: config.Conf.App.SwaggerPath,
	}
	app.Use(swagger.New(swaggerCfg))

	//api
	apiV1 := fiber.New()
	apiV1.Use(fiberlog.New(*initializers.LoggerConfig))
	app.Mount("/api/v1", apiV1)
	apiV1.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, DELETE, PUT",
	}))
	apiV1.Use(middleware.WithBodyLimit(jsonBodyLimit))
	if config.Conf.App.ErrNotifyAddr != "" {
		apiV1.Use(middleware.ErrNotify(config.Conf.App.ErrNotifyAddr))
	}
	apiv1.InitAuthApiRouters(apiV1)

	apiV1.Use([]string{"/requests", "/workspaces", "/tasks", "/notifications", "/users"},
		middleware.AuthorizationRequired(), middleware.RbacMiddleware())
	apiv1.InitRequestsApiRouters(apiV1)
	apiv1.InitWorkspacesApiRouters(apiV1)
	apiv1.InitTasksApiRouters(apiV1)
	apiv1.InitNotificationsApiRouters(apiV1)
	apiv1.InitUsersApiRouters(apiV1)

	//functions
	functions := fiber.New()
	functions.Use(fiberlog.New(*initializers.LoggerConfig))
	app.Mount("/functions/v1", functions)
	functionsapi.InitFunctionsApiRouters(functions)

	//push
	wsApp := fiber.New()
	app.Mount("/ws", wsApp)
	wsApp.Use(middleware.WsAuthorizationRequired())
	ws.InitWs(wsApp)

	// gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	wg := sync.WaitGroup{}
	go func() {
		<-c
		wg.Add(1)
		defer wg.Done()
		log.Info("gracefully shutting down")
		cancel()
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		}
		time.Sleep(time.Second)
		log.Info("graceful shutdown finished")
	}()

	// run HTTP server
	if err := app.Listen(fmt.Sprintf("%s:%d", config.Conf.App.ListenAddr, config.Conf.App.Port)); err != nil {
		log.Fatal(err)
	}

	wg.Wait()
	log.Info("HTTP server stopped")
}
