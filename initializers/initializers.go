package initializers

import (
	"context"
	"time"

	"org-portal-backend/config"
	"org-portal-backend/db"
	"org-portal-backend/fiberlog"
	approvalhandler "org-portal-backend/lib/approval"
	xlsexport "org-portal-backend/lib/export/xls"
	functionsclient "org-portal-backend/lib/functions/client"
	notificationhandler "org-portal-backend/lib/notification"
	notificationstore "org-portal-backend/lib/notification/store"
	"org-portal-backend/lib/querycache"
	"org-portal-backend/lib/rbac"
	"org-portal-backend/lib/reminder"
	requesthandler "org-portal-backend/lib/request"
	"org-portal-backend/lib/session"
	taskhandler "org-portal-backend/lib/task"
	usershandler "org-portal-backend/lib/users"
	usersstore "org-portal-backend/lib/users/store"
	"org-portal-backend/lib/utils/lock"
	workspacehandler "org-portal-backend/lib/workspace"
	"org-portal-backend/lib/ws"
	connectionhub "org-portal-backend/lib/ws/hub/connection-hub"
)

var LoggerConfig *fiberlog.Config

func InitAllServices(ctx context.Context) {
	LoggerConfig = InitLogger()
	config.InitConfig()
	InitDBConnection()
	redisClient := InitRedis(ctx)
	InitS3(ctx)
	InitMessaging()
	functionsclient.NewProvider()
	querycache.NewHandler(time.Duration(config.Conf.QueryCache.TTLSec) * time.Second)
	rbac.NewHandler()
	xlsexport.NewHandler()

	session.Instance = session.NewManager(session.NewRedisStore(redisClient), usersstore.NewInstance(db.DB))
	connectionhub.Init(notificationhandler.PendingStore(notificationstore.NewInstance(db.DB)))
	ws.ListenInvalidations(querycache.Instance, connectionhub.Instance)

	notificationhandler.NewHandler()
	usershandler.NewHandler(session.Instance)
	requesthandler.NewHandler(notificationhandler.Instance)
	approvalhandler.NewHandler(notificationhandler.Instance)
	workspacehandler.NewHandler(notificationhandler.Instance)
	taskhandler.NewHandler()
	reminder.NewHandler(lock.NewDistributed(redisClient))
	initWorkers(ctx)
}

func initWorkers(ctx context.Context) {
	if *config.Conf.Reminder.Enabled {
		reminder.Instance.Start(ctx)
	}
}
