package db

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	dbmodels "org-portal-backend/models/db"
)

const notificationDedupIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_notification_dedup
	ON notifications (related_entity_id, notification_type, dedup_key)
	WHERE dedup_key <> ''`

func AutoMigrateDB() error {
	DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")
	log.Info("running migrations")
	models := []struct {
		name  string
		model any
	}{
		{"User", &dbmodels.User{}},
		{"Role", &dbmodels.Role{}},
		{"Workflow", &dbmodels.Workflow{}},
		{"WorkflowStep", &dbmodels.WorkflowStep{}},
		{"Request", &dbmodels.Request{}},
		{"Approval", &dbmodels.Approval{}},
		{"RequestOpinion", &dbmodels.RequestOpinion{}},
		{"RequestView", &dbmodels.RequestView{}},
		{"Workspace", &dbmodels.Workspace{}},
		{"WorkspaceMember", &dbmodels.WorkspaceMember{}},
		{"Project", &dbmodels.Project{}},
		{"Task", &dbmodels.Task{}},
		{"Subtask", &dbmodels.Subtask{}},
		{"TaskAttachment", &dbmodels.TaskAttachment{}},
		{"TaskComment", &dbmodels.TaskComment{}},
		{"Notification", &dbmodels.Notification{}},
		{"JobCheckpoint", &dbmodels.JobCheckpoint{}},
	}
	for _, item := range models {
		if err := DB.AutoMigrate(item.model); err != nil {
			return errors.Wrapf(err, "failed to migrate %s", item.name)
		}
	}
	if err := DB.Exec(notificationDedupIndex).Error; err != nil {
		return errors.Wrap(err, "failed to create notification dedup index")
	}
	log.Info("migrations finished")
	return nil
}
