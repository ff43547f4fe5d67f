package usershandler

import (
	"context"
	"time"

	"org-portal-backend/db"
	"org-portal-backend/lib/session"
	rolestore "org-portal-backend/lib/users/role-store"
	usersstore "org-portal-backend/lib/users/store"
	authutils "org-portal-backend/lib/utils/auth-utils"
	authapimodels "org-portal-backend/models/api/auth"
	dbmodels "org-portal-backend/models/db"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrUnauthorized = errors.New("unauthorized")

type Provider interface {
	Login(ctx context.Context, email, password string) (authapimodels.JWTResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (authapimodels.JWTResponse, error)
	Logout(ctx context.Context, sessionID string) error
	GetByID(userID string) (*dbmodels.User, error)
	AssignRole(ctx context.Context, userID, roleID string) (hMsg string, err error)
	SoftDelete(ctx context.Context, userID string) (hMsg string, err error)
	ListRoles() ([]dbmodels.Role, error)
}

var Instance Provider

func NewHandler(sessions session.Manager) {
	Instance = New(usersstore.NewInstance(db.DB), rolestore.NewInstance(db.DB), sessions)
}

func New(userStore usersstore.Provider, roleStore rolestore.Provider, sessions session.Manager) Provider {
	return &impl{
		userStore: userStore,
		roleStore: roleStore,
		sessions:  sessions,
	}
}

type impl struct {
	userStore usersstore.Provider
	roleStore rolestore.Provider
	sessions  session.Manager
}

func (i impl) Login(ctx context.Context, email, password string) (authapimodels.JWTResponse, error) {
	logger := log.WithField("email", email)
	rec, err := i.userStore.FindByEmail(email)
	if err != nil {
		logger.WithError(err).Error("user lookup failed")
		return authapimodels.JWTResponse{}, err
	}
	if rec == nil || !rec.IsActive || !authutils.CheckPassword(rec.Password, password) {
		return authapimodels.JWTResponse{}, ErrUnauthorized
	}
	sessionID, err := i.sessions.Start(ctx, *rec)
	if err != nil {
		logger.WithError(err).Error("session start failed")
		return authapimodels.JWTResponse{}, err
	}
	resp, err := i.issueTokens(*rec, sessionID)
	if err != nil {
		return authapimodels.JWTResponse{}, err
	}
	err = i.userStore.Update(rec.ID, map[string]interface{}{"last_login": time.Now()})
	if err != nil {
		logger.WithError(err).Warn("last login update failed")
	}
	return resp, nil
}

func (i impl) RefreshToken(ctx context.Context, refreshToken string) (authapimodels.JWTResponse, error) {
	sess, err := i.sessions.InitializeRefresh(ctx, refreshToken)
	if err != nil {
		return authapimodels.JWTResponse{}, ErrUnauthorized
	}
	rec, err := i.userStore.GetByID(sess.User().ID)
	if err != nil {
		return authapimodels.JWTResponse{}, err
	}
	if rec == nil {
		return authapimodels.JWTResponse{}, ErrUnauthorized
	}
	return i.issueTokens(*rec, sess.ID())
}

func (i impl) Logout(ctx context.Context, sessionID string) error {
	return i.sessions.Teardown(ctx, sessionID)
}

func (i impl) GetByID(userID string) (*dbmodels.User, error) {
	return i.userStore.GetByID(userID)
}

func (i impl) AssignRole(ctx context.Context, userID, roleID string) (hMsg string, err error) {
	logger := log.
		WithField("user_id", userID).
		WithField("role_id", roleID)
	rec, err := i.userStore.GetByID(userID)
	if err != nil {
		return "", errors.Wrap(err, "user lookup failed")
	}
	if rec == nil {
		return "المستخدم غير موجود", nil
	}
	role, err := i.roleStore.GetByID(roleID)
	if err != nil {
		return "", errors.Wrap(err, "role lookup failed")
	}
	if role == nil {
		return "الدور غير موجود", nil
	}
	updMap := map[string]interface{}{
		"role_id": role.ID,
	}
	if role.Code.IsValid() {
		updMap["role"] = role.Code
	}
	err = i.userStore.Update(userID, updMap)
	if err != nil {
		return "", errors.Wrap(err, "role assign failed")
	}
	logger.Info("role assigned")
	return "", nil
}

func (i impl) SoftDelete(ctx context.Context, userID string) (hMsg string, err error) {
	rec, err := i.userStore.GetByID(userID)
	if err != nil {
		return "", errors.Wrap(err, "user lookup failed")
	}
	if rec == nil {
		return "المستخدم غير موجود", nil
	}
	if err = i.userStore.SoftDelete(userID); err != nil {
		return "", errors.Wrap(err, "user soft delete failed")
	}
	if err = i.sessions.TeardownUser(ctx, userID); err != nil {
		// user is already inactive, Initialize rejects the remaining sessions
		log.WithField("user_id", userID).WithError(err).Warn("session teardown failed")
	}
	return "", nil
}

func (i impl) ListRoles() ([]dbmodels.Role, error) {
	return i.roleStore.List()
}

func (i impl) issueTokens(rec dbmodels.User, sessionID string) (authapimodels.JWTResponse, error) {
	token, err := authutils.GetToken(rec.ID, rec.Email, sessionID, rec.Role.IsAdmin(), rec.Role)
	if err != nil {
		return authapimodels.JWTResponse{}, errors.Wrap(err, "token issue failed")
	}
	refreshToken, err := authutils.GetRefreshToken(rec.ID, sessionID)
	if err != nil {
		return authapimodels.JWTResponse{}, errors.Wrap(err, "refresh token issue failed")
	}
	return authapimodels.JWTResponse{
		Token:        token,
		RefreshToken: refreshToken,
	}, nil
}
