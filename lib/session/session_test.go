package session

import (
	"context"
	"testing"

	"org-portal-backend/config"
	authutils "org-portal-backend/lib/utils/auth-utils"
	"org-portal-backend/models"
	dbmodels "org-portal-backend/models/db"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	users map[string]*dbmodels.User
}

func (f fakeUsers) GetByID(userID string) (*dbmodels.User, error) {
	return f.users[userID], nil
}

func newTestManager(t *testing.T, users map[string]*dbmodels.User) Manager {
	config.Conf = &config.Configuration{}
	config.Conf.Auth.JWTSecret = "secret"
	config.Conf.Auth.JWTExpireInSec = 60
	config.Conf.Auth.JWTRefreshExpireInSec = 600

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewManager(NewRedisStore(client), fakeUsers{users: users})
}

func testUser(id string, role models.UserRole) *dbmodels.User {
	rec := &dbmodels.User{
		Email:    id + "@example.com",
		FullName: "User " + id,
		Role:     role,
		IsActive: true,
	}
	rec.ID = id
	return rec
}

func TestInitializeAndTeardown(t *testing.T) {
	ctx := context.Background()
	admin := testUser("u1", models.AdminRole)
	m := newTestManager(t, map[string]*dbmodels.User{"u1": admin})

	sid, err := m.Start(ctx, *admin)
	require.NoError(t, err)
	token, err := authutils.GetToken(admin.ID, admin.Email, sid, true, admin.Role)
	require.NoError(t, err)

	sess, err := m.Initialize(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, sess.User())
	require.Equal(t, "u1", sess.User().ID)
	require.True(t, sess.User().IsAdmin)
	require.Equal(t, sid, sess.ID())

	require.NoError(t, m.Teardown(ctx, sid))
	_, err = m.Initialize(ctx, token)
	require.ErrorIs(t, err, ErrNotFound)

	// second teardown is a no-op
	require.NoError(t, m.Teardown(ctx, sid))
}

func TestInitializeRejectsInactiveUser(t *testing.T) {
	ctx := context.Background()
	rec := testUser("u2", models.EmployeeRole)
	m := newTestManager(t, map[string]*dbmodels.User{"u2": rec})

	sid, err := m.Start(ctx, *rec)
	require.NoError(t, err)
	token, err := authutils.GetToken(rec.ID, rec.Email, sid, false, rec.Role)
	require.NoError(t, err)

	rec.IsActive = false
	_, err = m.Initialize(ctx, token)
	require.ErrorIs(t, err, ErrInactiveUser)
}

func TestTeardownUserClosesAllSessions(t *testing.T) {
	ctx := context.Background()
	rec := testUser("u3", models.ManagerRole)
	m := newTestManager(t, map[string]*dbmodels.User{"u3": rec})

	tokens := []string{}
	for i := 0; i < 2; i++ {
		sid, err := m.Start(ctx, *rec)
		require.NoError(t, err)
		token, err := authutils.GetToken(rec.ID, rec.Email, sid, false, rec.Role)
		require.NoError(t, err)
		tokens = append(tokens, token)
	}

	require.NoError(t, m.TeardownUser(ctx, rec.ID))
	for _, token := range tokens {
		_, err := m.Initialize(ctx, token)
		require.Error(t, err)
	}
}

func TestNilContextHasNoUser(t *testing.T) {
	var sess *Context
	require.Nil(t, sess.User())
	require.Empty(t, sess.ID())
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	ctx := context.Background()
	rec := testUser("u4", models.EmployeeRole)
	m := newTestManager(t, map[string]*dbmodels.User{"u4": rec})

	sid, err := m.Start(ctx, *rec)
	require.NoError(t, err)
	access, err := authutils.GetToken(rec.ID, rec.Email, sid, false, rec.Role)
	require.NoError(t, err)
	refresh, err := authutils.GetRefreshToken(rec.ID, sid)
	require.NoError(t, err)

	_, err = m.Initialize(ctx, refresh)
	require.ErrorIs(t, err, ErrTokenType)
	_, err = m.InitializeRefresh(ctx, access)
	require.ErrorIs(t, err, ErrTokenType)

	sess, err := m.InitializeRefresh(ctx, refresh)
	require.NoError(t, err)
	require.Equal(t, sid, sess.ID())
}
