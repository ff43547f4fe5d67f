// Package session owns the authenticated user state of a single request.
// A Context is created by Manager.Initialize and is gone after Teardown.
package session

import (
	"context"
	"time"

	"org-portal-backend/config"
	authutils "org-portal-backend/lib/utils/auth-utils"
	"org-portal-backend/models"
	dbmodels "org-portal-backend/models/db"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const localsKey = "session"

var (
	ErrInactiveUser = errors.New("user is inactive or deleted")
	ErrTokenType    = errors.New("unexpected token type")
)

type User struct {
	ID      string          `json:"id"`
	Email   string          `json:"email"`
	Name    string          `json:"name"`
	IsAdmin bool            `json:"is_admin"`
	Role    models.UserRole `json:"role"`
}

func NewUser(rec dbmodels.User) User {
	return User{
		ID:      rec.ID,
		Email:   rec.Email,
		Name:    rec.GetFullName(),
		IsAdmin: rec.Role.IsAdmin(),
		Role:    rec.Role,
	}
}

type Context struct {
	id   string
	user *User
}

// User returns nil for an unauthenticated context
func (c *Context) User() *User {
	if c == nil {
		return nil
	}
	return c.user
}

func (c *Context) ID() string {
	if c == nil {
		return ""
	}
	return c.id
}

// UserLoader resolves a user record by id, nil when it does not exist
type UserLoader interface {
	GetByID(userID string) (*dbmodels.User, error)
}

type Manager interface {
	// Start opens a session for a user that passed authentication
	Start(ctx context.Context, rec dbmodels.User) (sessionID string, err error)
	// Initialize resolves an access token into a live session context
	Initialize(ctx context.Context, token string) (*Context, error)
	// InitializeRefresh resolves a refresh token, access tokens are refused
	InitializeRefresh(ctx context.Context, token string) (*Context, error)
	Teardown(ctx context.Context, sessionID string) error
	TeardownUser(ctx context.Context, userID string) error
}

var Instance Manager

func NewManager(store Store, users UserLoader) Manager {
	return &manager{
		store: store,
		users: users,
	}
}

type manager struct {
	store Store
	users UserLoader
}

func (m *manager) Start(ctx context.Context, rec dbmodels.User) (string, error) {
	data := Data{
		ID:        uuid.New().String(),
		User:      NewUser(rec),
		CreatedAt: time.Now(),
	}
	ttl := time.Duration(config.Conf.Auth.JWTRefreshExpireInSec) * time.Second
	if err := m.store.Save(ctx, data, ttl); err != nil {
		return "", err
	}
	return data.ID, nil
}

func (m *manager) Initialize(ctx context.Context, token string) (*Context, error) {
	return m.initialize(ctx, token, authutils.AccessTokenType)
}

func (m *manager) InitializeRefresh(ctx context.Context, token string) (*Context, error) {
	return m.initialize(ctx, token, authutils.RefreshTokenType)
}

func (m *manager) initialize(ctx context.Context, token, tokenType string) (*Context, error) {
	claims, err := authutils.ParseToken(token, config.Conf.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}
	if authutils.ClaimString(claims, authutils.TokenTypeClaim) != tokenType {
		return nil, ErrTokenType
	}
	sessionID := authutils.ClaimString(claims, "sid")
	userID := authutils.ClaimString(claims, "sub")
	if sessionID == "" || userID == "" {
		return nil, errors.New("token has no session")
	}
	data, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if data.User.ID != userID {
		return nil, errors.New("session belongs to another user")
	}
	rec, err := m.users.GetByID(userID)
	if err != nil {
		return nil, errors.Wrap(err, "load session user")
	}
	if rec == nil || !rec.IsActive {
		return nil, ErrInactiveUser
	}
	// role may have changed since login
	user := NewUser(*rec)
	return &Context{id: sessionID, user: &user}, nil
}

func (m *manager) Teardown(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return m.store.Delete(ctx, sessionID)
}

func (m *manager) TeardownUser(ctx context.Context, userID string) error {
	count, err := m.store.DeleteUser(ctx, userID)
	if err != nil {
		return err
	}
	log.WithField("user_id", userID).Infof("sessions closed: %v", count)
	return nil
}

func SetFiberCtx(c *fiber.Ctx, sess *Context) {
	c.Locals(localsKey, sess)
}

// FromFiberCtx returns the request session, nil when the route is public
func FromFiberCtx(c *fiber.Ctx) *Context {
	sess, ok := c.Locals(localsKey).(*Context)
	if !ok {
		return nil
	}
	return sess
}

// NewContext builds a context directly, used by the functions API and tests
func NewContext(sessionID string, user *User) *Context {
	return &Context{id: sessionID, user: user}
}
