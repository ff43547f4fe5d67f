package ws

import (
	"time"

	"org-portal-backend/lib/querycache"
	wsclient "org-portal-backend/lib/ws/client"
	connectionhub "org-portal-backend/lib/ws/hub/connection-hub"
	"org-portal-backend/middleware"
	wsmodels "org-portal-backend/models/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func InitWs(app *fiber.App) {
	app.Use("", func(ctx *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(ctx) {
			return fiber.ErrUpgradeRequired
		}
		ctx.Locals("userID", middleware.GetUserID(ctx))
		return ctx.Next()
	})
	app.Get("/", websocket.New(pushHandler))
}

// @Summary System pushes
// @Tags Websocket
// @Description Notifications and query invalidations for the current user
// @Param   Authorization		header		string		true		"Authorization token"
// @Success 200 {object} wsmodels.ServerMessage
// @Failure 401
// @Failure 426
// @router /ws [get]
func pushHandler(c *websocket.Conn) {
	userID, _ := c.Locals("userID").(string)
	if userID == "" {
		_ = c.Close()
		return
	}
	client := wsclient.NewClient(userID, c)
	connectionhub.Instance.AddClient(userID, c)
	defer connectionhub.Instance.DeleteClient(userID, c)
	client.Dispatch()
}

// ListenInvalidations pushes every batch of stale cache keys to the clients.
// Per-user keys go to their owner only, shared keys to everyone
func ListenInvalidations(cache querycache.Provider, hub connectionhub.Provider) {
	cache.OnInvalidate(func(keys []string) {
		now := time.Now().Format(time.RFC3339)
		owned := map[string][]string{}
		shared := []string{}
		for _, key := range keys {
			if owner := querycache.KeyOwner(key); owner != "" {
				owned[owner] = append(owned[owner], key)
				continue
			}
			shared = append(shared, key)
		}
		for userID, userKeys := range owned {
			hub.SendMessage(wsmodels.ServerMessage{
				ToUserID: userID,
				Time:     now,
				Code:     wsmodels.CodeInvalidate,
				Keys:     userKeys,
			})
		}
		if len(shared) > 0 {
			hub.Broadcast(wsmodels.ServerMessage{
				Time: now,
				Code: wsmodels.CodeInvalidate,
				Keys: shared,
			})
		}
	})
}
