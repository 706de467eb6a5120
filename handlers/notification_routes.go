// handlers/notification_routes.go
package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"proof-of-hygiene/middleware"
	"proof-of-hygiene/services"

	"github.com/gofiber/fiber/v2"
)

const keepaliveInterval = 15 * time.Second

func SetupNotificationRoutes(app *fiber.App, verifier middleware.SessionVerifier, hub *services.NotificationHub) {
	app.Get("/notifications/stream", middleware.SSEAuthMiddleware(verifier), func(c *fiber.Ctx) error {
		userID := middleware.SessionFrom(c).UserID

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no") // nginx

		notifications, cancel := hub.Subscribe(userID)

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer cancel()

			ticker := time.NewTicker(keepaliveInterval)
			defer ticker.Stop()

			w.WriteString(":\n\n")
			if err := w.Flush(); err != nil {
				return
			}

			for {
				select {
				case n, ok := <-notifications:
					if !ok {
						return
					}
					payload, err := json.Marshal(n)
					if err != nil {
						log.Printf("SSE encode error for user %s: %v", userID, err)
						continue
					}
					fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload)
				case <-ticker.C:
					w.WriteString(":\n\n")
				}
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}
			}
		})
		return nil
	})
}
