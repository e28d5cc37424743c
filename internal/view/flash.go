package view

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	flashCookie    = "flash"
	flashLocalsKey = "view_flashes"
)

// Flash categories match the page styles.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashDanger  = "danger"
)

// Flash is a one-shot status message that survives a redirect.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// AddFlash queues a message for the next rendered page.
func AddFlash(c *fiber.Ctx, category, message string) {
	pending, _ := c.Locals(flashLocalsKey).([]Flash)
	pending = append(pending, Flash{Category: category, Message: message})
	c.Locals(flashLocalsKey, pending)

	raw, err := json.Marshal(pending)
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(5 * time.Minute),
	})
}

// ConsumeFlashes returns the messages queued by the previous response and by
// this request, and clears the cookie.
func ConsumeFlashes(c *fiber.Ctx) []Flash {
	var flashes []Flash
	if raw := c.Cookies(flashCookie); raw != "" {
		if decoded, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
			_ = json.Unmarshal(decoded, &flashes)
		}
		c.ClearCookie(flashCookie)
	}
	if pending, ok := c.Locals(flashLocalsKey).([]Flash); ok && len(pending) > 0 {
		flashes = append(flashes, pending...)
		c.Locals(flashLocalsKey, nil)
		c.ClearCookie(flashCookie)
	}
	return flashes
}
