package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

const (
	// DraftIDKey menyimpan id draf surat di session dan di locals.
	DraftIDKey = "draft_id"

	// DraftHeader lets API clients without cookies pick their draft.
	DraftHeader = "X-Draft-ID"
)

// NewDraftSessionStore menyimpan id draf di cookie. Cookie hanya HTTPS di
// production.
func NewDraftSessionStore(secure bool) *session.Store {
	return session.New(session.Config{
		KeyLookup:      "cookie:surat_draft",
		CookieSecure:   secure,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})
}

// RequireDraft memastikan setiap request punya id draf. Draf baru dibuat
// untuk pengunjung tanpa session.
func RequireDraft(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := c.Get(DraftHeader); id != "" {
			if _, err := uuid.Parse(id); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, DraftHeader+" must be a UUID")
			}
			c.Locals(DraftIDKey, id)
			return c.Next()
		}

		sess, err := store.Get(c)
		if err != nil {
			return err
		}

		id, ok := sess.Get(DraftIDKey).(string)
		if !ok || id == "" {
			id = uuid.NewString()
			sess.Set(DraftIDKey, id)
			if err := sess.Save(); err != nil {
				return err
			}
		}

		c.Locals(DraftIDKey, id)
		return c.Next()
	}
}

// DraftID returns the draft id set by RequireDraft.
func DraftID(c *fiber.Ctx) string {
	id, _ := c.Locals(DraftIDKey).(string)
	return id
}
