package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// LocalsKey is the fiber Locals key holding the ray id.
	LocalsKey = "ray_id"
	// Header carries the ray id in requests and responses.
	Header = "X-Ray-ID"
)

// New returns a middleware that assigns every request a ray id.
// A ray id supplied by the caller is reused.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(LocalsKey, id)
		c.Set(Header, id)
		return c.Next()
	}
}

// FromCtx returns the ray id of the request, or "".
func FromCtx(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalsKey).(string)
	return id
}
