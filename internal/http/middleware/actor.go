package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// ActorHeader carries the identity of the caller. Authentication happens upstream;
	// this service only records who acted.
	ActorHeader = "X-User-ID"
	// ActorLocalKey is the Fiber locals key holding the actor.
	ActorLocalKey = "actor"
)

// Actor copies the caller identity from ActorHeader into the request locals.
// A missing header leaves the actor empty and write operations reject it downstream.
func Actor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(ActorLocalKey, strings.TrimSpace(c.Get(ActorHeader)))
		return c.Next()
	}
}

// ActorOf returns the actor stored by Actor.
func ActorOf(c *fiber.Ctx) string {
	a, _ := c.Locals(ActorLocalKey).(string)
	return a
}
