package middleware

import "github.com/gin-gonic/gin"

// ContextActorKey is the gin context key holding the acting user's identity.
const ContextActorKey = "actor"

// ActorHeader is set by the upstream auth proxy.
const ActorHeader = "X-Actor"

// Actor extracts the acting user from the request header so mutations can be
// attributed in the slot history. Missing headers leave the actor empty;
// services fall back to "system".
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor := c.GetHeader(ActorHeader); actor != "" {
			c.Set(ContextActorKey, actor)
		}
		c.Next()
	}
}
