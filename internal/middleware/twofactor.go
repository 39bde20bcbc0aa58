package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aitoolshub/internal/services"
)

const (
	// TrustedDeviceCookie carries the plaintext device token; only its
	// sha256 hash is ever stored.
	TrustedDeviceCookie = "trusted_device_token"

	// how long a successful code verification keeps satisfying the gate
	verifiedWindow = time.Hour
)

// RequireTwoFactor guards sensitive routes. A request passes when it
// presents a valid trusted-device cookie, or when the user verified a
// code within the last hour. Everything else gets a 403 telling the
// client to start the 2FA flow.
func RequireTwoFactor(users services.UserService, twoFactor *services.TwoFactorService) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("user_id")
		if !ok {
			// unauthenticated requests are someone else's problem
			c.Next()
			return
		}
		userID, ok := v.(int)
		if !ok {
			c.Next()
			return
		}

		user, err := users.GetUserByID(userID)
		if err != nil || user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
			return
		}

		if token, err := c.Cookie(TrustedDeviceCookie); err == nil && token != "" {
			if twoFactor.IsTrustedDevice(user, token) {
				c.Next()
				return
			}
		}

		if user.TwoFactorVerifiedAt != nil && time.Since(*user.TwoFactorVerifiedAt) < verifiedWindow {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"message":      "Two-factor authentication required.",
			"requires_2fa": true,
		})
	}
}
