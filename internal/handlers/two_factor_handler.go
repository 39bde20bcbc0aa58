package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aitoolshub/internal/middleware"
	"aitoolshub/internal/models"
	"aitoolshub/internal/services"
)

const trustedDeviceCookieTTL = 30 * 24 * time.Hour

type TwoFactorHandler struct {
	twoFactor   *services.TwoFactorService
	userService services.UserService
	audit       *services.AuditService

	// Secure attribute on the trusted-device cookie, off for local dev
	secureCookies bool
}

func NewTwoFactorHandler(
	twoFactor *services.TwoFactorService,
	userService services.UserService,
	audit *services.AuditService,
	secureCookies bool,
) *TwoFactorHandler {
	return &TwoFactorHandler{
		twoFactor:     twoFactor,
		userService:   userService,
		audit:         audit,
		secureCookies: secureCookies,
	}
}

func (h *TwoFactorHandler) currentUser(c *gin.Context) *models.User {
	userID, _ := getUserAndRole(c)
	user, err := h.userService.GetUserByID(userID)
	if err != nil || user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return nil
	}
	return user
}

// @Summary      Send verification code
// @Description  Emails a 6-digit code to the authenticated user
// @Tags         TwoFactor
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  services.TwoFactorResult
// @Failure      429  {object}  services.TwoFactorResult
// @Failure      500  {object}  map[string]string
// @Router       /2fa/send [post]
func (h *TwoFactorHandler) SendCode(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}

	result, err := h.twoFactor.GenerateAndSendCode(c.Request.Context(), user)
	if err != nil {
		log.Printf("[2fa][send][err] user_id=%d err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification code"})
		return
	}
	if !result.Success {
		c.JSON(http.StatusTooManyRequests, result)
		return
	}

	h.audit.LogOtpSent(user, c.ClientIP(), c.Request.UserAgent())
	c.JSON(http.StatusOK, result)
}

// @Summary      Verify code
// @Description  Checks the submitted 6-digit code; optionally trusts this device for 30 days
// @Tags         TwoFactor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      422  {object}  services.TwoFactorResult
// @Failure      500  {object}  map[string]string
// @Router       /2fa/verify [post]
func (h *TwoFactorHandler) VerifyCode(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}

	var req struct {
		Code        string `json:"code" binding:"required"`
		TrustDevice bool   `json:"trust_device"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.twoFactor.VerifyCode(c.Request.Context(), user, req.Code)
	if err != nil {
		log.Printf("[2fa][verify][err] user_id=%d err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify code"})
		return
	}
	if !result.Success {
		h.audit.LogOtpFailed(user, c.ClientIP(), c.Request.UserAgent())
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	if err := h.userService.MarkTwoFactorVerified(user.ID, time.Now()); err != nil {
		log.Printf("[2fa][verify][err] mark verified user_id=%d err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify code"})
		return
	}

	deviceTrusted := false
	if req.TrustDevice {
		token, err := h.twoFactor.CreateTrustedDevice(user, c.ClientIP(), c.Request.UserAgent())
		if err != nil {
			log.Printf("[2fa][verify][err] trust device user_id=%d err=%v", user.ID, err)
		} else {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(middleware.TrustedDeviceCookie, token,
				int(trustedDeviceCookieTTL.Seconds()), "/", "", h.secureCookies, true)
			deviceTrusted = true
		}
	}

	h.audit.LogOtpVerified(user, c.ClientIP(), c.Request.UserAgent())
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"verified":       true,
		"message":        result.Message,
		"device_trusted": deviceTrusted,
	})
}

// @Summary      2FA status
// @Description  Reports whether the current session already satisfies 2FA
// @Tags         TwoFactor
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /2fa/status [get]
func (h *TwoFactorHandler) Status(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}

	trusted := false
	if token, err := c.Cookie(middleware.TrustedDeviceCookie); err == nil && token != "" {
		trusted = h.twoFactor.IsTrustedDevice(user, token)
	}
	verified := trusted ||
		(user.TwoFactorVerifiedAt != nil && time.Since(*user.TwoFactorVerifiedAt) < time.Hour)

	c.JSON(http.StatusOK, gin.H{
		"verified":       verified,
		"trusted_device": trusted,
	})
}

// @Summary      List trusted devices
// @Tags         TwoFactor
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /2fa/trusted-devices [get]
func (h *TwoFactorHandler) ListDevices(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	devices, err := h.twoFactor.ListTrustedDevices(user)
	if err != nil {
		log.Printf("[2fa][devices][err] user_id=%d err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list devices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

// @Summary      Revoke a trusted device
// @Tags         TwoFactor
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  int  true  "Device ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /2fa/trusted-devices/{id} [delete]
func (h *TwoFactorHandler) RevokeDevice(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	deviceID, ok := paramInt64(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid device id"})
		return
	}
	revoked, err := h.twoFactor.RevokeTrustedDevice(user, deviceID)
	if err != nil {
		log.Printf("[2fa][devices][err] revoke user_id=%d device_id=%d err=%v", user.ID, deviceID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke device"})
		return
	}
	if !revoked {
		c.JSON(http.StatusNotFound, gin.H{"message": "Device not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device revoked successfully."})
}

// @Summary      Revoke all trusted devices
// @Tags         TwoFactor
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Router       /2fa/trusted-devices [delete]
func (h *TwoFactorHandler) RevokeAllDevices(c *gin.Context) {
	user := h.currentUser(c)
	if user == nil {
		return
	}
	count, err := h.twoFactor.RevokeAllTrustedDevices(user)
	if err != nil {
		log.Printf("[2fa][devices][err] revoke all user_id=%d err=%v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke devices"})
		return
	}
	// the current device's cookie is now dead weight, drop it
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TrustedDeviceCookie, "", -1, "/", "", h.secureCookies, true)

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Successfully revoked %d trusted device(s).", count),
		"count":   count,
	})
}
