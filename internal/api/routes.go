package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/satriahrh/voxrelay/domain/entities"
	"github.com/satriahrh/voxrelay/domain/repositories"
	"github.com/satriahrh/voxrelay/internal/auth"
	"github.com/satriahrh/voxrelay/internal/websocket"
)

// RouterConfig carries the admin auth settings. Auth is disabled when
// AdminSecret is empty; the override API is then open, matching deployments
// on closed networks.
type RouterConfig struct {
	AdminSecret []byte
	TokenTTL    time.Duration
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, overrides repositories.OverrideRepository, rc RouterConfig, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "running",
			"service": "voxrelay",
		})
	})

	e.POST("/override", func(c echo.Context) error {
		return setOverride(c, overrides, rc, logger)
	})

	e.GET("/status", func(c echo.Context) error {
		return getStatus(c, overrides, logger)
	})

	if len(rc.AdminSecret) > 0 {
		e.POST("/auth/token", func(c echo.Context) error {
			return issueToken(c, rc, logger)
		})
	}

	// WebSocket relay endpoint
	e.GET("/ws", func(c echo.Context) error {
		return websocket.ServeWS(hub, c, logger)
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func setOverride(c echo.Context, overrides repositories.OverrideRepository, rc RouterConfig, logger *zap.Logger) error {
	if len(rc.AdminSecret) > 0 {
		if err := checkBearer(c, rc.AdminSecret); err != nil {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: "Valid admin token required",
			})
		}
	}

	var req OverrideRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind override request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_session_id",
			Message: "session_id is required",
		})
	}
	if !entities.ValidPriority(req.Priority) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_priority",
			Message: "priority must be between 1 and 10",
		})
	}

	ts := float64(time.Now().UnixNano()) / 1e9
	if err := overrides.SetPriority(c.Request().Context(), req.SessionID, req.Priority, ts); err != nil {
		logger.Error("Failed to set override",
			zap.String("sessionID", req.SessionID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "storage_error",
			Message: "Failed to persist override",
		})
	}

	logger.Info("Override set",
		zap.String("sessionID", req.SessionID),
		zap.Int("priority", req.Priority))

	return c.JSON(http.StatusOK, OverrideResponse{
		OK:        true,
		SessionID: req.SessionID,
		Priority:  req.Priority,
	})
}

func getStatus(c echo.Context, overrides repositories.OverrideRepository, logger *zap.Logger) error {
	list, err := overrides.List(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list overrides", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "storage_error",
			Message: "Failed to read overrides",
		})
	}

	if list == nil {
		list = []entities.PriorityOverride{}
	}
	return c.JSON(http.StatusOK, StatusResponse{Overrides: list})
}

func issueToken(c echo.Context, rc RouterConfig, logger *zap.Logger) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if subtle.ConstantTimeCompare([]byte(req.Secret), rc.AdminSecret) != 1 {
		logger.Warn("Admin token request with wrong secret")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid admin secret",
		})
	}

	token, err := auth.GenerateAdminToken(rc.AdminSecret, rc.TokenTTL)
	if err != nil {
		logger.Error("Failed to generate admin token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate token",
		})
	}

	return c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(rc.TokenTTL),
	})
}

func checkBearer(c echo.Context, secret []byte) error {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return echo.ErrUnauthorized
	}
	if _, err := auth.ValidateToken(secret, token); err != nil {
		return err
	}
	return nil
}
