package rest

import (
	"context"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/logging"
	"github.com/dmitrijs2005/teamboard/internal/server/models"
	"github.com/dmitrijs2005/teamboard/internal/server/services"
	"github.com/gin-gonic/gin"
)

// AuthService is the session API the handlers depend on.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID string) error
	ValidateAccessToken(token string) (string, error)
}

// SettingsService is the preference API the handlers depend on.
type SettingsService interface {
	GetTeamSetting(ctx context.Context, userID, teamID string) (*models.NotificationSetting, error)
	UpdateTeamSetting(ctx context.Context, userID, teamID string, p services.TeamSettingPatch) (*models.NotificationSetting, error)
	GetPersonalSetting(ctx context.Context, userID string) (*models.PersonalNotificationSetting, error)
	UpdatePersonalSetting(ctx context.Context, userID string, p services.PersonalSettingPatch) (*models.PersonalNotificationSetting, error)
	RegisterDevice(ctx context.Context, userID, address string) error
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(auth AuthService, settings SettingsService, log logging.Logger, requestTimeout time.Duration) *gin.Engine {
	h := &Handlers{auth: auth, settings: settings, log: log.With("module", "rest")}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log), requestTimeoutMiddleware(requestTimeout))

	r.GET("/healthz", h.Health)

	a := r.Group("/auth")
	a.POST("/register", h.Register)
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)

	authorized := r.Group("/")
	authorized.Use(AuthMiddleware(auth))
	authorized.POST("/auth/logout-all", h.LogoutAll)
	authorized.GET("/me/notification-settings", h.GetPersonalSetting)
	authorized.PUT("/me/notification-settings", h.UpdatePersonalSetting)
	authorized.PUT("/me/device", h.RegisterDevice)
	authorized.GET("/teams/:teamId/notification-settings", h.GetTeamSetting)
	authorized.PUT("/teams/:teamId/notification-settings", h.UpdateTeamSetting)

	return r
}
