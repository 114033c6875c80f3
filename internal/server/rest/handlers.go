package rest

import (
	"net/http"

	"github.com/dmitrijs2005/teamboard/internal/common"
	"github.com/dmitrijs2005/teamboard/internal/logging"
	"github.com/dmitrijs2005/teamboard/internal/server/models"
	"github.com/dmitrijs2005/teamboard/internal/server/services"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	auth     AuthService
	settings SettingsService
	log      logging.Logger
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type deviceRequest struct {
	Address string `json:"address" binding:"required"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type teamSettingResponse struct {
	TeamID             string `json:"teamId"`
	TeamAlarmEnabled   bool   `json:"teamAlarmEnabled"`
	ScheduleEnabled    bool   `json:"scheduleEnabled"`
	SchedulePreMinutes []int  `json:"schedulePreMinutes"`
	TodoEnabled        bool   `json:"todoEnabled"`
	TodoPreMinutes     []int  `json:"todoPreMinutes"`
	NoticeEnabled      bool   `json:"noticeEnabled"`
}

type personalSettingResponse struct {
	AllEnabled         bool  `json:"allEnabled"`
	ScheduleEnabled    bool  `json:"scheduleEnabled"`
	SchedulePreMinutes []int `json:"schedulePreMinutes"`
	TodoEnabled        bool  `json:"todoEnabled"`
	TodoPreMinutes     []int `json:"todoPreMinutes"`
	NoticeEnabled      bool  `json:"noticeEnabled"`
}

func toTeamSettingResponse(s *models.NotificationSetting) teamSettingResponse {
	return teamSettingResponse{
		TeamID:             s.TeamID,
		TeamAlarmEnabled:   s.TeamAlarmEnabled,
		ScheduleEnabled:    s.ScheduleEnabled,
		SchedulePreMinutes: nonNil(s.SchedulePreMinutes),
		TodoEnabled:        s.TodoEnabled,
		TodoPreMinutes:     nonNil(s.TodoPreMinutes),
		NoticeEnabled:      s.NoticeEnabled,
	}
}

func toPersonalSettingResponse(s *models.PersonalNotificationSetting) personalSettingResponse {
	return personalSettingResponse{
		AllEnabled:         s.AllEnabled,
		ScheduleEnabled:    s.ScheduleEnabled,
		SchedulePreMinutes: nonNil(s.SchedulePreMinutes),
		TodoEnabled:        s.TodoEnabled,
		TodoPreMinutes:     nonNil(s.TodoPreMinutes),
		NoticeEnabled:      s.NoticeEnabled,
	}
}

// nonNil keeps empty offset lists as [] rather than null in JSON.
func nonNil(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

// fail writes the mapped error and logs the ones the client can do nothing about.
func (h *Handlers) fail(c *gin.Context, err error) {
	status, _ := mapError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	abortWithError(c, err)
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, userResponse{ID: user.ID, Username: user.UserName})
}

func (h *Handlers) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest)
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Refresh rotates the refresh token sent as the bearer credential.
func (h *Handlers) Refresh(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.fail(c, common.ErrInvalidRequest)
		return
	}

	pair, err := h.auth.RefreshToken(c.Request.Context(), token)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handlers) Logout(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.fail(c, common.ErrInvalidRequest)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LogoutAll ends every session of the caller.
func (h *Handlers) LogoutAll(c *gin.Context) {
	if err := h.auth.LogoutAll(c.Request.Context(), c.GetString(userIDKey)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) GetPersonalSetting(c *gin.Context) {
	s, err := h.settings.GetPersonalSetting(c.Request.Context(), c.GetString(userIDKey))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPersonalSettingResponse(s))
}

func (h *Handlers) UpdatePersonalSetting(c *gin.Context) {
	var p services.PersonalSettingPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		h.fail(c, common.ErrInvalidRequest)
		return
	}

	s, err := h.settings.UpdatePersonalSetting(c.Request.Context(), c.GetString(userIDKey), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toPersonalSettingResponse(s))
}

func (h *Handlers) GetTeamSetting(c *gin.Context) {
	s, err := h.settings.GetTeamSetting(c.Request.Context(), c.GetString(userIDKey), c.Param("teamId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toTeamSettingResponse(s))
}

func (h *Handlers) UpdateTeamSetting(c *gin.Context) {
	var p services.TeamSettingPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		h.fail(c, common.ErrInvalidRequest)
		return
	}

	s, err := h.settings.UpdateTeamSetting(c.Request.Context(), c.GetString(userIDKey), c.Param("teamId"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toTeamSettingResponse(s))
}

func (h *Handlers) RegisterDevice(c *gin.Context) {
	var req deviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest)
		return
	}

	if err := h.settings.RegisterDevice(c.Request.Context(), c.GetString(userIDKey), req.Address); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
