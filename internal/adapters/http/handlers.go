package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/vibechat/vibe-server/internal/app"
	"github.com/vibechat/vibe-server/internal/domain"
	"github.com/vibechat/vibe-server/internal/invite"
	"github.com/vibechat/vibe-server/internal/store"
)

type Handler struct {
	Invites  *app.InviteSender
	Users    store.Users
	Messages store.Messages
}

func NewHandler(invites *app.InviteSender, users store.Users, messages store.Messages) *Handler {
	return &Handler{Invites: invites, Users: users, Messages: messages}
}

type startPartyRequest struct {
	Invitees []string `json:"invitees"`
	MediaRef string   `json:"media_ref"`
}

type startPartyResponse struct {
	RoomID   string `json:"room_id"`
	JoinLink string `json:"join_link"`
}

// StartParty mints a room and delivers invites over the durable message
// channel. Requires an authenticated identity.
func (h *Handler) StartParty(c *gin.Context) {
	uid := domain.UserID(c.GetString("identity"))
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req startPartyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	from := domain.User{ID: uid, DisplayName: string(uid)}
	if u, err := h.Users.Find(c.Request.Context(), uid); err == nil {
		from = *u
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("user lookup failed, using identity as name")
	}

	invitees := make([]domain.UserID, 0, len(req.Invitees))
	for _, id := range req.Invitees {
		invitees = append(invitees, domain.UserID(id))
	}

	room, err := h.Invites.Start(c.Request.Context(), from, invitees, req.MediaRef)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, startPartyResponse{
		RoomID:   string(room),
		JoinLink: invite.JoinLink(room, req.MediaRef),
	})
}

// Conversation returns recent direct messages with another user.
func (h *Handler) Conversation(c *gin.Context) {
	uid := domain.UserID(c.GetString("identity"))
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	other := domain.UserID(c.Param("id"))
	if other == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	msgs, err := h.Messages.Conversation(c.Request.Context(), uid, other, limit)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("conversation fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
