package notification

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nmthanh/tutorhub/internal/controller"
	"github.com/nmthanh/tutorhub/internal/dto"
	"github.com/nmthanh/tutorhub/internal/notify"
	"github.com/nmthanh/tutorhub/internal/service"
	"github.com/nmthanh/tutorhub/internal/stream"
	"github.com/rs/zerolog/log"
)

type NotificationController struct {
	notificationSvc service.NotificationService
	bus             *stream.Bus
	store           notify.Store
	feedSize        int
	fetchWindow     int
}

func NewNotificationController(notificationSvc service.NotificationService, bus *stream.Bus, store notify.Store, feedSize, fetchWindow int) *NotificationController {
	return &NotificationController{
		notificationSvc: notificationSvc,
		bus:             bus,
		store:           store,
		feedSize:        feedSize,
		fetchWindow:     fetchWindow,
	}
}

func (c *NotificationController) RegisterRoutes(api *gin.RouterGroup) {
	notifications := api.Group("/notifications")
	{
		notifications.GET("", c.List)
		notifications.GET("/unread-count", c.UnreadCount)
		notifications.GET("/stream", c.StreamFeed)
		notifications.POST("/:notification_id/read", c.MarkRead)
		notifications.POST("/read-all", c.MarkAllRead)
		notifications.DELETE("/:notification_id", c.Delete)
	}
}

// List godoc
// @Summary List the caller's recent notifications, newest first
// @Tags Notifications
// @Produce json
// @Param limit query int false "Window size (defaults to the configured fetch window)"
// @Success 200 {array} dto.NotificationResponseDTO
// @Router /notifications [get]
func (c *NotificationController) List(ctx *gin.Context) {
	ident, ok := controller.CallerIdentity(ctx)
	if !ok {
		return
	}
	limit := c.fetchWindow
	if raw := ctx.Query("limit"); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil || val < 1 {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "limit must be a positive integer"})
			return
		}
		limit = val
	}

	rows, err := c.notificationSvc.Recent(ident.UserID, limit)
	if err != nil {
		log.Error().Err(err).Uint("recipientID", ident.UserID).Msg("List notifications: service error")
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, rows)
}

// UnreadCount godoc
// @Summary Unread notification count for the caller
// @Tags Notifications
// @Produce json
// @Success 200 {object} dto.UnreadCountDTO
// @Router /notifications/unread-count [get]
func (c *NotificationController) UnreadCount(ctx *gin.Context) {
	ident, ok := controller.CallerIdentity(ctx)
	if !ok {
		return
	}
	count, err := c.notificationSvc.UnreadCount(ident.UserID)
	if err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.UnreadCountDTO{UnreadCount: count})
}

// StreamFeed godoc
// @Summary Live notification feed over server-sent events
// @Description Opens a per-recipient feed: an initial snapshot frame followed by a new frame whenever the feed changes. Each frame carries the bounded newest-first window and its unread counter.
// @Tags Notifications
// @Produce text/event-stream
// @Success 200 {object} dto.FeedSnapshotDTO
// @Failure 503 {object} dto.ErrorResponse "Feed could not load its initial window"
// @Router /notifications/stream [get]
func (c *NotificationController) StreamFeed(ctx *gin.Context) {
	ident, ok := controller.CallerIdentity(ctx)
	if !ok {
		return
	}

	feed, err := notify.OpenFeed(ctx.Request.Context(), c.bus, c.store, ident.UserID, c.feedSize)
	if err != nil {
		log.Error().Err(err).Uint("recipientID", ident.UserID).Msg("StreamFeed: initial feed load failed")
		ctx.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Message: "notification feed is unavailable"})
		return
	}

	ctx.SSEvent("feed", snapshot(feed))
	ctx.Writer.Flush()

	ctx.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Request.Context().Done():
			return false
		case <-feed.Changes():
			ctx.SSEvent("feed", snapshot(feed))
			return true
		}
	})
}

// MarkRead godoc
// @Summary Mark one notification read
// @Tags Notifications
// @Produce json
// @Param notification_id path string true "Notification ID"
// @Success 204
// @Router /notifications/{notification_id}/read [post]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	if _, ok := controller.CallerIdentity(ctx); !ok {
		return
	}
	id := ctx.Param("notification_id")
	if err := c.notificationSvc.MarkRead(id); err != nil {
		log.Error().Err(err).Str("notificationID", id).Msg("MarkRead: service error")
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// MarkAllRead godoc
// @Summary Mark every notification for the caller read
// @Tags Notifications
// @Produce json
// @Success 204
// @Router /notifications/read-all [post]
func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	ident, ok := controller.CallerIdentity(ctx)
	if !ok {
		return
	}
	if err := c.notificationSvc.MarkAllRead(ident.UserID); err != nil {
		log.Error().Err(err).Uint("recipientID", ident.UserID).Msg("MarkAllRead: service error")
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Delete godoc
// @Summary Delete a notification
// @Tags Notifications
// @Produce json
// @Param notification_id path string true "Notification ID"
// @Success 204
// @Router /notifications/{notification_id} [delete]
func (c *NotificationController) Delete(ctx *gin.Context) {
	if _, ok := controller.CallerIdentity(ctx); !ok {
		return
	}
	id := ctx.Param("notification_id")
	if err := c.notificationSvc.Delete(id); err != nil {
		controller.RespondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func snapshot(feed *notify.Feed) dto.FeedSnapshotDTO {
	items := feed.Notifications()
	out := dto.FeedSnapshotDTO{
		UnreadCount:   feed.UnreadCount(),
		Notifications: make([]dto.NotificationResponseDTO, 0, len(items)),
	}
	for _, n := range items {
		out.Notifications = append(out.Notifications, dto.NotificationResponseDTO{
			ID:        n.ID,
			Type:      n.Type,
			Category:  string(notify.CategoryOf(n.Type)),
			Title:     n.Title,
			Message:   n.Message,
			Priority:  n.Priority,
			Read:      n.Read,
			ActionURL: n.ActionURL,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}
