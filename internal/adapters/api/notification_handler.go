package api

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/floroz/tradepost/internal/domain/listings"
	"github.com/floroz/tradepost/internal/domain/notifications"
)

// NotificationService is implemented by notifications.Service.
type NotificationService interface {
	ListNotifications(ctx context.Context, userID uuid.UUID, page listings.PageRequest) (*notifications.NotificationPage, error)
}

type NotificationHandler struct {
	service NotificationService
	logger  *slog.Logger
}

func NewNotificationHandler(service NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, logger: logger}
}

func (h *NotificationHandler) ListNotifications(
	ctx context.Context,
	req *connect.Request[ListNotificationsRequest],
) (*connect.Response[ListNotificationsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := h.service.ListNotifications(ctx, userID, listings.PageRequest{
		Page:     req.Msg.Page,
		PageSize: req.Msg.PageSize,
	})
	if err != nil {
		return nil, fail(h.logger, ListNotificationsProcedure, err)
	}

	out := make([]Notification, len(page.Notifications))
	for i, n := range page.Notifications {
		out[i] = mapNotification(n)
	}

	return connect.NewResponse(&ListNotificationsResponse{
		Notifications: out,
		PageInfo:      newPageInfo(page.Total, page.Page, page.PageSize),
	}), nil
}
