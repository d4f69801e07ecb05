package notifications

import (
	"context"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	"staybook/internal/app/handlers/support"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	"staybook/internal/domain/notification"
	"staybook/internal/domain/user"
)

const (
	listKey     = "notifications.list"
	markReadKey = "notifications.mark_read"
	defaultPage = 50
)

type ListQuery struct {
	Actor user.Principal
	Limit int `validate:"gte=0,lte=200"`
}

func (q ListQuery) Key() string               { return listKey }
func (q ListQuery) Principal() user.Principal { return q.Actor }

type MarkReadCommand struct {
	Actor          user.Principal
	NotificationID string `validate:"required"`
}

func (c MarkReadCommand) Key() string               { return markReadKey }
func (c MarkReadCommand) Principal() user.Principal { return c.Actor }

type Handler struct {
	UoWFactory uow.UoWFactory
}

func (h *Handler) List(ctx context.Context, q ListQuery) (dto.NotificationCollection, error) {
	unit, ctx, release, err := support.ReadUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.NotificationCollection{}, err
	}
	defer release()

	limit := q.Limit
	if limit == 0 {
		limit = defaultPage
	}
	ns, err := unit.Notifications().ListByUser(ctx, q.Actor.UserID, limit)
	if err != nil {
		return dto.NotificationCollection{}, err
	}
	return dto.MapNotifications(ns), nil
}

func (h *Handler) MarkRead(ctx context.Context, cmd MarkReadCommand) (struct{}, error) {
	unit, err := uow.Require(ctx)
	if err != nil {
		return struct{}{}, err
	}
	n, err := unit.Notifications().ByID(ctx, notification.ID(cmd.NotificationID))
	if err != nil {
		return struct{}{}, err
	}
	if err := n.MarkRead(cmd.Actor.UserID); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, unit.Notifications().Save(ctx, n)
}

func (h *Handler) Register(cmds *commands.InMemoryBus, qs *queries.InMemoryBus) {
	commands.RegisterHandler(cmds, markReadKey, commands.HandlerFunc[MarkReadCommand, struct{}](h.MarkRead))
	queries.RegisterHandler(qs, listKey, queries.HandlerFunc[ListQuery, dto.NotificationCollection](h.List))
}
