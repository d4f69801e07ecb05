package dto

import (
	"time"

	"staybook/internal/domain/notification"
)

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationCollection struct {
	Items  []Notification `json:"items"`
	Unread int            `json:"unread"`
}

func MapNotifications(ns []*notification.Notification) NotificationCollection {
	out := NotificationCollection{Items: make([]Notification, 0, len(ns))}
	for _, n := range ns {
		if !n.Read {
			out.Unread++
		}
		out.Items = append(out.Items, Notification{
			ID:        string(n.ID),
			Title:     n.Title,
			Message:   n.Message,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}
