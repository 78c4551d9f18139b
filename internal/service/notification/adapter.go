package notification

import (
	"context"

	"github.com/google/uuid"

	"asset-buyback-api/internal/notification"
	"asset-buyback-api/internal/service"
)

// ServiceAdapter adapts the notification client to the service layer interface
type ServiceAdapter struct {
	client notification.Notifier
}

// NewServiceAdapter creates a new notification service adapter
func NewServiceAdapter(client notification.Notifier) *ServiceAdapter {
	return &ServiceAdapter{
		client: client,
	}
}

// SendAssetNotification sends an asset-related notification
func (a *ServiceAdapter) SendAssetNotification(ctx context.Context, assetNotification service.AssetNotification) error {
	metadata := make(map[string]string, len(assetNotification.Metadata)+2)
	for k, v := range assetNotification.Metadata {
		metadata[k] = v
	}
	if assetNotification.PCName != "" {
		metadata["pc_name"] = assetNotification.PCName
	}
	metadata["notification_type"] = string(assetNotification.Type)

	clientNotification := notification.Notification{
		Level:          mapNotificationLevel(assetNotification.Type),
		EmployeeNumber: assetNotification.EmployeeNumber,
		Message:        assetNotification.Message,
		Metadata:       metadata,
	}
	if assetNotification.AssetID != uuid.Nil {
		clientNotification.AssetID = assetNotification.AssetID.String()
	}

	return a.client.SendNotificationWithContext(ctx, clientNotification)
}

// mapNotificationLevel maps service notification types to client notification levels
func mapNotificationLevel(notificationType service.NotificationType) notification.NotificationLevel {
	switch notificationType {
	case service.NotificationTypeAssetCompleted:
		return notification.LevelInfo
	default:
		return notification.LevelWarning
	}
}
