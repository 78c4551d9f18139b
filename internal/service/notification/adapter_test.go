package notification

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"asset-buyback-api/internal/notification"
	"asset-buyback-api/internal/service"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendNotification(n notification.Notification) error {
	return m.Called(n).Error(0)
}

func (m *MockNotifier) SendNotificationWithContext(ctx context.Context, n notification.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockNotifier) IsHealthy(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

func TestServiceAdapter_SendAssetNotification(t *testing.T) {
	client := new(MockNotifier)
	adapter := NewServiceAdapter(client)
	id := uuid.New()

	var sent notification.Notification
	client.On("SendNotificationWithContext", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(notification.Notification) }).
		Return(nil).Once()

	err := adapter.SendAssetNotification(context.Background(), service.AssetNotification{
		Type:           service.NotificationTypeAssetCompleted,
		AssetID:        id,
		EmployeeNumber: "E1001",
		PCName:         "PC-001",
		Message:        "Asset PC-001 completed buyback",
		Metadata:       map[string]string{"serial_number": "SN1"},
	})
	require.NoError(t, err)
	client.AssertExpectations(t)

	assert.Equal(t, notification.LevelInfo, sent.Level)
	assert.Equal(t, id.String(), sent.AssetID)
	assert.Equal(t, "E1001", sent.EmployeeNumber)
	assert.Equal(t, "SN1", sent.Metadata["serial_number"])
	assert.Equal(t, "PC-001", sent.Metadata["pc_name"])
	assert.Equal(t, "asset_completed", sent.Metadata["notification_type"])
}

func TestServiceAdapter_PropagatesClientError(t *testing.T) {
	client := new(MockNotifier)
	client.On("SendNotificationWithContext", mock.Anything, mock.Anything).Return(assert.AnError)

	err := NewServiceAdapter(client).SendAssetNotification(context.Background(), service.AssetNotification{
		Type:    "unknown",
		Message: "x",
	})

	assert.ErrorIs(t, err, assert.AnError)
	sent := client.Calls[0].Arguments.Get(1).(notification.Notification)
	assert.Equal(t, notification.LevelWarning, sent.Level)
	assert.Empty(t, sent.AssetID)
}
