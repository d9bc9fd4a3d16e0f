package worker

import (
	"github.com/spec-kit/ticket-lifecycle/internal/events"
	"github.com/spec-kit/ticket-lifecycle/internal/service"
)

// StartNotificationWorker registers notification handlers and, when
// configured, the Kafka forwarder.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, forwarder *events.KafkaForwarder) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	forwarder.Register(dispatcher)
}
