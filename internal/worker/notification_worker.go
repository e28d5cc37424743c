package worker

import (
	"github.com/helpdesk-kit/tickets/internal/events"
	"github.com/helpdesk-kit/tickets/internal/service"
)

// StartNotificationWorker registers notification handlers and, when Redis is
// configured, the event forwarder. Either argument may be nil.
func StartNotificationWorker(notificationService *service.NotificationService, dispatcher events.Dispatcher, publisher *events.RedisPublisher) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if publisher != nil && dispatcher != nil {
		publisher.Register(dispatcher)
	}
}
