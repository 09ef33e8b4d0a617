package rabbitmq

// Exchange is the direct exchange all notification events go through.
const Exchange = "notifications"

// QueueConfig binds a durable queue to a routing key on the exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues returns the queues consumed by the sender worker.
// The routing key groups event kinds per email template family.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.account", RoutingKey: "account"},
		{QueueName: "notification.purchase", RoutingKey: "purchase"},
		{QueueName: "notification.subscription", RoutingKey: "subscription"},
		{QueueName: "notification.contact", RoutingKey: "contact"},
	}
}
