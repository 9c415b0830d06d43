package rabbitmq

// QueueConfig очередь и ключ, которым она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetAuditQueues очереди журнала аудита: все события сессий и удаления пользователей.
func GetAuditQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "sessions.audit", RoutingKey: "session.*"},
		{QueueName: "users.audit", RoutingKey: "user.*"},
	}
}
