package common

const (
	RedisStreamPositionMonitor   = "advisor.position.monitor"
	RedisStreamPerformanceUpdate = "advisor.performance.update"

	RedisStreamGroup    = "advisor-group"
	RedisStreamConsumer = "advisor-consumer"
)
