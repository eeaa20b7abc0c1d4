package dto

// StreamDataPositionMonitor is the payload queued on the position monitor stream.
type StreamDataPositionMonitor struct {
	PositionID uint `json:"position_id"`
	SendNotif  bool `json:"send_notif"`
}

// StreamDataPerformanceUpdate is the payload queued on the performance update stream.
type StreamDataPerformanceUpdate struct {
	TrackerID uint `json:"tracker_id"`
}
