package worker

// ExportNotifyMessage 是通过 Redis Pub/Sub 转发给前端的 WebSocket 消息。
// 字段名与前端解析保持一致。
type ExportNotifyMessage struct {
	Status        string `json:"status"`
	TaskID        string `json:"task_id"`
	CorrelationID string `json:"correlation_id"`
	Filename      string `json:"filename,omitempty"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

const (
	StatusCompleted = "completed"
	StatusError     = "error"
)
