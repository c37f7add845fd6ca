package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeExportPDF = "export:pdf"
)

const (
	exportMaxRetry = 3
	exportTimeout  = 2 * time.Minute
)

// ExportPDFPayload 携带已装配好的独立 HTML，worker 不再读取表单数据。
type ExportPDFPayload struct {
	Profile       string `json:"profile"`
	HTML          string `json:"html"`
	Filename      string `json:"filename"`
	Template      string `json:"template"`
	ClearAfter    bool   `json:"clear_after"`
	CorrelationID string `json:"correlation_id"`
}

// NewExportPDFTask 构造导出任务。taskID 由调用方生成，便于随后查询下载链接。
func NewExportPDFTask(taskID string, p ExportPDFPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal export payload: %w", err)
	}
	return asynq.NewTask(TypeExportPDF, payload,
		asynq.TaskID(taskID),
		asynq.MaxRetry(exportMaxRetry),
		asynq.Timeout(exportTimeout),
	), nil
}

// ExportRecord 是导出完成后写入 Redis 的下载索引。
type ExportRecord struct {
	Profile   string `json:"profile"`
	ObjectKey string `json:"object_key"`
	Filename  string `json:"filename"`
}

// ExportRecordTTL 是下载索引的保留时间。
const ExportRecordTTL = 24 * time.Hour

// ExportRecordKey 返回任务对应的 Redis 键。
func ExportRecordKey(taskID string) string {
	return "cv:export:" + taskID
}

// NotifyChannel 返回浏览器档案的通知频道。
func NotifyChannel(profile string) string {
	return "export_notify:" + profile
}
