package errcode

// 错误码约定（随导出通知一起下发给前端）：
// - 0：无错误
// - 4xxx：请求本身的问题，用户可修正后重试
// - 5xxx：系统错误
const (
	OK             = 0
	InvalidPayload = 4000
	EmptyDocument  = 4001
	SystemError    = 5000
	RenderFailed   = 5001
	StorageFailed  = 5002
)
