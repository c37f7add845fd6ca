// Package entitlement 决定一次请求能否使用付费模板与导出。
package entitlement

import (
	"cvbuilder/internal/region"
	"cvbuilder/internal/theme"
)

// SessionContext 是每个请求构造一次的会话标志，显式传入而不是从全局状态读取。
type SessionContext struct {
	TeacherModeActive     bool `json:"teacher_mode"`
	StudentSafeModeActive bool `json:"safe_mode"`
	PaidAccessValid       bool `json:"paid"`
	ProUnlocked           bool `json:"pro"`
}

type State int

const (
	Locked State = iota
	UnlockedPaid
	UnlockedTeacher
)

func (s State) String() string {
	switch s {
	case UnlockedPaid:
		return "unlocked_paid"
	case UnlockedTeacher:
		return "unlocked_teacher"
	default:
		return "locked"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Unlocked 为 true 表示可使用全部付费内容。
func (s State) Unlocked() bool { return s == UnlockedPaid || s == UnlockedTeacher }

// StateOf 推导权益状态。Teacher Mode 优先于其他标志。
func StateOf(sc SessionContext) State {
	switch {
	case sc.TeacherModeActive:
		return UnlockedTeacher
	case sc.PaidAccessValid, sc.ProUnlocked:
		return UnlockedPaid
	default:
		return Locked
	}
}

// State 是 StateOf 的便捷写法。
func (sc SessionContext) State() State { return StateOf(sc) }

// EphemeralOnly 为 true 时不得写入持久存储，导出成功后清空已保存记录。
func (sc SessionContext) EphemeralOnly() bool {
	return sc.StudentSafeModeActive || sc.TeacherModeActive
}

func CanUseTemplate(k theme.Key, s State) bool {
	return !k.Premium() || s.Unlocked()
}

// CanExport 在导出时针对所请求的模板重新判定，不依赖之前的模板选择结果。
func CanExport(k theme.Key, s State) bool {
	return CanUseTemplate(k, s)
}

const (
	ReasonTemplate = "template"
	ReasonExport   = "export"
)

// PaywallPrompt 是被拒绝时唯一的副作用：请求前端展示付费弹窗。
type PaywallPrompt struct {
	Reason     string    `json:"reason"`
	Template   theme.Key `json:"template"`
	PriceLabel string    `json:"price_label,omitempty"`
}

// Gate 持有展示价格所需的配置。
type Gate struct {
	PriceMinor int64
}

func (g Gate) prompt(reason string, k theme.Key, r region.Code) *PaywallPrompt {
	p := &PaywallPrompt{Reason: reason, Template: k}
	if g.PriceMinor > 0 {
		p.PriceLabel = region.PriceLabel(r, g.PriceMinor)
	}
	return p
}

// SelectTemplate 尝试切换模板。被拒绝时返回原模板与 reason="template" 的弹窗请求。
func (g Gate) SelectTemplate(current, requested theme.Key, s State, r region.Code) (theme.Key, *PaywallPrompt) {
	if CanUseTemplate(requested, s) {
		return requested, nil
	}
	return current, g.prompt(ReasonTemplate, requested, r)
}

// CheckExport 返回 nil 表示允许导出。
func (g Gate) CheckExport(k theme.Key, s State, r region.Code) *PaywallPrompt {
	if CanExport(k, s) {
		return nil
	}
	return g.prompt(ReasonExport, k, r)
}

// CheckRawExport 用于客户端自带 HTML 的导出。HTML 的实际样式无法核对，
// 所以无论声明的模板是什么，都要求会话已解锁。
func (g Gate) CheckRawExport(k theme.Key, s State, r region.Code) *PaywallPrompt {
	if s.Unlocked() {
		return nil
	}
	return g.prompt(ReasonExport, k, r)
}
