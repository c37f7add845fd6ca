package resume

import "time"

// CvInput 是前端表单提交的完整载荷。
type CvInput struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Phone    string `json:"phone" validate:"max=64"`
	Location string `json:"location" validate:"max=128"`

	Role       string   `json:"role" validate:"required,max=160"`
	Experience string   `json:"experience" validate:"max=12000"`
	Skills     []string `json:"skills" validate:"max=50,dive,max=80"`

	Employment     []EmploymentEntry    `json:"employment" validate:"max=30,dive"`
	Qualifications []QualificationEntry `json:"qualifications" validate:"max=30,dive"`

	Template       string          `json:"template"`
	Region         string          `json:"region"`
	SectionConfig  map[string]bool `json:"section_config"`
	SectionOrder   []string        `json:"section_order"`
	ReferencesText string          `json:"references_text" validate:"max=2000"`

	StudentSafeMode bool   `json:"student_safe_mode"`
	TeacherMode     bool   `json:"teacher_mode"`
	ClassCode       string `json:"class_code,omitempty"`
}

// EmploymentEntry 是一段工作经历；日期为自由文本，"Present" 合法。
type EmploymentEntry struct {
	Title    string   `json:"title" validate:"max=160"`
	Company  string   `json:"company" validate:"max=160"`
	Location string   `json:"location" validate:"max=128"`
	Start    string   `json:"start" validate:"max=40"`
	End      string   `json:"end" validate:"max=40"`
	Bullets  []string `json:"bullets" validate:"max=20,dive,max=600"`
}

// QualificationEntry 是一条学历或证书。
type QualificationEntry struct {
	Title    string `json:"title" validate:"max=160"`
	Provider string `json:"provider" validate:"max=160"`
	Year     string `json:"year" validate:"max=20"`
	Grade    string `json:"grade" validate:"max=60"`
}

// GeneratedResult 是从生成文本中解析出的三个字段。
type GeneratedResult struct {
	Summary    string   `json:"summary"`
	Experience []string `json:"experience"`
	Skills     []string `json:"skills"`
}

// SavedRecord 是每个浏览器档案唯一的一份持久化记录。
type SavedRecord struct {
	Input     CvInput   `json:"input"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}
