package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cvbuilder/internal/api/middleware"
	"cvbuilder/internal/classroom"
	"cvbuilder/internal/entitlement"
	"cvbuilder/internal/metrics"
	"cvbuilder/internal/region"
	"cvbuilder/internal/resume"
	"cvbuilder/internal/savedcv"
	"cvbuilder/internal/textgen"
	"cvbuilder/internal/theme"
)

const generationFailedMessage = "We couldn't generate your CV right now. Please try again."

type savedStore interface {
	Save(ctx context.Context, profile string, rec resume.SavedRecord, durable bool) error
	Load(ctx context.Context, profile string) (resume.SavedRecord, error)
	Clear(ctx context.Context, profile string) error
	ClearDurable(ctx context.Context, profile string) error
}

type classConfigReader interface {
	Config(ctx context.Context, code string) (classroom.View, error)
}

// CVHandler 负责生成、预览与模板/地区列表。
type CVHandler struct {
	generator textgen.Generator
	saved     savedStore
	classes   classConfigReader
	gate      entitlement.Gate
}

// NewCVHandler 构造 CVHandler。
func NewCVHandler(generator textgen.Generator, saved savedStore, classes classConfigReader, gate entitlement.Gate) *CVHandler {
	return &CVHandler{
		generator: generator,
		saved:     saved,
		classes:   classes,
		gate:      gate,
	}
}

type generateResponse struct {
	Result   string                     `json:"result"`
	Parsed   resume.GeneratedResult     `json:"parsed"`
	Template theme.Key                  `json:"template"`
	Region   region.Code                `json:"region"`
	Saved    string                     `json:"saved"`
	Paywall  *entitlement.PaywallPrompt `json:"paywall,omitempty"`
}

// Generate 校验表单、调用文本生成并覆盖保存该档案唯一的记录。
func (h *CVHandler) Generate(c *gin.Context) {
	var in resume.CvInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid request body")
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c)
	sc := middleware.SessionFromContext(c)
	profile := middleware.ProfileFromContext(c)

	if code := strings.TrimSpace(in.ClassCode); code != "" {
		if !h.applyClassConfig(c, &in, code) {
			return
		}
	}
	in.TeacherMode = sc.TeacherModeActive
	if sc.StudentSafeModeActive {
		in.StudentSafeMode = true
	}

	if err := resume.Validate(in); err != nil {
		var verr *resume.ValidationError
		if errors.As(err, &verr) {
			ValidationFailed(c, verr)
			return
		}
		BadRequest(c, err.Error())
		return
	}

	code := region.Parse(in.Region)
	in.Region = string(code)
	selected, prompt := h.gate.SelectTemplate(theme.Classic, theme.Resolve(in.Template), sc.State(), code)
	if prompt != nil {
		metrics.ObservePaywall(prompt.Reason)
	}
	in.Template = selected.String()

	text, err := h.generator.Generate(ctx, textgen.Request{
		Role:       in.Role,
		Experience: in.Experience,
		Skills:     in.Skills,
		Region:     in.Region,
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, textgen.ErrEmptyResult) {
			outcome = "empty"
		}
		metrics.ObserveGeneration(outcome)
		log.Warn("text generation failed", slog.Any("error", err))
		BadGateway(c, generationFailedMessage)
		return
	}
	metrics.ObserveGeneration("ok")

	durable := !sc.EphemeralOnly() && !in.StudentSafeMode
	if err := h.saved.Save(ctx, profile, resume.SavedRecord{Input: in, Result: text}, durable); err != nil {
		log.Error("save cv record failed", slog.Any("error", err))
		Internal(c, "failed to save cv")
		return
	}

	scope := "session"
	if durable {
		scope = "durable"
	}
	c.JSON(http.StatusOK, generateResponse{
		Result:   text,
		Parsed:   resume.ParseGenerated(text),
		Template: selected,
		Region:   code,
		Saved:    scope,
		Paywall:  prompt,
	})
}

func (h *CVHandler) applyClassConfig(c *gin.Context, in *resume.CvInput, code string) bool {
	view, err := h.classes.Config(c.Request.Context(), code)
	switch {
	case errors.Is(err, classroom.ErrNotFound):
		NotFound(c, "class not found")
		return false
	case errors.Is(err, classroom.ErrExpired):
		Error(c, http.StatusGone, "class session expired")
		return false
	case err != nil:
		middleware.LoggerFromContext(c).Error("load class config failed", slog.Any("error", err))
		Internal(c, "failed to load class")
		return false
	}

	cfg, err := classroom.ParseConfig(view.Config)
	if err != nil {
		middleware.LoggerFromContext(c).Warn("stored class config invalid, applying restrictive defaults", slog.String("class_code", view.ClassCode), slog.Any("error", err))
		cfg = classroom.RestrictiveConfig()
	}
	cfg.Apply(in)
	in.ClassCode = view.ClassCode
	return true
}

type previewResponse struct {
	resume.Preview
	Access   entitlement.State          `json:"access"`
	Region   region.Code                `json:"region,omitempty"`
	Filename string                     `json:"filename,omitempty"`
	Paywall  *entitlement.PaywallPrompt `json:"paywall,omitempty"`
}

// Preview 从已保存记录装配文档。没有记录时返回占位状态而不是错误。
// query: template 切换模板（受权益控制），region 覆盖地区。
func (h *CVHandler) Preview(c *gin.Context) {
	ctx := c.Request.Context()
	sc := middleware.SessionFromContext(c)
	state := sc.State()

	rec, err := h.saved.Load(ctx, middleware.ProfileFromContext(c))
	if err != nil {
		if !errors.Is(err, savedcv.ErrNoSavedRecord) {
			middleware.LoggerFromContext(c).Error("load saved cv failed", slog.Any("error", err))
		}
		c.JSON(http.StatusOK, previewResponse{Preview: resume.EmptyPreview(), Access: state})
		return
	}

	doc, prompt := assembleRecord(h.gate, rec, c.Query("template"), c.Query("region"), state)
	if prompt != nil {
		metrics.ObservePaywall(prompt.Reason)
	}

	c.JSON(http.StatusOK, previewResponse{
		Preview:  resume.RenderPreview(doc),
		Access:   state,
		Region:   doc.Region,
		Filename: resume.Filename(doc),
		Paywall:  prompt,
	})
}

// assembleRecord 应用模板与地区覆盖后装配文档。已保存模板若不再可用则回落为 Classic。
func assembleRecord(gate entitlement.Gate, rec resume.SavedRecord, templateOverride, regionOverride string, state entitlement.State) (resume.Document, *entitlement.PaywallPrompt) {
	in := rec.Input
	if r := strings.TrimSpace(regionOverride); r != "" {
		in.Region = r
	}
	code := region.Parse(in.Region)

	active, _ := gate.SelectTemplate(theme.Classic, theme.Resolve(in.Template), state, code)
	var prompt *entitlement.PaywallPrompt
	if t := strings.TrimSpace(templateOverride); t != "" {
		active, prompt = gate.SelectTemplate(active, theme.Resolve(t), state, code)
	}
	in.Template = active.String()

	return resume.Assemble(in, resume.ParseGenerated(rec.Result)), prompt
}

type templateItem struct {
	Key       theme.Key `json:"key"`
	Label     string    `json:"label"`
	Premium   bool      `json:"premium"`
	Available bool      `json:"available"`
}

// Templates 列出全部模板及其对当前会话是否可用。
func (h *CVHandler) Templates(c *gin.Context) {
	state := middleware.SessionFromContext(c).State()
	items := make([]templateItem, 0, len(theme.All()))
	for _, k := range theme.All() {
		items = append(items, templateItem{
			Key:       k,
			Label:     k.Label(),
			Premium:   k.Premium(),
			Available: entitlement.CanUseTemplate(k, state),
		})
	}
	c.JSON(http.StatusOK, gin.H{"templates": items, "access": state})
}

type regionItem struct {
	Code       region.Code     `json:"code"`
	Locale     string          `json:"locale"`
	Document   string          `json:"document"`
	PriceLabel string          `json:"price_label,omitempty"`
	Defaults   region.Defaults `json:"defaults"`
}

// Regions 列出支持的地区、文档称谓与本地化价格。
func (h *CVHandler) Regions(c *gin.Context) {
	items := make([]regionItem, 0, len(region.All()))
	for _, code := range region.All() {
		item := regionItem{
			Code:     code,
			Locale:   region.LocaleString(code),
			Document: region.DocumentLabel(code),
			Defaults: region.RegionDefaults(code),
		}
		if h.gate.PriceMinor > 0 {
			item.PriceLabel = region.PriceLabel(code, h.gate.PriceMinor)
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"regions": items})
}
