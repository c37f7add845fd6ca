package theme

// UIStyle 是交互式预览使用的九个样式槽位（前端 class 名）。
type UIStyle struct {
	Page         string `json:"page"`
	Card         string `json:"card"`
	Name         string `json:"name"`
	SectionTitle string `json:"section_title"`
	Body         string `json:"body"`
	Meta         string `json:"meta"`
	Badge        string `json:"badge"`
	SectionBox   string `json:"section_box"`
	SkillPill    string `json:"skill_pill"`
}

var uiStyles = [keyCount]UIStyle{
	Classic: {
		Page:         "bg-slate-100 p-6",
		Card:         "bg-white shadow rounded-lg p-8",
		Name:         "text-3xl font-bold text-slate-900",
		SectionTitle: "text-lg font-semibold text-slate-800 border-b border-slate-300 pb-1",
		Body:         "text-sm leading-relaxed text-slate-700",
		Meta:         "text-xs text-slate-500",
		Badge:        "inline-block text-xs px-2 py-0.5 rounded bg-slate-200 text-slate-700",
		SectionBox:   "mt-5",
		SkillPill:    "inline-block text-xs px-3 py-1 rounded-full bg-slate-100 border border-slate-300",
	},
	Modern: {
		Page:         "bg-indigo-50 p-6",
		Card:         "bg-white shadow-lg rounded-2xl p-8 border-t-4 border-indigo-500",
		Name:         "text-3xl font-extrabold text-indigo-700",
		SectionTitle: "text-sm font-bold uppercase tracking-widest text-indigo-600",
		Body:         "text-sm leading-relaxed text-gray-700",
		Meta:         "text-xs text-indigo-400",
		Badge:        "inline-block text-xs px-2 py-0.5 rounded-full bg-indigo-100 text-indigo-700",
		SectionBox:   "mt-6",
		SkillPill:    "inline-block text-xs px-3 py-1 rounded-full bg-indigo-500 text-white",
	},
	Compact: {
		Page:         "bg-gray-100 p-3",
		Card:         "bg-white shadow rounded p-5",
		Name:         "text-2xl font-bold text-gray-900",
		SectionTitle: "text-sm font-semibold text-gray-800 border-b border-gray-200",
		Body:         "text-xs leading-snug text-gray-700",
		Meta:         "text-[10px] text-gray-500",
		Badge:        "inline-block text-[10px] px-1.5 rounded bg-gray-200",
		SectionBox:   "mt-3",
		SkillPill:    "inline-block text-[10px] px-2 py-0.5 rounded bg-gray-100 border border-gray-300",
	},
	Minimal: {
		Page:         "bg-white p-6",
		Card:         "bg-white p-8",
		Name:         "text-3xl font-light text-black",
		SectionTitle: "text-xs font-medium uppercase tracking-wide text-gray-500",
		Body:         "text-sm leading-relaxed text-gray-800",
		Meta:         "text-xs text-gray-400",
		Badge:        "inline-block text-xs text-gray-600",
		SectionBox:   "mt-6",
		SkillPill:    "inline-block text-xs px-2 py-0.5 text-gray-700 underline",
	},
	Elegant: {
		Page:         "bg-stone-100 p-6",
		Card:         "bg-white shadow rounded-md p-10 font-serif",
		Name:         "text-4xl font-serif text-stone-900",
		SectionTitle: "text-lg font-serif italic text-stone-700 border-b border-stone-300",
		Body:         "text-sm font-serif leading-relaxed text-stone-800",
		Meta:         "text-xs font-serif text-stone-500",
		Badge:        "inline-block text-xs font-serif px-2 rounded bg-stone-100",
		SectionBox:   "mt-6",
		SkillPill:    "inline-block text-xs font-serif px-3 py-1 rounded border border-stone-400",
	},
	Executive: {
		Page:         "bg-neutral-200 p-6",
		Card:         "bg-white shadow-xl p-10 border-l-8 border-neutral-800 font-serif",
		Name:         "text-4xl font-serif font-bold text-neutral-900",
		SectionTitle: "text-base font-serif font-bold uppercase text-neutral-800",
		Body:         "text-sm font-serif leading-relaxed text-neutral-800",
		Meta:         "text-xs font-serif text-neutral-500",
		Badge:        "inline-block text-xs px-2 rounded bg-neutral-800 text-white",
		SectionBox:   "mt-6",
		SkillPill:    "inline-block text-xs px-3 py-1 border border-neutral-800",
	},
	TwoColumn: {
		Page:         "bg-sky-50 p-6",
		Card:         "bg-white shadow rounded-lg p-8 grid grid-cols-3 gap-6",
		Name:         "col-span-3 text-3xl font-bold text-sky-800",
		SectionTitle: "text-sm font-semibold uppercase text-sky-700",
		Body:         "text-sm leading-relaxed text-gray-700",
		Meta:         "text-xs text-gray-500",
		Badge:        "inline-block text-xs px-2 rounded bg-sky-100 text-sky-800",
		SectionBox:   "col-span-2 mt-4",
		SkillPill:    "inline-block text-xs px-3 py-1 rounded-full bg-sky-100 text-sky-800",
	},
	Technical: {
		Page:         "bg-zinc-900 p-6",
		Card:         "bg-zinc-50 rounded p-8 font-mono",
		Name:         "text-2xl font-mono font-bold text-emerald-700",
		SectionTitle: "text-sm font-mono text-emerald-700 before:content-['#_']",
		Body:         "text-xs font-mono leading-relaxed text-zinc-800",
		Meta:         "text-[11px] font-mono text-zinc-500",
		Badge:        "inline-block text-[11px] font-mono px-1 bg-zinc-200",
		SectionBox:   "mt-5",
		SkillPill:    "inline-block text-[11px] font-mono px-2 py-0.5 rounded bg-emerald-100 text-emerald-800",
	},
	Academic: {
		Page:         "bg-white p-6",
		Card:         "bg-white p-10 font-serif",
		Name:         "text-3xl font-serif text-center text-black",
		SectionTitle: "text-base font-serif small-caps border-b border-black",
		Body:         "text-sm font-serif leading-relaxed text-black text-justify",
		Meta:         "text-xs font-serif italic text-gray-600",
		Badge:        "inline-block text-xs font-serif italic",
		SectionBox:   "mt-5",
		SkillPill:    "inline-block text-xs font-serif px-2",
	},
	Bold: {
		Page:         "bg-amber-50 p-6",
		Card:         "bg-white shadow-2xl rounded-xl p-8 border-4 border-black",
		Name:         "text-5xl font-black uppercase text-black",
		SectionTitle: "text-xl font-black uppercase bg-amber-300 px-2 inline-block",
		Body:         "text-sm font-medium leading-relaxed text-black",
		Meta:         "text-xs font-bold text-gray-600",
		Badge:        "inline-block text-xs font-bold px-2 bg-black text-amber-300",
		SectionBox:   "mt-6",
		SkillPill:    "inline-block text-xs font-bold px-3 py-1 bg-black text-white",
	},
}

// StyleClassesFor 返回模板的预览样式；非法键回落为 Classic。
func StyleClassesFor(k Key) UIStyle {
	if !k.valid() {
		return uiStyles[Classic]
	}
	return uiStyles[k]
}
