package chat

// Mode is a response-style tag. The registry is fixed; the selected mode's
// instruction is appended to the base system prompt.
type Mode string

const (
	ModeFormal    Mode = "formal"
	ModeCasual    Mode = "casual"
	ModeAcademic  Mode = "academic"
	ModeConcise   Mode = "concise"
	ModeExecutive Mode = "executive"
	ModeCreative  Mode = "creative"
	ModeTechnical Mode = "technical"
	ModeSimple    Mode = "simple"
)

var modeInstructions = map[Mode]string{
	ModeFormal:    "Respond in a professional, formal and structured manner.",
	ModeCasual:    "Respond in a friendly, relaxed and conversational manner.",
	ModeAcademic:  "Provide detailed, precise and educational explanations.",
	ModeConcise:   "Respond briefly, directly and to the point.",
	ModeExecutive: "Respond with a short executive summary followed by key points.",
	ModeCreative:  "Respond with imaginative, original and expressive language.",
	ModeTechnical: "Respond with technically precise language and concrete detail.",
	ModeSimple:    "Respond in plain language a beginner can follow.",
}

// modeOrder fixes the rendering order for menus and diagnostics.
var modeOrder = []Mode{
	ModeFormal,
	ModeCasual,
	ModeAcademic,
	ModeConcise,
	ModeExecutive,
	ModeCreative,
	ModeTechnical,
	ModeSimple,
}

func (m Mode) Valid() bool {
	_, ok := modeInstructions[m]
	return ok
}

// Instruction returns the style instruction for the mode. Unknown modes fall
// back to the casual instruction so a stale config can never blank out the
// system entry.
func (m Mode) Instruction() string {
	if s, ok := modeInstructions[m]; ok {
		return s
	}
	return modeInstructions[ModeCasual]
}

// Modes returns the registry in fixed order.
func Modes() []Mode {
	out := make([]Mode, len(modeOrder))
	copy(out, modeOrder)
	return out
}

// ParseMode resolves a user-supplied mode name. The empty Mode and false are
// returned for names outside the registry.
func ParseMode(s string) (Mode, bool) {
	m := Mode(s)
	if m.Valid() {
		return m, true
	}
	return "", false
}
