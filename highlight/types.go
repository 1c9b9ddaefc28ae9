// Package highlight implements the Highlight Analyzer (§4.3): five phases
// that turn a source video into a small set of non-overlapping, high-value
// clip windows, each backed by a transcript and a multi-factor score.
package highlight

// Candidate is the data model's HighlightCandidate (§3): a potential clip
// produced during analysis, scored by Phase 4 and pruned by Phase 5.
type Candidate struct {
	Start, End float64

	BaseScore          float64
	EmotionalIntensity float64
	SpeechClarity      float64
	KeywordDensity     float64
	ConversationFlow   float64
	Confidence         float64
	FinalScore         float64

	Reason          string
	Transcription   string
	ViralCategory   string
	DurationReason  string
	SegmentIndex    int
	IsVariant       bool

	// OptimalDuration is the remote model's explicit duration suggestion
	// (§4.3 "Duration assignment"), zero when it gave none.
	OptimalDuration float64
}

func (c Candidate) duration() float64 {
	return c.End - c.Start
}

// Metadata is the subdocument attached to an accepted Highlight, carrying the
// factors an inbound adapter surfaces alongside the clip (§6 "ai_score,
// ai_reason").
type Metadata struct {
	BaseScore          float64 `json:"base_score"`
	EmotionalIntensity float64 `json:"emotional_intensity"`
	SpeechClarity      float64 `json:"speech_clarity"`
	ConversationFlow   float64 `json:"conversation_flow"`
	KeywordDensity     float64 `json:"keyword_density"`
	Confidence         float64 `json:"confidence"`
	ViralCategory      string  `json:"viral_category,omitempty"`
	DurationRationale  string  `json:"duration_rationale,omitempty"`
}

// Highlight is the data model's Highlight (§3): an accepted, immutable clip
// window in time order.
type Highlight struct {
	Start         float64  `json:"start"`
	End           float64  `json:"end"`
	FinalScore    float64  `json:"score"`
	Reason        string   `json:"reason"`
	Transcription string   `json:"transcription"`
	Metadata      Metadata `json:"metadata"`
}

func (h Highlight) Duration() float64 {
	return h.End - h.Start
}
