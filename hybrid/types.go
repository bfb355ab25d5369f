package hybrid

import (
	"encoding/json"
)

// Result sources.
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
	// SourceFallback marks remote text used after the local primary was
	// rejected.
	SourceFallback = "fallback"
)

// Debug notes.
const (
	NoteLocalLowConfidence   = "local_low_confidence"
	NoteRemoteEscalationFail = "remote_escalation_failed"
	NoteSpeakerUnverified    = "speaker_unverified"
	NoteSemanticSkipped      = "semantic_check_skipped"
	NoteTranslationFailed    = "translation_failed"
)

// ReasonUnsupportedLanguage is the fallback reason when the local primary
// cannot serve the requested language.
const ReasonUnsupportedLanguage = "unsupported_language"

// Request is one transcription request.
type Request struct {
	Audio    []byte `json:"-"`
	Filename string `json:"filename,omitempty"`
	Language string `json:"language,omitempty" validate:"omitempty,language"`
	Prompt   string `json:"prompt,omitempty" validate:"max=2000"`

	VerifySpeaker bool   `json:"verify_speaker,omitempty"`
	UserID        string `json:"user_id,omitempty" validate:"omitempty,subject"`

	// UseSemantics overrides the configured default when set.
	UseSemantics      *bool    `json:"use_semantics,omitempty"`
	SemanticThreshold *float64 `json:"semantic_threshold,omitempty" validate:"omitempty,gte=0,lte=1"`

	ReturnDebug bool `json:"return_debug,omitempty"`
	Translate   bool `json:"translate,omitempty"`
}

// Result is the response of one request.
type Result struct {
	Source         string   `json:"source"`
	Text           string   `json:"text"`
	TranslatedText string   `json:"translated_text,omitempty"`
	Metadata       Metadata `json:"metadata"`
	Debug          *Debug   `json:"debug,omitempty"`
}

// Metadata describes how the text was produced.
type Metadata struct {
	Confidence        *float64 `json:"confidence,omitempty"`
	SpeakerMatch      *float64 `json:"speaker_match,omitempty"`
	SpeakerVerified   *bool    `json:"speaker_verified,omitempty"`
	Duration          float64  `json:"duration"`
	Language          string   `json:"language"`
	FallbackUsed      bool     `json:"fallback_used"`
	SemanticDiff      *float64 `json:"semantic_diff,omitempty"`
	SemanticDivergent *bool    `json:"semantic_divergent,omitempty"`
	ChunksProcessed   int      `json:"chunks_processed"`
	BackendUsed       string   `json:"backend_used"`
	// ProcessingTime is the wall time of the request in seconds.
	ProcessingTime float64 `json:"processing_time"`
}

// Debug is returned when the request asks for it.
type Debug struct {
	RawResponses   []RawResponse `json:"raw_responses"`
	ChunkDetails   []ChunkDetail `json:"chunk_details"`
	FallbackReason string        `json:"fallback_reason,omitempty"`
	Notes          []string      `json:"notes,omitempty"`
}

// RawResponse is one backend call as seen by the orchestrator.
type RawResponse struct {
	Backend        string          `json:"backend"`
	Kind           string          `json:"kind"`
	Purpose        string          `json:"purpose"`
	SegmentIndex   int             `json:"segment_index"`
	OK             bool            `json:"ok"`
	Reason         string          `json:"reason,omitempty"`
	Error          string          `json:"error,omitempty"`
	ProcessingTime float64         `json:"processing_time"`
	Body           json.RawMessage `json:"body,omitempty"`
}

// ChunkDetail describes one segment of the chosen transcript.
type ChunkDetail struct {
	Index          int      `json:"index"`
	Offset         int64    `json:"offset"`
	Length         int64    `json:"length"`
	Duration       float64  `json:"duration"`
	Backend        string   `json:"backend"`
	Text           string   `json:"text"`
	Confidence     *float64 `json:"confidence,omitempty"`
	ProcessingTime float64  `json:"processing_time"`
}
