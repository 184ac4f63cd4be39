// cmd/clipguard/types.go
package main

import (
	"strings"
	"time"
)

// Claim is an atomic, checkable assertion extracted from video text.
// Claims are immutable once extracted; every downstream stage reads
// them and joins results back by ID.
type Claim struct {
	ID         string `json:"claim_id"`
	Text       string `json:"claim_text"`
	Category   string `json:"category"`
	Importance string `json:"importance"` // high, medium, low
}

// SearchHit is one raw result from a web search collaborator, before
// any trust filtering has been applied.
type SearchHit struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	PublishedDate string  `json:"published_date,omitempty"`
	Score         float64 `json:"score,omitempty"`
}

// EvidenceCandidate is a filtered and scored search hit proposed to
// support or refute a claim. Scores are attached by the filter and
// ranker; after ranking the candidate is never mutated again.
type EvidenceCandidate struct {
	Title          string  `json:"source_title"`
	URL            string  `json:"source_url"`
	Domain         string  `json:"domain"`
	Snippet        string  `json:"snippet"`
	PublishedDate  string  `json:"published_date,omitempty"`
	TrustScore     float64 `json:"trust_score"`
	RelevanceScore float64 `json:"relevance_score"`

	// DateDiffDays is the absolute day distance between the evidence
	// publish date and the analyzed video's publish date. Negative
	// means unknown.
	DateDiffDays int `json:"date_diff_days"`

	CombinedScore float64 `json:"combined_score"`
}

// VerdictStatus is the tri-state outcome of judging one claim.
type VerdictStatus string

const (
	VerdictTrue         VerdictStatus = "verified_true"
	VerdictFalse        VerdictStatus = "verified_false"
	VerdictInsufficient VerdictStatus = "insufficient_evidence"
)

// NormalizeVerdictStatus maps an external status string onto the known
// set. Anything unrecognized collapses to insufficient_evidence so that
// a malformed oracle answer can never invent a verdict.
func NormalizeVerdictStatus(raw string) VerdictStatus {
	switch VerdictStatus(strings.TrimSpace(strings.ToLower(raw))) {
	case VerdictTrue:
		return VerdictTrue
	case VerdictFalse:
		return VerdictFalse
	default:
		return VerdictInsufficient
	}
}

// ClaimVerdict is the judgment for a single claim along with the
// evidence it was judged against.
type ClaimVerdict struct {
	ClaimID   string              `json:"claim_id"`
	ClaimText string              `json:"claim_text"`
	Category  string              `json:"category"`
	Status    VerdictStatus       `json:"verdict_status"`
	Reason    string              `json:"verdict_reason"`
	Evidence  []EvidenceCandidate `json:"evidence"`
}

// IsFake reports whether the claim was positively refuted. Kept for the
// aggregation math, which counts refuted claims against the total.
func (v ClaimVerdict) IsFake() bool {
	return v.Status == VerdictFalse
}

// ModalityStatus marks whether a modality pipeline completed.
type ModalityStatus string

const (
	ModalitySuccess ModalityStatus = "success"
	ModalityError   ModalityStatus = "error"
)

// ModalityNote is one modality's per-claim annotation, joined with the
// text verdicts by claim ID during aggregation.
type ModalityNote struct {
	ClaimID string `json:"claim_id"`
	Note    string `json:"note"`
}

// ModalityResult is the outcome of one analysis track. A failed track
// is represented as a sentinel with StatusError; it never aborts the
// request.
type ModalityResult struct {
	Modality string         `json:"modality"`
	Summary  string         `json:"analysis_summary"`
	Notes    []ModalityNote `json:"notes,omitempty"`
	Status   ModalityStatus `json:"status"`
	Err      string         `json:"error_message,omitempty"`
}

// ErrorModalityResult builds the degradation sentinel for a failed
// modality pipeline.
func ErrorModalityResult(modality string, err error) ModalityResult {
	return ModalityResult{
		Modality: modality,
		Summary:  modality + " analysis unavailable",
		Status:   ModalityError,
		Err:      err.Error(),
	}
}

// SourceRef is one consolidated source reference surfaced in the final
// verdict, deduplicated by URL.
type SourceRef struct {
	Reason string `json:"reason"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// FinalVerdict is the terminal artifact of one analysis request.
type FinalVerdict struct {
	IsFakeNews       bool           `json:"is_fake_news"`
	ConfidenceLevel  string         `json:"confidence_level"` // high, medium, low
	OverallReasoning string         `json:"overall_reasoning"`
	TextSummary      string         `json:"text_analysis_summary,omitempty"`
	ImageSummary     string         `json:"image_analysis_summary,omitempty"`
	AudioSummary     string         `json:"audio_analysis_summary,omitempty"`
	KeyEvidence      []string       `json:"key_evidence,omitempty"`
	TextSources      []SourceRef    `json:"text_sources,omitempty"`
	Recommendation   string         `json:"recommendation"`
	Claims           []ClaimVerdict `json:"claims,omitempty"`
	ProcessingTime   time.Duration  `json:"-"`
	ProcessingTimeMS float64        `json:"processing_time_ms"`
}

// AnalyzeRequest is the single operation the service exposes.
type AnalyzeRequest struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Transcript  string `json:"transcript,omitempty"`
	MaxClaims   int    `json:"max_claims,omitempty"`
}

// ProgressEvent is one entry of the incremental event stream. A stream
// terminates in exactly one "result" or "error" event.
type ProgressEvent struct {
	Type    string        `json:"type"` // progress, error, result
	Stage   string        `json:"stage,omitempty"`
	Message string        `json:"message,omitempty"`
	Result  *FinalVerdict `json:"result,omitempty"`
}

// VideoInfo is the metadata fetched for the analyzed video. The publish
// date anchors the date-proximity reranking.
type VideoInfo struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ChannelTitle string    `json:"channel_title"`
	PublishedAt  time.Time `json:"published_at"`
}
