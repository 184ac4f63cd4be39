// cmd/clipguard/aggregate.go
package main

import (
	"context"
	"fmt"
	"strings"
)

// VerdictAggregator joins the per-claim text verdicts with the image
// and audio notes and asks the oracle for the final cross-modal
// verdict. Aggregation never fails the request: when the oracle is
// unreachable the result is a conservative not-fake verdict at low
// confidence.
type VerdictAggregator struct {
	oracle JudgmentOracle
}

// NewVerdictAggregator creates an aggregator bound to the oracle.
func NewVerdictAggregator(oracle JudgmentOracle) *VerdictAggregator {
	return &VerdictAggregator{oracle: oracle}
}

// Aggregate produces the final verdict for one analysis.
func (a *VerdictAggregator) Aggregate(ctx context.Context, video VideoInfo, verdicts []ClaimVerdict, text, image, audio ModalityResult) FinalVerdict {
	summary := buildClaimsSummary(verdicts, text, image, audio)

	answer, err := a.oracle.Aggregate(ctx, AggregateRequest{
		Video:         video,
		ClaimsSummary: summary,
	})
	if err != nil {
		Logger().Error("Final aggregation failed: %v", err)
		return FinalVerdict{
			IsFakeNews:       false,
			ConfidenceLevel:  "low",
			OverallReasoning: "aggregation failed: " + err.Error(),
			Recommendation:   "verify this content manually before sharing",
			Claims:           verdicts,
			TextSources:      collectSources(verdicts),
		}
	}

	return FinalVerdict{
		IsFakeNews:       answer.IsFakeNews,
		ConfidenceLevel:  answer.ConfidenceLevel,
		OverallReasoning: answer.OverallReasoning,
		TextSummary:      answer.TextSummary,
		ImageSummary:     answer.ImageSummary,
		AudioSummary:     answer.AudioSummary,
		KeyEvidence:      answer.KeyEvidence,
		Recommendation:   answer.Recommendation,
		Claims:           verdicts,
		TextSources:      collectSources(verdicts),
	}
}

// buildClaimsSummary renders the joined per-claim view the oracle
// reasons over. Image and audio notes are matched by claim ID; a claim
// a modality never annotated gets the neutral default, and a failed
// modality reports its error once at the top.
func buildClaimsSummary(verdicts []ClaimVerdict, text, image, audio ModalityResult) string {
	imageNotes := notesByClaim(image)
	audioNotes := notesByClaim(audio)

	var sb strings.Builder

	if text.Summary != "" {
		fmt.Fprintf(&sb, "Text analysis: %s\n", text.Summary)
	}
	if image.Status == ModalityError {
		fmt.Fprintf(&sb, "Image analysis unavailable: %s\n", image.Err)
	}
	if audio.Status == ModalityError {
		fmt.Fprintf(&sb, "Audio analysis unavailable: %s\n", audio.Err)
	}

	for i, v := range verdicts {
		fmt.Fprintf(&sb, "\nClaim %d: %s\n", i+1, v.ClaimText)
		fmt.Fprintf(&sb, "  Text verdict: %s (%s)\n", v.Status, v.Reason)
		fmt.Fprintf(&sb, "  Image note: %s\n", noteOrDefault(imageNotes, v.ClaimID, "no analysis"))
		fmt.Fprintf(&sb, "  Audio note: %s\n", noteOrDefault(audioNotes, v.ClaimID, "inconclusive"))
		for _, ev := range v.Evidence {
			fmt.Fprintf(&sb, "  Evidence: [%s] %s (%s)\n", ev.Domain, ev.Title, ev.PublishedDate)
		}
	}
	return sb.String()
}

func notesByClaim(m ModalityResult) map[string]string {
	notes := make(map[string]string, len(m.Notes))
	for _, n := range m.Notes {
		notes[n.ClaimID] = n.Note
	}
	return notes
}

func noteOrDefault(notes map[string]string, claimID, fallback string) string {
	if note, ok := notes[claimID]; ok && note != "" {
		return note
	}
	return fallback
}

// collectSources flattens the evidence behind all verdicts into one
// source list, deduplicated by URL in first-seen order.
func collectSources(verdicts []ClaimVerdict) []SourceRef {
	seen := make(map[string]bool)
	var sources []SourceRef
	for _, v := range verdicts {
		for _, ev := range v.Evidence {
			if ev.URL == "" || seen[ev.URL] {
				continue
			}
			seen[ev.URL] = true
			sources = append(sources, SourceRef{
				Reason: fmt.Sprintf("evidence for: %s", truncateText(v.ClaimText, 80)),
				Title:  ev.Title,
				URL:    ev.URL,
			})
		}
	}
	return sources
}
