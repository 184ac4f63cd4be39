// cmd/clipguard/orchestrator.go
package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ProgressFunc receives incremental pipeline events. A nil ProgressFunc
// disables streaming; the orchestrator never blocks on it.
type ProgressFunc func(ProgressEvent)

// Orchestrator drives one analysis request through the modality
// pipelines and the final aggregation.
type Orchestrator struct {
	videos     VideoMetadataFetcher
	transcript *TranscriptChain
	extractor  *ClaimExtractor
	text       *TextPipeline
	image      *ImagePipeline
	audio      *AudioPipeline
	aggregator *VerdictAggregator
}

// NewOrchestrator wires the full pipeline.
func NewOrchestrator(videos VideoMetadataFetcher, transcript *TranscriptChain, extractor *ClaimExtractor, text *TextPipeline, image *ImagePipeline, audio *AudioPipeline, aggregator *VerdictAggregator) *Orchestrator {
	return &Orchestrator{
		videos:     videos,
		transcript: transcript,
		extractor:  extractor,
		text:       text,
		image:      image,
		audio:      audio,
		aggregator: aggregator,
	}
}

// Analyze runs the full analysis for one request.
//
// Order of operations: metadata, transcript, claim extraction. With no
// claims the analysis short-circuits to a non-substantive verdict and
// no modality pipeline or aggregation runs. Otherwise the audio track
// runs first to completion, then the text and image tracks run
// concurrently. Only a text track failure is fatal; image and audio
// failures degrade to error sentinels that aggregation reports.
func (o *Orchestrator) Analyze(ctx context.Context, req AnalyzeRequest, progress ProgressFunc) (FinalVerdict, error) {
	started := time.Now()
	emit := func(stage, message string) {
		if progress != nil {
			progress(ProgressEvent{Type: "progress", Stage: stage, Message: message})
		}
	}

	emit("metadata", "fetching video metadata")
	video := o.videos.Fetch(ctx, req.VideoID)
	if video.Title == "" {
		video.Title = req.Title
	}
	if video.Description == "" {
		video.Description = req.Description
	}

	transcript := req.Transcript
	if strings.TrimSpace(transcript) == "" {
		emit("transcript", "acquiring transcript")
		transcript = o.transcript.Acquire(ctx, req.VideoID)
	}

	emit("claims", "extracting claims")
	claims := o.extractor.Extract(ctx, video.Title, video.Description, transcript, req.MaxClaims)

	if len(claims) == 0 {
		Logger().Info("No checkable claims in %s, short-circuiting", req.VideoID)
		return finishVerdict(nonSubstantiveVerdict(), started), nil
	}
	emit("claims", fmt.Sprintf("extracted %d claims", len(claims)))

	emit("audio", "running audio analysis")
	audioResult := o.audio.Run(ctx, video.Title, transcript, claims)

	emit("verify", "verifying claims against evidence")
	var (
		wg          sync.WaitGroup
		imageResult ModalityResult
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer RecoverFromPanic("image-pipeline")
		imageResult = o.image.Run(ctx, req.VideoID, claims)
	}()

	verdicts, textResult, err := o.text.Run(ctx, claims, video)
	wg.Wait()

	if err != nil {
		return FinalVerdict{}, fmt.Errorf("text verification failed: %v", err)
	}
	if imageResult.Modality == "" {
		imageResult = ErrorModalityResult("image", fmt.Errorf("image analysis did not complete"))
	}

	emit("aggregate", "producing final verdict")
	verdict := o.aggregator.Aggregate(ctx, video, verdicts, textResult, imageResult, audioResult)
	return finishVerdict(verdict, started), nil
}

// nonSubstantiveVerdict is the short-circuit result for content with
// nothing checkable in it.
func nonSubstantiveVerdict() FinalVerdict {
	return FinalVerdict{
		IsFakeNews:       false,
		ConfidenceLevel:  "high",
		OverallReasoning: "no checkable factual claims were found in this video",
		Recommendation:   "this content makes no verifiable factual assertions",
	}
}

func finishVerdict(v FinalVerdict, started time.Time) FinalVerdict {
	v.ProcessingTime = time.Since(started)
	v.ProcessingTimeMS = float64(v.ProcessingTime) / float64(time.Millisecond)
	return v
}
