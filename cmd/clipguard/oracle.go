// cmd/clipguard/oracle.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Judgment is the oracle's answer for one claim.
type Judgment struct {
	Status VerdictStatus `json:"verdict_status"`
	Reason string        `json:"reason"`
}

// AggregateRequest carries everything the oracle needs for the final
// cross-modal reasoning step.
type AggregateRequest struct {
	Video         VideoInfo
	ClaimsSummary string
}

// AggregateAnswer is the oracle's final reasoning output.
type AggregateAnswer struct {
	IsFakeNews       bool     `json:"is_fake_news"`
	ConfidenceLevel  string   `json:"confidence_level"`
	OverallReasoning string   `json:"overall_reasoning"`
	TextSummary      string   `json:"text_analysis_summary"`
	ImageSummary     string   `json:"image_analysis_summary"`
	AudioSummary     string   `json:"audio_analysis_summary"`
	KeyEvidence      []string `json:"key_evidence"`
	Recommendation   string   `json:"recommendation"`
}

// JudgmentOracle is the external reasoning collaborator. Every method
// is request/response and fails closed: ambiguous output maps to the
// neutral value, never to a panic or a fabricated verdict.
type JudgmentOracle interface {
	ExtractClaims(ctx context.Context, title, description, transcript string, maxClaims int) ([]Claim, error)
	BuildQuery(ctx context.Context, claimText string) (string, error)
	Judge(ctx context.Context, claimText string, evidence []EvidenceCandidate) (Judgment, error)
	Aggregate(ctx context.Context, req AggregateRequest) (AggregateAnswer, error)
	CheckClickbait(ctx context.Context, title, transcript string) (string, error)
}

// OpenAIOracle implements JudgmentOracle against the OpenAI chat API.
type OpenAIOracle struct {
	client      *openai.Client
	model       string
	temperature float32
	limiter     *rate.Limiter
	timeout     time.Duration
}

// NewOpenAIOracle creates the production oracle client.
func NewOpenAIOracle(cfg *Config) *OpenAIOracle {
	return &OpenAIOracle{
		client:      openai.NewClient(cfg.OpenAIAPIKey),
		model:       cfg.OracleModel,
		temperature: cfg.OracleTemperature,
		limiter:     rate.NewLimiter(rate.Limit(cfg.OracleRateLimit), 1),
		timeout:     cfg.OracleTimeout(),
	}
}

// complete performs one chat call and returns the raw text answer. The
// call is bounded by the configured oracle timeout; rate limiter waits
// do not count against it.
func (o *OpenAIOracle) complete(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", err
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", NewError(ErrorTypeOracle, ErrOracleCall, "oracle call failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", NewError(ErrorTypeOracle, ErrOracleCall, "oracle returned no choices", nil)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// completeJSON performs one chat call and unmarshals the JSON answer
// into out. Code-fence wrappers are stripped before parsing.
func (o *OpenAIOracle) completeJSON(ctx context.Context, prompt string, out interface{}) error {
	text, err := o.complete(ctx, prompt, true)
	if err != nil {
		return err
	}

	text = stripCodeFence(text)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return NewError(ErrorTypeOracle, ErrOracleBadJSON, "failed to parse oracle response", err)
	}
	return nil
}

// stripCodeFence removes a surrounding markdown code block if the model
// wrapped its JSON answer in one.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// ExtractClaims pulls checkable factual assertions out of the video's
// title, description and transcript.
func (o *OpenAIOracle) ExtractClaims(ctx context.Context, title, description, transcript string, maxClaims int) ([]Claim, error) {
	script := "no transcript available"
	if transcript != "" {
		script = truncateText(transcript, 50000)
	}

	prompt := fmt.Sprintf(`Extract specific claims worth fact-checking from this video's text.

Video title: %s

Video description:
%s

Video transcript:
%s

Extraction rules:
1. Prefer claims that are controversial or could mislead the public over plain statements of fact.
2. Prefer concrete claims with numbers, dates or named events over vague ones.
3. Prefer claims tied to the video's central topic.
4. Return at most %d claims, most important first.

Output JSON:
{
  "claims": [
    {
      "claim": "a complete sentence with an explicit subject and predicate",
      "category": "politics|economy|society|science|health|tech|world|culture|history|other",
      "importance": "high|medium|low"
    }
  ]
}

Respond with JSON only.`, title, description, script, maxClaims)

	var parsed struct {
		Claims []struct {
			Claim      string `json:"claim"`
			Category   string `json:"category"`
			Importance string `json:"importance"`
		} `json:"claims"`
	}
	if err := o.completeJSON(ctx, prompt, &parsed); err != nil {
		return nil, err
	}

	claims := make([]Claim, 0, len(parsed.Claims))
	for _, raw := range parsed.Claims {
		if strings.TrimSpace(raw.Claim) == "" {
			continue
		}
		claims = append(claims, Claim{
			ID:         uuid.NewString(),
			Text:       strings.TrimSpace(raw.Claim),
			Category:   raw.Category,
			Importance: normalizeImportance(raw.Importance),
		})
	}
	return claims, nil
}

func normalizeImportance(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return "high"
	case "low":
		return "low"
	default:
		return "medium"
	}
}

// BuildQuery turns one claim into a keyword-focused search query.
// On failure the caller falls back to the claim text itself.
func (o *OpenAIOracle) BuildQuery(ctx context.Context, claimText string) (string, error) {
	prompt := fmt.Sprintf(`You write search engine queries for fact-checking.
Produce the single query most likely to surface authoritative coverage of this claim.

Claim: %q

Rules:
1. Keep only the key entities, drop filler words.
2. Keep any dates or proper nouns from the claim.
3. Answer with the query on one line, no quotes.`, claimText)

	query, err := o.complete(ctx, prompt, false)
	if err != nil {
		return "", err
	}

	query = strings.Trim(query, `"'`)
	if query == "" {
		return "", NewError(ErrorTypeOracle, ErrOracleBadJSON, "oracle returned empty query", nil)
	}
	return query, nil
}

// Judge asks the oracle for a tri-state verdict on one claim against
// its ranked evidence. Unknown status values collapse to
// insufficient_evidence.
func (o *OpenAIOracle) Judge(ctx context.Context, claimText string, evidence []EvidenceCandidate) (Judgment, error) {
	var sb strings.Builder
	for i, ev := range evidence {
		fmt.Fprintf(&sb, "\n%d. [%s] %s\n   %s\n", i+1, ev.Domain, ev.Title, ev.Snippet)
	}

	prompt := fmt.Sprintf(`You are a fact-checker. Decide whether the evidence supports the claim.

Claim: %q

Collected evidence:
%s

Decision rules:
1. Evidence supports the claim -> verdict_status "verified_true"
2. Evidence refutes the claim -> verdict_status "verified_false"
3. Evidence is inconclusive -> verdict_status "insufficient_evidence"

Output JSON:
{
  "verdict_status": "verified_true|verified_false|insufficient_evidence",
  "reason": "one sentence summarizing the judgment"
}`, claimText, sb.String())

	var parsed struct {
		VerdictStatus string `json:"verdict_status"`
		Reason        string `json:"reason"`
	}
	if err := o.completeJSON(ctx, prompt, &parsed); err != nil {
		return Judgment{}, err
	}

	reason := parsed.Reason
	if reason == "" {
		reason = "no reason given"
	}
	return Judgment{
		Status: NormalizeVerdictStatus(parsed.VerdictStatus),
		Reason: reason,
	}, nil
}

// Aggregate performs the final cross-modal reasoning over the per-claim
// summary the aggregator assembled.
func (o *OpenAIOracle) Aggregate(ctx context.Context, req AggregateRequest) (AggregateAnswer, error) {
	prompt := fmt.Sprintf(`You are the final reviewer of a multimodal misinformation analysis.

Video: %q (channel: %s, published %s)

Per-claim findings:
%s

Weigh the text fact-check verdicts most heavily; the image and audio
notes describe sensationalism and title mismatch, which support but do
not decide the verdict.

Output JSON:
{
  "is_fake_news": true|false,
  "confidence_level": "high|medium|low",
  "overall_reasoning": "...",
  "text_analysis_summary": "...",
  "image_analysis_summary": "...",
  "audio_analysis_summary": "...",
  "key_evidence": ["..."],
  "recommendation": "..."
}`, req.Video.Title, req.Video.ChannelTitle, formatDate(req.Video.PublishedAt), req.ClaimsSummary)

	var answer AggregateAnswer
	if err := o.completeJSON(ctx, prompt, &answer); err != nil {
		return AggregateAnswer{}, err
	}

	switch answer.ConfidenceLevel {
	case "high", "medium", "low":
	default:
		answer.ConfidenceLevel = "low"
	}
	return answer, nil
}

// CheckClickbait compares the video title against the transcript and
// summarizes whether the title misrepresents the content.
func (o *OpenAIOracle) CheckClickbait(ctx context.Context, title, transcript string) (string, error) {
	prompt := fmt.Sprintf(`Compare this video's title with its actual spoken content and decide
whether the title is clickbait that distorts or exaggerates the content.

Title: %s

Spoken content:
%s

Consider: does the title's core event appear in the content, and does
the content stay on the title's topic? Answer with one sentence.`, title, truncateText(transcript, 3000))

	return o.complete(ctx, prompt, false)
}
