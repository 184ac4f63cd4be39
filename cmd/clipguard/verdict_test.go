// cmd/clipguard/verdict_test.go
package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyEmptyEvidenceSkipsOracle(t *testing.T) {
	oracle := newFakeOracle()
	v := NewClaimVerifier(oracle)

	verdict := v.Verify(context.Background(), mkClaim("c1", "the sky is green"), nil)

	assert.Equal(t, VerdictInsufficient, verdict.Status)
	assert.Equal(t, "no relevant evidence found", verdict.Reason)
	assert.Equal(t, 0, oracle.callCount("Judge"))
}

func TestVerifyPassesThroughJudgment(t *testing.T) {
	oracle := newFakeOracle()
	oracle.judgment = Judgment{Status: VerdictFalse, Reason: "refuted by three sources"}
	v := NewClaimVerifier(oracle)

	evidence := []EvidenceCandidate{mkEvidence("https://reuters.com/a", "2024-01-01", 0.9, 0.8)}
	verdict := v.Verify(context.Background(), mkClaim("c1", "the sky is green"), evidence)

	assert.Equal(t, VerdictFalse, verdict.Status)
	assert.Equal(t, "refuted by three sources", verdict.Reason)
	assert.Equal(t, evidence, verdict.Evidence)
	assert.Equal(t, 1, oracle.callCount("Judge"))
}

func TestVerifyOracleFailureFailsClosed(t *testing.T) {
	oracle := newFakeOracle()
	oracle.judgmentErr = NewError(ErrorTypeOracle, ErrOracleCall, "oracle call failed", nil)
	v := NewClaimVerifier(oracle)

	evidence := []EvidenceCandidate{mkEvidence("https://reuters.com/a", "2024-01-01", 0.9, 0.8)}
	verdict := v.Verify(context.Background(), mkClaim("c1", "claim"), evidence)

	assert.Equal(t, VerdictInsufficient, verdict.Status)
	assert.Contains(t, verdict.Reason, "judgment failed: ")
	assert.Contains(t, verdict.Reason, "oracle call failed")
}

func TestNormalizeVerdictStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want VerdictStatus
	}{
		{"verified_true", VerdictTrue},
		{"verified_false", VerdictFalse},
		{"insufficient_evidence", VerdictInsufficient},
		{"  Verified_True ", VerdictTrue},
		{"probably_fake", VerdictInsufficient},
		{"", VerdictInsufficient},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeVerdictStatus(tt.raw), "raw=%q", tt.raw)
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
}
