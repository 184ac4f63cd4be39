// cmd/clipguard/verdict.go
package main

import (
	"context"
)

// ClaimVerifier judges one claim against its ranked evidence through
// the judgment oracle.
type ClaimVerifier struct {
	oracle JudgmentOracle
}

// NewClaimVerifier creates a verifier bound to the oracle.
func NewClaimVerifier(oracle JudgmentOracle) *ClaimVerifier {
	return &ClaimVerifier{oracle: oracle}
}

// Verify returns the verdict for a claim. With no surviving evidence
// the verdict is insufficient_evidence and the oracle is never called:
// no evidence cannot support any other status, and the call would be
// wasted. An oracle failure also resolves to insufficient_evidence,
// with the failure recorded verbatim in the reason.
func (v *ClaimVerifier) Verify(ctx context.Context, claim Claim, evidence []EvidenceCandidate) ClaimVerdict {
	verdict := ClaimVerdict{
		ClaimID:   claim.ID,
		ClaimText: claim.Text,
		Category:  claim.Category,
		Evidence:  evidence,
	}

	if len(evidence) == 0 {
		verdict.Status = VerdictInsufficient
		verdict.Reason = "no relevant evidence found"
		return verdict
	}

	judgment, err := v.oracle.Judge(ctx, claim.Text, evidence)
	if err != nil {
		Logger().Error("Judgment failed for claim %s: %v", claim.ID, err)
		verdict.Status = VerdictInsufficient
		verdict.Reason = "judgment failed: " + err.Error()
		return verdict
	}

	verdict.Status = judgment.Status
	verdict.Reason = judgment.Reason
	return verdict
}
