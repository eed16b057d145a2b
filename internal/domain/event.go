package domain

import "github.com/google/uuid"

// Realtime event names pushed to connected users
const (
	EventNewProof      = "new-proof"
	EventProofVerified = "proof-verified"
)

type NewProofEvent struct {
	HabitID uuid.UUID `json:"habitId"`
	Proof   *Proof    `json:"proof"`
}

type ProofVerifiedEvent struct {
	ProofID uuid.UUID  `json:"proofId"`
	Action  VoteAction `json:"action"`
	By      uuid.UUID  `json:"by"`
}
