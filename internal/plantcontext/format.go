package plantcontext

import (
	"encoding/json"
	"strings"
)

const (
	contextBlockHeader = "--- USER PLANT COLLECTION (reference data) ---"
	contextBlockFooter = "--- END PLANT COLLECTION ---"

	contextInstruction = "The block above describes the user's plant collection. " +
		"Use it only when it is relevant to the question. Do not list or describe " +
		"these plants unless the user asks about them."
)

// ComposeMessage combines a user's question with a plant collection snapshot into
// the text sent upstream. The upstream assistant API has no structured channel for
// domain data, so the snapshot is embedded in a delimited block after the question.
// An empty snapshot leaves the question untouched.
//
// This is the only place the embedding convention lives; change it here if the
// upstream gateway ever grows a metadata channel.
func ComposeMessage(question string, snap Snapshot) string {
	if snap.PlantCount == 0 {
		return question
	}

	serialized, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		// Context is best-effort; an unserializable snapshot must not block the message
		return question
	}

	var sb strings.Builder
	sb.WriteString(question)
	sb.WriteString("\n\n")
	sb.WriteString(contextBlockHeader)
	sb.WriteString("\n")
	sb.Write(serialized)
	sb.WriteString("\n")
	sb.WriteString(contextBlockFooter)
	sb.WriteString("\n")
	sb.WriteString(contextInstruction)
	return sb.String()
}
