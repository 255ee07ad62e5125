package synthesis

import (
	"strings"

	"github.com/poiesic/recall/core"
)

// boilerplatePrefixes are lead-ins models add that carry no information.
// Matched case-insensitively against the start of the answer.
var boilerplatePrefixes = []string{
	"based on the provided context,",
	"based on the provided notes,",
	"based on the context,",
	"based on your notes,",
	"according to the provided information,",
	"according to the documents,",
	"according to your notes,",
	"here is what i found:",
	"here's what i found:",
}

// intentInstructions shape the answer per intent.
var intentInstructions = map[core.Intent]string{
	core.IntentProblemSolving: "You help the user resolve a problem using their own notes. " +
		"Identify the likely cause and give concrete corrective steps drawn from the notes.",
	core.IntentHowTo: "You walk the user through a procedure documented in their own notes. " +
		"Answer as a short ordered sequence of steps.",
	core.IntentConceptExplanation: "You explain a concept using the user's own notes. " +
		"Define the concept first, then elaborate with specifics from the notes.",
	core.IntentInformationSeeking: "You answer the user's question strictly from their own notes. " +
		"Be direct and cite which note the answer comes from by its title.",
}

// responseStyles adjust the requested length and register.
var responseStyles = map[string]string{
	"comprehensive": "Cover every relevant point the notes contain.",
	"concise":       "Answer in at most three sentences.",
	"detailed":      "Include concrete values, commands, and names from the notes.",
}

// instructionFor combines the intent template with the response style.
// Unknown values fall back to information seeking and comprehensive.
func instructionFor(intent core.Intent, responseType string) string {
	instruction, ok := intentInstructions[intent]
	if !ok {
		instruction = intentInstructions[core.IntentInformationSeeking]
	}
	style, ok := responseStyles[strings.ToLower(strings.TrimSpace(responseType))]
	if !ok {
		style = responseStyles["comprehensive"]
	}
	return instruction + " " + style + " Answer in the language of the question."
}

// extractiveLeadIn opens an extractive answer per intent.
func extractiveLeadIn(intent core.Intent) string {
	switch intent {
	case core.IntentProblemSolving:
		return "Your notes describe a similar problem:"
	case core.IntentHowTo:
		return "Your notes document this procedure:"
	case core.IntentConceptExplanation:
		return "Your notes cover this concept:"
	default:
		return "The most relevant note found:"
	}
}
