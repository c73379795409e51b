package services

import (
	"strings"

	"github.com/RagnarAgustsson/HandritiB/internal/domain"
)

// Prompt architecture: the system prompt carries the stable instructions
// (cacheable, identical between calls for one profile), the user message
// carries the data being worked on.

// ContextWindow bounds how many prior transcripts feed note generation.
// Two segments keep referents and names resolvable without letting the
// prompt grow with session length.
const ContextWindow = 2

// contextSeparator delimits prior transcript blocks, latestMarker heads
// the segment notes are extracted from.
const (
	contextSeparator = "\n\n---\n\n"
	latestMarker     = "=== LATEST SEGMENT ==="
)

// transcribeGuidance steers the speech model toward Icelandic
// orthography; it is a hint, not a constraint.
const transcribeGuidance = `This is spoken Icelandic. Write down exactly what is said, in careful Icelandic.
Use correct spelling, punctuation and inflection.
Fix obvious speech disfluencies but never change meaning or word choice.
Icelandic letters: þ, ð, æ, ö, á, é, í, ó, ú, ý.`

const baseInstructions = `You are a careful Icelandic minute-taker and you answer in Icelandic only.

Write clear, natural, well-formed prose with correct spelling and punctuation.

Core rule:
Never add information that is not present in the input.
Never guess.
When something is unclear, stick to what can actually be read from the text.`

var profileContext = map[domain.Profile]string{
	domain.ProfileMeeting: `This is a meeting record.

Prioritize, in order:
1. Main topics discussed
2. Decisions made
3. Action items
4. Owners, when named
5. Dates or deadlines, when named
6. Items needing follow-up

Be concise, objective and clear.`,

	domain.ProfileLecture: `These are lecture notes.

Prioritize, in order:
1. Main ideas
2. Key concepts
3. Examples and explanations
4. Conclusions
5. Points worth remembering

Write in an organized, academically clear way.`,

	domain.ProfileInterview: `This is an interview summary.

Prioritize, in order:
1. The purpose of the interview, when stated
2. The main questions or topics
3. The main answers and information
4. Important facts, viewpoints and conclusions

Keep questions and answers clearly separated where it applies.`,

	domain.ProfileFreeform: `This is a general summary.

Bring out:
1. The main points
2. Important facts
3. Conclusions or next steps, when stated

Write in an organized, readable and concise way.`,
}

var finalSummaryStructure = map[domain.Profile]string{
	domain.ProfileMeeting: `Use these sections where the material applies:
1. Overview
2. Main topics
3. Decisions
4. Action items and next steps
5. Follow-ups
6. Open questions`,

	domain.ProfileLecture: `Use these sections where the material applies:
1. Overview
2. Main content
3. Key concepts
4. Examples and explanations
5. Conclusions and takeaways`,

	domain.ProfileInterview: `Use these sections where the material applies:
1. Overview
2. Purpose and context
3. Main questions or topics
4. Main answers and information
5. Key insights and conclusions`,

	domain.ProfileFreeform: `Use these sections where the material applies:
1. Overview
2. Main points
3. Important facts
4. Conclusions or next steps`,
}

func notesSystemPrompt(profile domain.Profile) string {
	return baseInstructions + "\n\n" + profileFor(profile) + `

The user message contains:
1. Limited prior context (when present), delimited by "---"
2. The latest segment to extract notes from, headed by "` + latestMarker + `"

Task:
Produce notes from the LATEST segment.
Use the prior context only to resolve references, names and continuing discussion.
Do not repeat prior-context material unless the latest segment needs it to make sense.

Return valid JSON only. No markdown, no code fences, no commentary.

The JSON must have EXACTLY this shape:
{
  "notes": [
    "Item 1",
    "Item 2"
  ],
  "rollingSummary": "A short, objective summary of everything covered so far."
}

Strict rules:
1. "notes" is an array of short, clear items grounded in the text
2. "rollingSummary" is short and objective and may merge prior context with the latest segment, but adds nothing new
3. If the latest segment contains very little, still return valid JSON
4. If nothing noteworthy appears, "notes" may be an empty array`
}

func finalSummarySystemPrompt(profile domain.Profile) string {
	return baseInstructions + "\n\n" + profileFor(profile) + `

The user message is the full transcript of a spoken session.
Write a polished final summary grounded exclusively in that material.

Layout:
` + structureFor(profile) + `

Strict rules:
1. Add nothing that is not in the text
2. Never guess names, dates, ownership or outcomes
3. Merge repetition without losing meaning
4. When information is missing, leave it out rather than filling gaps
5. Use clear headings
6. Call out action items, owners and deadlines when present

Return the summary only, with no preamble and no notes on method.`
}

func profileFor(p domain.Profile) string {
	if ctx, ok := profileContext[p]; ok {
		return ctx
	}
	return profileContext[domain.ProfileMeeting]
}

func structureFor(p domain.Profile) string {
	if s, ok := finalSummaryStructure[p]; ok {
		return s
	}
	return finalSummaryStructure[domain.ProfileMeeting]
}

// SanitizeTranscripts trims transcripts and drops the empty ones,
// preserving order.
func SanitizeTranscripts(parts []string) []string {
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			clean = append(clean, trimmed)
		}
	}
	return clean
}

// ContextBlock joins prior transcripts oldest-first into the context
// portion of a notes request. The caller has already bounded the window.
func ContextBlock(prior []string) string {
	return strings.Join(SanitizeTranscripts(prior), contextSeparator)
}
