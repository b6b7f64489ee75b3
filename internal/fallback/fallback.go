// Package fallback produces templated results used whenever the completion
// endpoint is unavailable or returns nothing usable. Every function is
// deterministic and always succeeds.
package fallback

import (
	"strconv"
	"strings"

	"github.com/careprep/ai-service/internal/model"
	"github.com/careprep/ai-service/internal/prompt"
	"github.com/careprep/ai-service/internal/textutil"
)

const (
	// MaxSymptoms caps the records listed in the symptom fallback.
	MaxSymptoms = 10
	// PreviewLength bounds the document preview.
	PreviewLength = 500

	DocumentFollowUpAction = "Discuss this document with your healthcare provider"
	DocumentFollowUpTiming = "At your next appointment"
	DocumentRedFlag        = "Contact your doctor if you have questions about this document"
)

// SymptomSummary lists up to MaxSymptoms records with generic next steps.
func SymptomSummary(symptoms []model.SymptomRecord) model.SymptomSummary {
	listed := symptoms
	if len(listed) > MaxSymptoms {
		listed = listed[:MaxSymptoms]
	}
	lines := make([]string, 0, len(listed))
	for _, s := range listed {
		date := s.Date
		if date == "" {
			date = "Unknown date"
		}
		symptom := s.Symptom
		if symptom == "" {
			symptom = "Unknown symptom"
		}
		lines = append(lines, "• "+date+": "+symptom+" (Severity: "+prompt.SeverityText(s.Severity)+"/10)")
	}

	summary := "**Symptom Summary for Your Doctor**\n\n" +
		"You have logged " + strconv.Itoa(len(symptoms)) + " symptom(s). Here's a summary to share with your healthcare provider:\n\n" +
		strings.Join(lines, "\n") + "\n\n" +
		"**Next Steps:**\n" +
		"• Discuss these symptoms with your doctor\n" +
		"• Mention any patterns you've noticed\n" +
		"• Ask about possible causes and treatments\n\n" +
		prompt.Disclaimer

	return model.SymptomSummary{Success: true, Summary: summary}
}

// DocumentSummary returns a preview of the document with a fixed follow-up
// and red flag.
func DocumentSummary(documentText string) model.DocumentSummary {
	preview := textutil.Preview(documentText, PreviewLength)

	return model.DocumentSummary{
		Success:       true,
		ProcessedText: documentText,
		DoctorSummary: preview,
		PatientSummary: "Your document has been processed. Here's a preview:\n\n" +
			preview + "\n\n" +
			"For a detailed explanation of this document, please consult with your healthcare provider.\n\n" +
			prompt.Disclaimer,
		Medications: []model.Medication{},
		FollowUps: []model.FollowUp{{
			Action: DocumentFollowUpAction,
			Timing: DocumentFollowUpTiming,
		}},
		RedFlags: []string{DocumentRedFlag},
	}
}

// Chat returns generic guidance for the mode and echoes the question back.
func Chat(message string, mode model.ChatMode) model.ChatResult {
	var b strings.Builder
	if mode == model.ModePreVisit {
		b.WriteString(`I understand you have a question about preparing for your doctor visit.

While I can't provide specific advice right now, here are some general tips:

1. **Write down your symptoms** - Note when they started, how often they occur, and their severity
2. **List your medications** - Include supplements and over-the-counter drugs
3. **Prepare your questions** - Write them down so you don't forget
4. **Bring relevant documents** - Test results, previous records, etc.

Your question was: "`)
		b.WriteString(message)
		b.WriteString(`"

Please discuss this with your healthcare provider during your visit.

`)
	} else {
		b.WriteString(`I understand you have a question about your visit notes.

While I can't process your specific question right now, here's general guidance:

1. **Review your documents** - Read through them carefully
2. **Note any unclear terms** - Ask your doctor to explain
3. **Follow medication instructions** - Take as prescribed
4. **Schedule follow-ups** - As recommended by your doctor

Your question was: "`)
		b.WriteString(message)
		b.WriteString(`"

For specific questions about your treatment, please contact your healthcare provider.

`)
	}
	b.WriteString(prompt.Disclaimer)

	return model.ChatResult{Success: true, Response: b.String()}
}

// OCRCleanup returns the text unchanged.
func OCRCleanup(text string) string {
	return text
}
