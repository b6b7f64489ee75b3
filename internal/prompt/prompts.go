// Package prompt renders the prompts sent to the completion endpoint.
// Rendering is deterministic: identical input yields byte-identical output.
package prompt

import (
	"strconv"
	"strings"

	"github.com/careprep/ai-service/internal/model"
)

// Disclaimer is attached to every prompt and every fallback result.
const Disclaimer = `
IMPORTANT MEDICAL DISCLAIMER:
- This information is for EDUCATIONAL and ORGANIZATIONAL purposes ONLY
- This is NOT medical advice, diagnosis, or treatment
- ALWAYS consult a qualified healthcare professional for medical decisions
- In case of emergency, call emergency services immediately
`

// Section labels the document prompt asks for. The extractor depends on them.
const (
	LabelSummary     = "PATIENT-FRIENDLY SUMMARY"
	LabelMedications = "MEDICATIONS"
	LabelFollowUps   = "FOLLOW-UP ACTIONS"
	LabelRedFlags    = "RED FLAGS"
)

// MaxChatSymptoms caps the symptom records included in pre-visit chat context.
const MaxChatSymptoms = 10

// SystemPreamble constrains the assistant's role.
const SystemPreamble = `You are CarePrep AI, a friendly medical intelligence assistant that helps patients:
1. Prepare for doctor visits by organizing symptom information
2. Understand medical documents in simple, plain language

CRITICAL RULES YOU MUST ALWAYS FOLLOW:
- You are NOT a doctor and you do NOT provide medical advice
- You do NOT diagnose conditions
- You do NOT recommend treatments or medications
- You ALWAYS suggest consulting healthcare professionals
- You speak in friendly, calm, non-technical language
- You help ORGANIZE and UNDERSTAND information, not make medical decisions

` + Disclaimer

// SeverityText renders an optional severity the way prompts and fallbacks show it.
func SeverityText(severity *int) string {
	if severity == nil {
		return "N/A"
	}
	return strconv.Itoa(*severity)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// SymptomLine renders one symptom record for the symptom summary prompt.
func SymptomLine(s model.SymptomRecord) string {
	notes := "None"
	if s.Notes != nil {
		notes = *s.Notes
	}
	return "- " + orDefault(s.Date, "Unknown date") + ": " + orDefault(s.Symptom, "Unknown") +
		" (Severity: " + SeverityText(s.Severity) + "/10) - Notes: " + notes
}

// SymptomSummary renders the prompt asking for a doctor-ready symptom overview.
func SymptomSummary(symptoms []model.SymptomRecord) string {
	lines := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		lines = append(lines, SymptomLine(s))
	}

	var b strings.Builder
	b.WriteString(SystemPreamble)
	b.WriteString(`

TASK: Create a clear, organized summary of the patient's symptoms that they can share with their doctor.

PATIENT'S SYMPTOM LOG:
`)
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString(`

Please provide:
1. A brief overview of the symptom patterns
2. Timeline of symptoms (when they started, any changes)
3. Severity trends (are symptoms getting better, worse, or stable?)
4. Key points the patient should mention to their doctor
5. Suggested questions the patient might want to ask

Remember: This is to help the patient ORGANIZE information for their doctor, not to provide medical advice.

Format the response in a clear, easy-to-read way that the patient can share with their healthcare provider.`)
	return b.String()
}

// DocumentSummary renders the prompt asking for the four labelled sections.
// The document text is embedded unmodified.
func DocumentSummary(documentText string) string {
	var b strings.Builder
	b.WriteString(SystemPreamble)
	b.WriteString(`

TASK: Help the patient understand their medical document by explaining it in simple terms.

DOCUMENT TEXT:
`)
	b.WriteString(documentText)
	b.WriteString(`

Please provide each section below, in this exact order, starting each one with its label exactly as written:

1. **` + LabelSummary + `** (3-5 paragraphs)
   - Explain what the document says in simple, everyday language
   - Avoid medical jargon - if you must use a medical term, explain it
   - Focus on what the patient needs to know

2. **` + LabelMedications + `** (if any mentioned)
   For each medication, provide in JSON-like format:
   - name: medication name
   - dosage: how much to take
   - timing: when to take it
   - notes: any special instructions

3. **` + LabelFollowUps + `** (if any)
   List any follow-up appointments, tests, or actions mentioned:
   - action: what needs to be done
   - timing: when it should be done

4. **` + LabelRedFlags + `** (warning signs to watch for)
   List any symptoms or situations mentioned that would require immediate medical attention, one per line starting with "-".
   These are for AWARENESS only - always call emergency services for actual emergencies.

Format your response as structured sections that can be easily parsed.`)
	return b.String()
}

// PreVisitChat renders the pre-visit chat prompt with up to MaxChatSymptoms
// records as context.
func PreVisitChat(message string, symptoms []model.SymptomRecord) string {
	context := "No symptoms logged yet."
	if len(symptoms) > 0 {
		if len(symptoms) > MaxChatSymptoms {
			symptoms = symptoms[:MaxChatSymptoms]
		}
		lines := make([]string, 0, len(symptoms))
		for _, s := range symptoms {
			lines = append(lines, "- "+orDefault(s.Symptom, "Unknown")+
				" (Severity: "+SeverityText(s.Severity)+"/10) on "+orDefault(s.Date, "Unknown date"))
		}
		context = "Patient's recent symptoms:\n" + strings.Join(lines, "\n")
	}

	return SystemPreamble + `

MODE: PRE-VISIT PREPARATION
You are helping the patient prepare for their upcoming doctor's appointment.

` + context + `

PATIENT'S QUESTION: ` + message + `

Provide a helpful, friendly response that:
1. Helps them organize their thoughts for the doctor visit
2. Suggests what information might be useful to share
3. Recommends questions they might want to ask
4. Reminds them that their doctor is the best source for medical advice

Keep your response conversational and supportive. Do NOT provide medical advice or diagnoses.

End your response with a brief reminder to discuss concerns with their healthcare provider.`
}

// PostVisitChat renders the post-visit chat prompt with the prior visit
// summary and medication names as context.
func PostVisitChat(message string, summary *model.VisitSummary) string {
	context := "No visit summary available."
	if !summary.IsEmpty() {
		names := make([]string, 0, len(summary.Medications))
		for _, m := range summary.Medications {
			names = append(names, orDefault(m.Name, "Unknown"))
		}
		context = "\nRecent visit summary:\n" +
			orDefault(summary.PatientSummary, "No summary available") +
			"\n\nMedications: " + strings.Join(names, ", ") + "\n"
	}

	return SystemPreamble + `

MODE: POST-VISIT UNDERSTANDING
You are helping the patient understand their recent medical visit and documents.

` + context + `

PATIENT'S QUESTION: ` + message + `

Provide a helpful, friendly response that:
1. Helps them understand medical terms in simple language
2. Clarifies any confusing information from their visit
3. Helps them remember important follow-up actions
4. Encourages them to contact their doctor if they have medical concerns

Keep your response conversational and reassuring. Do NOT provide medical advice.

If they ask about changing medications or treatments, remind them to consult their healthcare provider.

End your response with a brief reminder that you're here to help them understand, not to provide medical advice.`
}

// OCRCleanup renders the prompt asking the model to repair OCR noise.
// The preamble is included for role constraint; the reply must be the
// cleaned text alone.
func OCRCleanup(rawText string) string {
	return SystemPreamble + `

TASK: Clean up the following OCR-extracted text from a medical document.
Fix obvious OCR errors, correct spacing issues, and organize the text into readable paragraphs.
Keep all medical information intact - do not add, remove, or change medical details.
Do not add commentary or the disclaimer to your reply.

RAW OCR TEXT:
` + rawText + `

Provide the cleaned, readable version of the text.`
}
