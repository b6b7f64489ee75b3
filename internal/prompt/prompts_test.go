package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/careprep/ai-service/internal/model"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func sampleSymptoms(n int) []model.SymptomRecord {
	out := make([]model.SymptomRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.SymptomRecord{
			Date:     fmt.Sprintf("2024-01-%02d", i+1),
			Symptom:  fmt.Sprintf("symptom-%02d", i+1),
			Severity: intPtr(i % 11),
		})
	}
	return out
}

func TestSymptomLine(t *testing.T) {
	assert.Equal(t,
		"- 2024-01-15: Headache (Severity: 7/10) - Notes: Started in the morning",
		SymptomLine(model.SymptomRecord{Date: "2024-01-15", Symptom: "Headache", Severity: intPtr(7), Notes: strPtr("Started in the morning")}))

	assert.Equal(t,
		"- Unknown date: Unknown (Severity: N/A/10) - Notes: None",
		SymptomLine(model.SymptomRecord{}))
}

func TestPromptsCarryPreambleAndDisclaimer(t *testing.T) {
	prompts := map[string]string{
		"symptom":  SymptomSummary(sampleSymptoms(2)),
		"document": DocumentSummary("Discharge note"),
		"pre":      PreVisitChat("hello", nil),
		"post":     PostVisitChat("hello", nil),
		"ocr":      OCRCleanup("n0isy t3xt"),
	}
	for name, p := range prompts {
		assert.Contains(t, p, "you do NOT provide medical advice", name)
		assert.Contains(t, p, "You do NOT diagnose conditions", name)
		assert.Contains(t, p, Disclaimer, name)
	}
}

func TestPromptsAreDeterministic(t *testing.T) {
	symptoms := sampleSymptoms(12)
	summary := &model.VisitSummary{PatientSummary: "All good", Medications: []model.Medication{model.NewMedication("Ibuprofen")}}

	assert.Equal(t, SymptomSummary(symptoms), SymptomSummary(symptoms))
	assert.Equal(t, DocumentSummary("text"), DocumentSummary("text"))
	assert.Equal(t, PreVisitChat("q", symptoms), PreVisitChat("q", symptoms))
	assert.Equal(t, PostVisitChat("q", summary), PostVisitChat("q", summary))
	assert.Equal(t, OCRCleanup("raw"), OCRCleanup("raw"))
}

func TestSymptomSummaryListsEveryRecord(t *testing.T) {
	p := SymptomSummary(sampleSymptoms(12))
	assert.Contains(t, p, "symptom-01")
	assert.Contains(t, p, "symptom-12")
	assert.Contains(t, p, "Severity trends")
	assert.Contains(t, p, "Suggested questions")
}

func TestDocumentSummaryEmbedsTextAndLabelsInOrder(t *testing.T) {
	doc := "Line one\n  indented   line two\t"
	p := DocumentSummary(doc)
	assert.Contains(t, p, doc)

	idx := []int{
		strings.Index(p, "**"+LabelSummary+"**"),
		strings.Index(p, "**"+LabelMedications+"**"),
		strings.Index(p, "**"+LabelFollowUps+"**"),
		strings.Index(p, "**"+LabelRedFlags+"**"),
	}
	for i, v := range idx {
		assert.GreaterOrEqual(t, v, 0, "label %d missing", i)
		if i > 0 {
			assert.Greater(t, v, idx[i-1], "label %d out of order", i)
		}
	}
}

func TestPreVisitChatLimitsSymptoms(t *testing.T) {
	p := PreVisitChat("What should I ask?", sampleSymptoms(12))
	assert.Contains(t, p, "PATIENT'S QUESTION: What should I ask?")
	assert.Contains(t, p, "symptom-10")
	assert.NotContains(t, p, "symptom-11")
	assert.NotContains(t, p, "symptom-12")

	empty := PreVisitChat("hi", nil)
	assert.Contains(t, empty, "No symptoms logged yet.")
}

func TestPostVisitChatContext(t *testing.T) {
	p := PostVisitChat("What is this pill for?", &model.VisitSummary{
		PatientSummary: "You had a mild cold.",
		Medications:    []model.Medication{model.NewMedication("Ibuprofen"), model.NewMedication("Cetirizine")},
	})
	assert.Contains(t, p, "You had a mild cold.")
	assert.Contains(t, p, "Medications: Ibuprofen, Cetirizine")
	assert.Contains(t, p, "PATIENT'S QUESTION: What is this pill for?")

	assert.Contains(t, PostVisitChat("q", nil), "No visit summary available.")

	empty := PostVisitChat("q", &model.VisitSummary{})
	assert.Contains(t, empty, "No visit summary available.")
	assert.NotContains(t, empty, "Recent visit summary")

	medsOnly := PostVisitChat("q", &model.VisitSummary{Medications: []model.Medication{model.NewMedication("Ibuprofen")}})
	assert.Contains(t, medsOnly, "No summary available")
	assert.Contains(t, medsOnly, "Medications: Ibuprofen")
}

func TestOCRCleanupEmbedsRawText(t *testing.T) {
	p := OCRCleanup("Pat1ent: J0hn")
	assert.Contains(t, p, "RAW OCR TEXT:\nPat1ent: J0hn")
	assert.Contains(t, p, "do not add, remove, or change medical details")
}
