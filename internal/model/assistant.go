package model

// Placeholders used when the model reply does not carry the field.
const (
	DefaultDosage         = "As prescribed"
	DefaultTiming         = "Follow doctor instructions"
	DefaultFollowUpTiming = "As scheduled"
)

// ChatMode selects which chat prompt is rendered.
type ChatMode string

const (
	ModePreVisit  ChatMode = "pre_visit"
	ModePostVisit ChatMode = "post_visit"
)

// Valid reports whether m is one of the supported modes.
func (m ChatMode) Valid() bool {
	return m == ModePreVisit || m == ModePostVisit
}

// SymptomRecord is a single entry of a patient's symptom log.
type SymptomRecord struct {
	Date     string  `json:"date"`
	Symptom  string  `json:"symptom"`
	Severity *int    `json:"severity,omitempty" binding:"omitempty,min=0,max=10"`
	Notes    *string `json:"notes,omitempty"`
}

// Medication is a medication mentioned in a document. Only Name comes from
// the model; the remaining fields carry placeholders.
type Medication struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
	Timing string `json:"timing"`
	Notes  string `json:"notes"`
}

// NewMedication returns a Medication with placeholder dosage and timing.
func NewMedication(name string) Medication {
	return Medication{
		Name:   name,
		Dosage: DefaultDosage,
		Timing: DefaultTiming,
		Notes:  "",
	}
}

// FollowUp is an action the patient should take after a visit.
type FollowUp struct {
	Action string `json:"action"`
	Timing string `json:"timing"`
}

// NewFollowUp returns a FollowUp with the placeholder timing.
func NewFollowUp(action string) FollowUp {
	return FollowUp{Action: action, Timing: DefaultFollowUpTiming}
}

// SymptomSummary is the result of summarizing a symptom log.
type SymptomSummary struct {
	Success bool   `json:"success"`
	Summary string `json:"summary"`
}

// DocumentSummary is the result of summarizing a medical document. Every
// slice is non-nil so the JSON form always carries all keys.
type DocumentSummary struct {
	Success        bool         `json:"success"`
	ProcessedText  string       `json:"processedText"`
	DoctorSummary  string       `json:"doctorSummary"`
	PatientSummary string       `json:"patientSummary"`
	Medications    []Medication `json:"medications"`
	FollowUps      []FollowUp   `json:"followUps"`
	RedFlags       []string     `json:"redFlags"`
}

// Normalize replaces nil slices with empty ones.
func (d *DocumentSummary) Normalize() {
	if d.Medications == nil {
		d.Medications = []Medication{}
	}
	if d.FollowUps == nil {
		d.FollowUps = []FollowUp{}
	}
	if d.RedFlags == nil {
		d.RedFlags = []string{}
	}
}

// ChatResult is the assistant reply to a chat message.
type ChatResult struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

// VisitSummary is the prior document summary used as post-visit context.
type VisitSummary struct {
	PatientSummary string       `json:"patientSummary"`
	Medications    []Medication `json:"medications"`
}

// IsEmpty reports whether the summary carries neither text nor medications.
func (v *VisitSummary) IsEmpty() bool {
	return v == nil || (v.PatientSummary == "" && len(v.Medications) == 0)
}

// ChatContext carries mode specific context for a chat message.
type ChatContext struct {
	Symptoms []SymptomRecord `json:"symptoms,omitempty" binding:"omitempty,dive"`
	Summary  *VisitSummary   `json:"summary,omitempty"`
}
