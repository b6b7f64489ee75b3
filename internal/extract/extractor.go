// Package extract parses the sectioned reply requested by the document
// summary prompt into structured fields.
package extract

import (
	"regexp"
	"strings"

	"github.com/careprep/ai-service/internal/model"
	"github.com/careprep/ai-service/internal/textutil"
)

// MaxFallbackSummary bounds the summary taken from a reply without a summary label.
const MaxFallbackSummary = 1500

// Result holds the fields extracted from a reply. Slices are never nil.
type Result struct {
	PatientSummary string
	Medications    []model.Medication
	FollowUps      []model.FollowUp
	RedFlags       []string
}

type state int

const (
	seekingSummary state = iota
	inSummary
	inMedications
	inFollowUps
	inRedFlags
	// skipping ignores a repeated section; the first occurrence wins.
	skipping
)

var (
	labelPattern = regexp.MustCompile(`(?i)\*\*\s*(PATIENT-FRIENDLY SUMMARY|MEDICATIONS|FOLLOW-UP(?:\s+ACTIONS?)?|RED FLAGS)\s*:?\s*\*\*`)

	medicationPattern = regexp.MustCompile(`(?i)^\s*-\s*name:\s*(.+?)\s*$`)
	followUpPattern   = regexp.MustCompile(`(?i)^\s*-\s*action:\s*(.+?)\s*$`)
	enumeratorOnly    = regexp.MustCompile(`^\s*\d+[.)]?\s*$`)
)

func stateFor(label string) state {
	label = strings.ToUpper(label)
	switch {
	case strings.HasPrefix(label, "PATIENT"):
		return inSummary
	case strings.HasPrefix(label, "MEDICATIONS"):
		return inMedications
	case strings.HasPrefix(label, "FOLLOW-UP"):
		return inFollowUps
	default:
		return inRedFlags
	}
}

// Parse extracts the patient summary, medications, follow-ups and red flags
// from reply. A missing or malformed section leaves only that field at its
// default.
func Parse(reply string) Result {
	res := Result{
		Medications: []model.Medication{},
		FollowUps:   []model.FollowUp{},
		RedFlags:    []string{},
	}

	// Every label starts its own line, so one line never spans two sections.
	normalized := labelPattern.ReplaceAllString(strings.ReplaceAll(reply, "\r\n", "\n"), "\n$0")

	var (
		cur          = seekingSummary
		seen         = map[state]bool{}
		summaryLines []string
	)
	for _, line := range strings.Split(normalized, "\n") {
		if loc := labelPattern.FindStringSubmatchIndex(line); loc != nil && loc[0] == 0 {
			next := stateFor(line[loc[2]:loc[3]])
			if seen[next] {
				cur = skipping
			} else {
				seen[next] = true
				cur = next
			}
			line = strings.TrimLeft(line[loc[1]:], ": \t")
			if strings.TrimSpace(line) == "" {
				continue
			}
		}

		switch cur {
		case inSummary:
			summaryLines = append(summaryLines, line)
		case inMedications:
			if name, ok := field(medicationPattern, line); ok {
				res.Medications = append(res.Medications, model.NewMedication(name))
			}
		case inFollowUps:
			if action, ok := field(followUpPattern, line); ok {
				res.FollowUps = append(res.FollowUps, model.NewFollowUp(action))
			}
		case inRedFlags:
			if item, ok := bulletItem(line); ok {
				res.RedFlags = append(res.RedFlags, item)
			}
		}
	}

	if seen[inSummary] {
		res.PatientSummary = joinSummary(summaryLines)
	} else {
		res.PatientSummary = textutil.TruncateUTF8(reply, MaxFallbackSummary)
	}
	return res
}

// field returns the trimmed value of a "- key: value" line; a blank value
// is not an item.
func field(pattern *regexp.Regexp, line string) (string, bool) {
	m := pattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	v := strings.TrimSpace(m[1])
	return v, v != ""
}

func bulletItem(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, marker := range []string{"-", "•"} {
		if strings.HasPrefix(trimmed, marker) {
			item := strings.TrimSpace(strings.TrimPrefix(trimmed, marker))
			return item, item != ""
		}
	}
	return "", false
}

// joinSummary drops trailing blank or list-number lines left behind by a
// numbered label such as "2. **MEDICATIONS**".
func joinSummary(lines []string) string {
	for len(lines) > 0 {
		last := lines[len(lines)-1]
		if strings.TrimSpace(last) != "" && !enumeratorOnly.MatchString(last) {
			break
		}
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
