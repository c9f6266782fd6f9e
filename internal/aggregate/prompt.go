package aggregate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eden-ncr/backend/internal/models"
)

const wireDateLayout = "02-Jan-2006"

// wireRecord is the per-record shape sent to the model. The column-style
// keys are part of the prompt contract; the model echoes them back in its
// grouped response.
type wireRecord struct {
	Description string   `json:"Description"`
	Created     string   `json:"Created Date (WET)"`
	Closed      string   `json:"Expected Close Date (WET)"`
	Status      string   `json:"Status"`
	Discipline  string   `json:"Discipline"`
	Category    string   `json:"Discipline_Category"`
	Tower       string   `json:"Tower"`
	Pours       []string `json:"Pours"`
	Days        int      `json:"Days"`
}

func toWire(rec models.NormalizedRecord) wireRecord {
	w := wireRecord{
		Description: rec.Description,
		Created:     rec.Created.Format(wireDateLayout),
		Status:      string(rec.Status),
		Discipline:  rec.Discipline,
		Category:    string(rec.Category),
		Tower:       rec.Tower,
		Pours:       rec.Pours,
		Days:        rec.AgeDays,
	}
	if !rec.Closed.IsZero() {
		w.Closed = rec.Closed.Format(wireDateLayout)
	}
	return w
}

func marshalChunk(chunk []models.NormalizedRecord) string {
	wires := make([]wireRecord, len(chunk))
	for i, rec := range chunk {
		wires[i] = toWire(rec)
	}
	b, _ := json.Marshal(wires)
	return string(b)
}

// buildNCRPrompt asks the model to group a chunk by tower and cross-count
// discipline categories and pours. The grand total is pinned to the chunk
// length in the instructions; the merge step re-pins it locally regardless.
func buildNCRPrompt(report models.ReportType, chunk []models.NormalizedRecord) string {
	var b strings.Builder
	b.WriteString(
		"IMPORTANT: RETURN ONLY A SINGLE VALID JSON OBJECT WITH THE EXACT FIELDS SPECIFIED BELOW. " +
			"DO NOT GENERATE ANY CODE. DO NOT INCLUDE ANY TEXT, EXPLANATIONS, OR MULTIPLE RESPONSES " +
			"OUTSIDE THE JSON OBJECT. DO NOT WRAP THE JSON IN CODE BLOCKS. RETURN THE JSON OBJECT DIRECTLY.\n\n")
	b.WriteString(
		"Task: Group the provided data by 'Tower' and collect 'Description', 'Created Date (WET)', " +
			"'Expected Close Date (WET)', 'Status', 'Discipline', and 'Pours' into arrays. " +
			"Count the records by 'Discipline_Category' ('SW', 'FW', 'MEP'), calculate the 'Total' for each 'Tower', " +
			"and count occurrences of each pour within 'Pours' (e.g., P1, P2). ")
	fmt.Fprintf(&b, "Process ALL %d records provided in the data.\n", len(chunk))
	b.WriteString(
		"Use 'Tower' values (e.g., 'Eden-Tower-04-CommonArea', 'Eden-Tower-07-CommonArea', 'Common_Area'), " +
			"'Discipline_Category' values (e.g., 'SW', 'FW', 'MEP'), and provided 'Pours' values. Count each record exactly once.\n\n")
	b.WriteString("REQUIRED OUTPUT FORMAT (ONLY THESE FIELDS):\n")
	fmt.Fprintf(&b, `{
  "%s": {
    "Sites": {
      "Site_Name1": {
        "Descriptions": ["description1", "description2"],
        "Created Date (WET)": ["date1", "date2"],
        "Expected Close Date (WET)": ["date1", "date2"],
        "Status": ["status1", "status2"],
        "Discipline": ["discipline1", "discipline2"],
        "Pours": [["pour1a", "pour1b"], ["pour2"]],
        "SW": number,
        "FW": number,
        "MEP": number,
        "Total": number,
        "PoursCount": {"pour1": count1, "pour2": count2}
      }
    },
    "Grand_Total": %d
  }
}

`, report, len(chunk))
	fmt.Fprintf(&b, "Data: %s\n", marshalChunk(chunk))
	fmt.Fprintf(&b,
		"IMPORTANT: Ensure the JSON is valid and contains all required fields. "+
			"Return the result strictly as a JSON object, no code, no explanations, only the JSON. "+
			"Grand_Total must be %d.", len(chunk))
	return b.String()
}

// buildKeywordPrompt asks the model to count Safety or Housekeeping records
// per site. Records arrive pre-filtered, so the keyword condition restates
// the filter the normalizer already applied.
func buildKeywordPrompt(report models.ReportType, chunk []models.NormalizedRecord) string {
	var b strings.Builder
	b.WriteString(
		"Return a single valid JSON object with the exact fields specified below. " +
			"Do not generate code, explanations, multiple responses, or wrap the JSON in code blocks. " +
			"Process the provided data and return only the JSON object.\n\n")
	fmt.Fprintf(&b,
		"Task: Count %s NCRs by site ('Tower' field) where 'Discipline' is 'HSE' and 'Days' > 7 for open records. "+
			"Use 'Tower' values as they appear (e.g., 'Eden-Tower 04', 'Common_Area'). "+
			"Collect 'Description', 'Created Date (WET)', 'Expected Close Date (WET)', and 'Status' into arrays for each site. "+
			"Assign the count to 'Count'. If no matches, set count to 0 for each site in the data. "+
			"Return all sites present in the data.\n\n", report)
	b.WriteString("Output Format:\n")
	fmt.Fprintf(&b, `{
  "%s": {
    "Sites": {
      "Site_Name": {
        "Descriptions": [],
        "Created Date (WET)": [],
        "Expected Close Date (WET)": [],
        "Status": [],
        "Count": 0
      }
    },
    "Grand_Total": 0
  }
}

`, report)
	fmt.Fprintf(&b, "Data: %s\n", marshalChunk(chunk))
	return b.String()
}
