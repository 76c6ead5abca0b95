package llm

import (
	"encoding/json"
	"strconv"
	"strings"

	"report-backend/internal/extract"
	"report-backend/internal/shared/util"
)

// Prompt is the system/user message pair sent to the inference service.
type Prompt struct {
	System string
	User   string
}

// Size is the prompt length in bytes.
func (p Prompt) Size() int {
	return len(p.System) + len(p.User)
}

const analysisSystem = "You are a business intelligence expert and senior data analyst with fifteen years of experience. " +
	"You extract the business meaning and strategic insight of data, not its technical properties. " +
	"Every analysis must be detailed enough to support business decisions. Reply with one JSON object only."

const revisionSystem = "You are a report editor. You revise business analysis reports according to user instructions " +
	"and keep their structure and professional tone. Reply with one JSON object only."

const chartSkeleton = `  "grafikler": [
    {
      "title": "Chart title that fits this data",
      "type": "one of: %TYPES%",
      "description": "Which business decision this chart supports for this specific data",
      "chartConfig": {
        "labels": ["meaningful categories or groups"],
        "datasets": [
          {
            "label": "meaningful dataset name",
            "data": [0],
            "backgroundColor": ["colors"],
            "borderColor": "border color",
            "borderWidth": 1
          }
        ],
        "options": {
          "responsive": true,
          "plugins": {"title": {"display": true, "text": "Chart title"}, "legend": {"display": true}},
          "scales": {"y": {"beginAtZero": true}}
        }
      },
      "dataSources": ["column names used"],
      "businessDecision": "Concrete business decision and action for this chart"
    }
  ]`

// CompileAnalysis renders the analysis prompt for a record. The output is
// a pure function of the record and the registry.
func CompileAnalysis(rec extract.Record) Prompt {
	var b strings.Builder
	b.WriteString("GOAL: Extract the most useful insights for the business person who will use this data. ")
	b.WriteString("Discover what the data means for the business and give actionable recommendations.\n\n")
	b.WriteString("Reply ONLY with JSON in exactly this shape (do not wrap it in markdown code fences):\n\n")
	b.WriteString("{\n")
	writeAnalizSkeleton(&b, "  ")
	b.WriteString(",\n")
	b.WriteString(strings.Replace(chartSkeleton, "%TYPES%", strings.Join(chartTypes, "/"), 1))
	b.WriteString("\n}\n\n")

	b.WriteString("CHART RECOMMENDATIONS:\n")
	b.WriteString("- Recommend between 5 and 7 distinct charts.\n")
	b.WriteString("- Spread them across these themes: ")
	labels := make([]string, 0, len(registry))
	for _, s := range registry {
		labels = append(labels, s.Label)
	}
	b.WriteString(strings.Join(labels, ", "))
	b.WriteString(".\n")
	b.WriteString("- type must be one of " + strings.Join(chartTypes, ", ") + ".\n")
	b.WriteString("- chartConfig.labels and every dataset's data must be literal values computed from the data below. No placeholders, formulas or code.\n\n")

	writeData(&b, rec)
	return Prompt{System: analysisSystem, User: b.String()}
}

// CompileRevision renders the revision prompt from the previous analiz object and the user's feedback.
func CompileRevision(previousAnaliz json.RawMessage, feedback string) Prompt {
	var b strings.Builder
	b.WriteString("Revise the analysis below according to the user's instructions.\n\n")
	b.WriteString("CURRENT ANALYSIS:\n")
	b.WriteString(indentJSON(previousAnaliz))
	b.WriteString("\n\nUSER INSTRUCTIONS:\n")
	b.WriteString(strings.TrimSpace(feedback))
	b.WriteString("\n\nKeep every section that the instructions do not touch. ")
	b.WriteString("Reply ONLY with JSON in exactly this shape (no markdown code fences):\n\n")
	b.WriteString("{\n")
	writeAnalizSkeleton(&b, "  ")
	b.WriteString("\n}\n")
	return Prompt{System: revisionSystem, User: b.String()}
}

func writeAnalizSkeleton(b *strings.Builder, indent string) {
	b.WriteString(indent + "\"analiz\": {\n")
	for i, s := range registry {
		b.WriteString(indent + "  ")
		b.WriteString(quote(s.Key))
		b.WriteString(": ")
		if s.Kind == SectionList {
			b.WriteString("[" + quote(s.Instruction) + "]")
		} else {
			b.WriteString(quote(s.Instruction))
		}
		if i < len(registry)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(indent + "}")
}

func writeData(b *strings.Builder, rec extract.Record) {
	b.WriteString("DATA TO ANALYZE:\n")
	if rec.Kind == extract.KindTable && rec.Table != nil {
		b.WriteString("Headers: " + strings.Join(rec.Table.Headers, ", ") + "\n")
		b.WriteString("Row count: " + strconv.Itoa(len(rec.Table.Rows)) + "\n\n")
		rows := rec.Table.Rows
		if len(rows) > extract.PromptRows {
			rows = rows[:extract.PromptRows]
		}
		b.WriteString("DETAILED DATA (first " + strconv.Itoa(len(rows)) + " rows):\n")
		raw, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			raw = []byte("[]")
		}
		b.Write(raw)
		b.WriteString("\n")
		return
	}
	b.WriteString("Document text (first " + strconv.Itoa(extract.PromptTextRunes) + " characters):\n")
	b.WriteString(util.TruncateRunes(rec.Text, extract.PromptTextRunes))
	b.WriteString("\n")
}

func indentJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}

func quote(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}
