package reports

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"report-backend/internal/llm"
)

var (
	leadingFence  = regexp.MustCompile("^```[A-Za-z0-9_-]*[ \t]*\r?\n?")
	trailingFence = regexp.MustCompile("\r?\n?[ \t]*```$")
)

// StripFences removes one markdown code fence wrapping the completion, if present.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = leadingFence.ReplaceAllString(s, "")
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParseAnalysis validates a completion against the analysis contract.
// A missing or non-object analiz rejects the whole result; malformed charts are
// dropped and reported as rejections.
func ParseAnalysis(raw string) (AnalysisResult, []ChartRejection, error) {
	top, err := parseTopLevel(raw)
	if err != nil {
		return AnalysisResult{}, nil, err
	}
	result, rejections := normalizeResult(top)
	return result, rejections, nil
}

// ParseRevision validates a revision completion and returns its analiz sections.
func ParseRevision(raw string) (Sections, error) {
	top, err := parseTopLevel(raw)
	if err != nil {
		return nil, err
	}
	analiz, _ := top["analiz"].(map[string]any)
	return normalizeSections(analiz), nil
}

// Normalize re-validates an existing result. It is a no-op on validator output.
func Normalize(result AnalysisResult) (AnalysisResult, []ChartRejection, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return AnalysisResult{}, nil, fmt.Errorf("%w: %v", ErrContractViolation, err)
	}
	return ParseAnalysis(string(raw))
}

func parseTopLevel(raw string) (map[string]any, error) {
	body := StripFences(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty completion", ErrContractViolation)
	}
	var value any
	if err := json.Unmarshal([]byte(body), &value); err != nil {
		return nil, fmt.Errorf("%w: completion is not valid JSON: %v", ErrContractViolation, err)
	}
	top, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: completion is not a JSON object", ErrContractViolation)
	}
	analiz, ok := top["analiz"]
	if !ok || analiz == nil {
		return nil, fmt.Errorf("%w: analiz is missing", ErrContractViolation)
	}
	if _, ok := analiz.(map[string]any); !ok {
		return nil, fmt.Errorf("%w: analiz is not an object", ErrContractViolation)
	}
	return top, nil
}

// normalizeResult applies the lenient per-field rules to a decoded top-level object.
func normalizeResult(top map[string]any) (AnalysisResult, []ChartRejection) {
	analiz, _ := top["analiz"].(map[string]any)
	result := AnalysisResult{Analiz: normalizeSections(analiz), Grafikler: []ChartSpec{}}

	switch charts := top["grafikler"].(type) {
	case nil:
		return result, nil
	case []any:
		var rejections []ChartRejection
		result.Grafikler, rejections = normalizeCharts(charts)
		return result, rejections
	default:
		return result, []ChartRejection{{Index: -1, Reason: "grafikler is not a list"}}
	}
}

func normalizeSections(raw map[string]any) Sections {
	out := Sections{}
	for _, sec := range llm.Registry() {
		v, ok := raw[sec.Key]
		if !ok || v == nil {
			continue
		}
		if sec.Kind == llm.SectionList {
			out[sec.Key] = toStringList(v)
		} else {
			out[sec.Key] = toText(v)
		}
	}
	return out
}

func normalizeCharts(items []any) ([]ChartSpec, []ChartRejection) {
	charts := make([]ChartSpec, 0, len(items))
	var rejections []ChartRejection
	for i, item := range items {
		chart, rejection := normalizeChart(i, item)
		if rejection != nil {
			rejections = append(rejections, *rejection)
			continue
		}
		charts = append(charts, chart)
	}
	return charts, rejections
}

func normalizeChart(index int, item any) (ChartSpec, *ChartRejection) {
	entry, ok := item.(map[string]any)
	if !ok {
		return ChartSpec{}, &ChartRejection{Index: index, Reason: "entry is not an object"}
	}
	chart := ChartSpec{
		Title:            firstText(entry, "title", "baslik"),
		Description:      firstText(entry, "description", "aciklama"),
		BusinessDecision: firstText(entry, "businessDecision", "isKarar"),
		DataSources:      []string{},
	}
	reject := func(reason string) (ChartSpec, *ChartRejection) {
		return ChartSpec{}, &ChartRejection{Index: index, Title: chart.Title, Reason: reason}
	}

	config, ok := firstValue(entry, "chartConfig", "chartjsKodu").(map[string]any)
	if !ok {
		return reject("chartConfig is missing or not an object")
	}
	data, _ := config["data"].(map[string]any)

	chart.Type = strings.ToLower(strings.TrimSpace(firstText(entry, "type", "tip")))
	if chart.Type == "" {
		chart.Type = strings.ToLower(strings.TrimSpace(textValue(config["type"])))
	}
	if !llm.IsChartType(chart.Type) {
		return reject(fmt.Sprintf("unsupported chart type %q", chart.Type))
	}

	labelsValue, ok := config["labels"]
	if !ok && data != nil {
		labelsValue = data["labels"]
	}
	labels, ok := labelsValue.([]any)
	if !ok || len(labels) == 0 {
		return reject("chartConfig.labels must be a non-empty list")
	}

	datasetsValue, ok := config["datasets"]
	if !ok && data != nil {
		datasetsValue = data["datasets"]
	}
	datasetItems, ok := datasetsValue.([]any)
	if !ok || len(datasetItems) == 0 {
		return reject("chartConfig.datasets must be a non-empty list")
	}
	datasets := make([]map[string]any, 0, len(datasetItems))
	for _, d := range datasetItems {
		ds, ok := d.(map[string]any)
		if !ok {
			return reject("chartConfig.datasets entries must be objects")
		}
		datasets = append(datasets, ds)
	}

	chart.ChartConfig = ChartConfig{Labels: labels, Datasets: datasets}
	if options, ok := config["options"].(map[string]any); ok && len(options) > 0 {
		chart.ChartConfig.Options = options
	}
	if sources := firstValue(entry, "dataSources", "veriKaynaklari"); sources != nil {
		chart.DataSources = toStringList(sources)
	}
	return chart, nil
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstText(m map[string]any, keys ...string) string {
	return strings.TrimSpace(textValue(firstValue(m, keys...)))
}

func textValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return toText(t)
	}
}

func toText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		return joinLines(toStringList(t))
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

func toStringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string{}, t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if item == nil {
				continue
			}
			out = append(out, toText(item))
		}
		return out
	case string:
		if strings.TrimSpace(t) == "" {
			return []string{}
		}
		return []string{t}
	default:
		return []string{toText(t)}
	}
}

func joinLines(items []string) string {
	return strings.Join(items, "\n")
}
