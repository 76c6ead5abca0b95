package llm

// SectionKind is the value shape a section holds in the analysis result.
type SectionKind string

const (
	SectionText SectionKind = "text"
	SectionList SectionKind = "list"
)

// Section is one named subsection of an analysis report. The registry
// drives both the requested output shape and the validator's accepted keys.
type Section struct {
	Key         string
	Label       string
	Instruction string
	Kind        SectionKind
}

var registry = []Section{
	{Key: "veriTuru", Label: "Data type", Kind: SectionText,
		Instruction: "Inspect the data and decide which business domain it belongs to."},
	{Key: "genelOzet", Label: "General summary", Kind: SectionText,
		Instruction: "Overall business situation shown by the data, the most important figures, and where its conclusions can be used."},
	{Key: "derinAnaliz", Label: "Deep analysis", Kind: SectionText,
		Instruction: "Very detailed business analysis suited to the data type: build categories, segment, surface patterns and trends, name correlations between fields and their business meaning. At least 300 words. State which business decisions this data supports."},
	{Key: "veriKalitesi", Label: "Data quality", Kind: SectionText,
		Instruction: "Assessment of the data's reliability and usability for business decisions."},
	{Key: "kiritikBulgular", Label: "Critical findings", Kind: SectionList,
		Instruction: "The 5 to 8 most critical findings for this data type. Each one must be actionable."},
	{Key: "kategorikAnaliz", Label: "Categorical analysis", Kind: SectionText,
		Instruction: "Split the data into business-relevant categories (by performance, value, risk and so on)."},
	{Key: "performansAnlizi", Label: "Performance analysis", Kind: SectionText,
		Instruction: "Best and worst performing elements and the reasons behind them."},
	{Key: "makasAnalizi", Label: "Gap analysis", Kind: SectionText,
		Instruction: "Differences between the highest and lowest values and measures of inequality."},
	{Key: "segmentasyonBulguları", Label: "Segmentation", Kind: SectionText,
		Instruction: "Natural groups or segments in the data and their characteristics."},
	{Key: "rekabetAnalizi", Label: "Competitive analysis", Kind: SectionText,
		Instruction: "Benchmark values and comparisons, when they can be derived."},
	{Key: "trendAnalizi", Label: "Trend analysis", Kind: SectionText,
		Instruction: "Trend analysis fitting the data type (time based, seasonal, growth)."},
	{Key: "riskFirsatAnalizi", Label: "Risks and opportunities", Kind: SectionText,
		Instruction: "Risks and opportunities specific to this data type."},
	{Key: "ongoruler", Label: "Forecasts", Kind: SectionList,
		Instruction: "Concrete, applicable forecasts for this data type."},
	{Key: "aksiyonOnerileri", Label: "Action recommendations", Kind: SectionList,
		Instruction: "Business strategy action plans specific to this data type."},
	{Key: "sonuc", Label: "Conclusion", Kind: SectionText,
		Instruction: "The most important takeaways and priorities for this data type."},
}

var chartTypes = []string{"bar", "line", "pie", "doughnut", "radar", "scatter"}

// Registry returns the ordered section catalogue. Callers get a copy.
func Registry() []Section {
	return append([]Section(nil), registry...)
}

// LookupSection finds a section by key.
func LookupSection(key string) (Section, bool) {
	for _, s := range registry {
		if s.Key == key {
			return s, true
		}
	}
	return Section{}, false
}

// IsChartType reports whether t is an accepted chart type.
func IsChartType(t string) bool {
	for _, c := range chartTypes {
		if c == t {
			return true
		}
	}
	return false
}
