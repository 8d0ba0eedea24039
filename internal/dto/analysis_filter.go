// AnalysisFilters describe user-provided filters to narrow the analysis history.
package dto

type AnalysisFilters struct {
	Status string
	Limit  int
	Offset int
}
