package dto

// SectionOverview aggregates slot state for one section.
type SectionOverview struct {
	SectionID   string `json:"sectionId"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	TAName      string `json:"taName,omitempty"`
	Students    int    `json:"students"`
	Scheduled   int    `json:"scheduled"`
	Unscheduled int    `json:"unscheduled"`
	Locked      int    `json:"locked"`
}

// OverviewResponse is the cached cross-section schedule summary.
type OverviewResponse struct {
	GeneratedAt string            `json:"generatedAt"`
	Sections    []SectionOverview `json:"sections"`
	Totals      OverviewTotals    `json:"totals"`
}

// OverviewTotals sums the per-section counts.
type OverviewTotals struct {
	Students    int `json:"students"`
	Scheduled   int `json:"scheduled"`
	Unscheduled int `json:"unscheduled"`
	Locked      int `json:"locked"`
}
