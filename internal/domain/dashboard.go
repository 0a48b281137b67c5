package domain

// Trend directions for a stat card.
const (
	TrendUp   = "up"
	TrendFlat = "flat"
	TrendDown = "down"
)

// StatCard is one headline number on the dashboard. Its label and trend text
// are looked up by Key; Trend only picks the indicator colour.
type StatCard struct {
	Key   string
	Value int
	Trend string
}

// DashboardLink is an action card or sidebar entry.
type DashboardLink struct {
	Key  string
	Href string
}

// ScanPoint is the number of QR scans on one weekday.
type ScanPoint struct {
	DayKey  string
	Value   int
	Percent int
}

// DashboardSnapshot is everything the dashboard home renders.
type DashboardSnapshot struct {
	Stats      []StatCard
	Actions    []DashboardLink
	QuickLinks []DashboardLink
	Scans      []ScanPoint
	ScanTotal  int
}
