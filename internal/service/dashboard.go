package service

import "github.com/tavoloai/tavolo-web/internal/domain"

// Sidebar sections, in display order.
var DashboardSections = []string{"dashboard", "menus", "customers", "reports", "settings"}

var weekdayKeys = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// DashboardService serves the dashboard widgets. The figures are fixed sample
// data until menus and analytics are backed by real storage.
type DashboardService struct {
	stats []domain.StatCard
	scans []int
}

// NewDashboardService creates a DashboardService with the sample figures.
func NewDashboardService() *DashboardService {
	return &DashboardService{
		stats: []domain.StatCard{
			{Key: "qrScans", Value: 124, Trend: domain.TrendUp},
			{Key: "visits", Value: 89, Trend: domain.TrendUp},
			{Key: "activeMenus", Value: 12, Trend: domain.TrendFlat},
			{Key: "ordersToday", Value: 37, Trend: domain.TrendUp},
		},
		scans: []int{10, 14, 9, 18, 22, 17, 25},
	}
}

// Snapshot returns the widgets for the dashboard home.
func (s *DashboardService) Snapshot() *domain.DashboardSnapshot {
	actions := []domain.DashboardLink{
		{Key: "menus", Href: "/dashboard/menus"},
		{Key: "qr", Href: "/dashboard/qr"},
		{Key: "boost", Href: "/dashboard/boost"},
		{Key: "media", Href: "/dashboard/media"},
		{Key: "analytics", Href: "/dashboard/analytics"},
	}
	quick := append(append([]domain.DashboardLink(nil), actions...),
		domain.DashboardLink{Key: "settings", Href: "/dashboard/settings"})

	peak, total := 0, 0
	for _, v := range s.scans {
		peak = max(peak, v)
		total += v
	}
	scans := make([]domain.ScanPoint, len(s.scans))
	for i, v := range s.scans {
		pct := 0
		if peak > 0 {
			pct = v * 100 / peak
		}
		scans[i] = domain.ScanPoint{DayKey: weekdayKeys[i], Value: v, Percent: pct}
	}

	return &domain.DashboardSnapshot{
		Stats:      append([]domain.StatCard(nil), s.stats...),
		Actions:    actions,
		QuickLinks: quick,
		Scans:      scans,
		ScanTotal:  total,
	}
}

// ValidSection reports whether section is a known dashboard page. Action keys
// (qr, boost, media, analytics) are valid too.
func ValidSection(section string) bool {
	switch section {
	case "menus", "customers", "reports", "settings", "qr", "boost", "media", "analytics":
		return true
	}
	return false
}
