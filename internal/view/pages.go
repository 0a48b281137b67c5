package view

import (
	"github.com/a-h/templ"

	"github.com/tavoloai/tavolo-web/internal/domain"
)

// Message kinds.
const (
	MessageError = "error"
	MessageInfo  = "info"
)

// HomePage is the marketing landing page.
func HomePage(p Page) templ.Component {
	return render("home", "layout", p)
}

// PremiumPage describes the Premium plan and compares it with Free.
func PremiumPage(p Page) templ.Component {
	return render("premium", "layout", p)
}

// RegisterPage is the standalone sign-up form.
func RegisterPage(p Page) templ.Component {
	return render("register", "layout", p)
}

// RegisterCreated replaces the register form once the account exists.
func RegisterCreated(p Page, user *domain.User) templ.Component {
	return render("register", "register-created", struct {
		Page
		Name     string
		Business string
	}{p, user.Name, user.Business})
}

// ForgotPasswordPage is the password recovery form.
func ForgotPasswordPage(p Page) templ.Component {
	return render("forgot_password", "layout", p)
}

// ForgotPasswordSent replaces the recovery form after a request.
func ForgotPasswordSent(p Page, email string) templ.Component {
	return render("forgot_password", "forgot-sent", struct {
		Page
		Email string
	}{p, email})
}

// FormMessage renders the status line with the given element id.
func FormMessage(id, kind, text string) templ.Component {
	return templ.FromGoHTML(base.Lookup("form-message"), newMessage(id, kind, text))
}

// SidebarLink is one dashboard navigation entry.
type SidebarLink struct {
	Key    string
	Href   string
	Active bool
}

// DashboardData is the dashboard home view model.
type DashboardData struct {
	Page
	Sections []SidebarLink
	Snapshot *domain.DashboardSnapshot
}

// DashboardPage renders the dashboard home.
func DashboardPage(p Page, sections []string, snap *domain.DashboardSnapshot) templ.Component {
	return render("dashboard", "layout", DashboardData{
		Page:     p,
		Sections: sidebar(sections, "dashboard"),
		Snapshot: snap,
	})
}

// SectionData is the view model of a dashboard section placeholder.
type SectionData struct {
	Page
	Sections []SidebarLink
	Section  string
	Title    string
}

// DashboardSection renders a dashboard section that has no content yet.
func DashboardSection(p Page, sections []string, section string) templ.Component {
	title := p.T.T("sidebar." + section)
	if title == "sidebar."+section {
		title = p.T.T("dashboard.actions." + section + ".name")
	}
	return render("section", "layout", SectionData{
		Page:     p,
		Sections: sidebar(sections, section),
		Section:  section,
		Title:    title,
	})
}

func sidebar(sections []string, active string) []SidebarLink {
	out := make([]SidebarLink, 0, len(sections))
	for _, s := range sections {
		href := "/dashboard/" + s
		if s == "dashboard" {
			href = "/dashboard"
		}
		out = append(out, SidebarLink{Key: s, Href: href, Active: s == active})
	}
	return out
}
