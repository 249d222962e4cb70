package users

// Section is an area of the console.
type Section string

const (
	SectionDashboard     Section = "dashboard"
	SectionAnnouncements Section = "announcements"
	SectionCommonAreas   Section = "common-areas"
	SectionFinances      Section = "finances"
	SectionReservations  Section = "reservations"
	SectionVisitorLog    Section = "visitor-log"
	SectionAccount       Section = "account"
	SectionUsers         Section = "users"
	SectionUnits         Section = "units"
	SectionTasks         Section = "tasks"
	SectionFeedback      Section = "feedback"
)

// restrictedSections lists the sections gated by role. Sections not listed are
// open to any authenticated user.
var restrictedSections = map[Section][]RoleType{
	SectionFinances:   {RoleAdministrator, RoleResident},
	SectionVisitorLog: {RoleAdministrator, RoleGuard},
	SectionUsers:      {RoleAdministrator},
	SectionUnits:      {RoleAdministrator},
	SectionFeedback:   {RoleAdministrator},
}

// CanAccess reports whether the profile may open the section.
func CanAccess(p *Profile, section Section) bool {
	if p == nil {
		return false
	}
	allowed, restricted := restrictedSections[section]
	if !restricted {
		return true
	}
	role := p.Role()
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// Dashboard names the role specific landing dashboard.
func Dashboard(p *Profile) string {
	switch p.Role() {
	case RoleAdministrator:
		return "admin"
	case RoleResident:
		return "resident"
	case RoleGuard:
		return "guard"
	}
	return "overview"
}

// Sections lists every section the profile can open, in menu order.
func Sections(p *Profile) []Section {
	all := []Section{
		SectionDashboard, SectionAnnouncements, SectionCommonAreas, SectionFinances,
		SectionReservations, SectionVisitorLog, SectionAccount, SectionUsers,
		SectionUnits, SectionTasks, SectionFeedback,
	}
	out := make([]Section, 0, len(all))
	for _, s := range all {
		if CanAccess(p, s) {
			out = append(out, s)
		}
	}
	return out
}
