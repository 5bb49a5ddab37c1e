package portfolio

// Section ids in document order. They double as navigation anchors and as
// the ids the scroll tracker reports.
const (
	SectionAbout          = "about"
	SectionExperience     = "experience"
	SectionEducation      = "education"
	SectionProjects       = "projects"
	SectionCertifications = "certifications"
	SectionContact        = "contact"
)

// NavItem is an entry in the navigation bar.
type NavItem struct {
	ID   string
	Name string
}

func (n NavItem) Href() string { return "#" + n.ID }

var navItems = []NavItem{
	{ID: SectionAbout, Name: "About"},
	{ID: SectionExperience, Name: "Experience"},
	{ID: SectionEducation, Name: "Education"},
	{ID: SectionProjects, Name: "Projects"},
	{ID: SectionCertifications, Name: "Certifications"},
	{ID: SectionContact, Name: "Contact"},
}

// NavItems returns the navigation entries in document order.
func NavItems() []NavItem {
	return append([]NavItem(nil), navItems...)
}

// SectionIDs returns the section ids in document order.
func SectionIDs() []string {
	ids := make([]string, len(navItems))
	for i, n := range navItems {
		ids[i] = n.ID
	}
	return ids
}

// IsSection reports whether id names a page section.
func IsSection(id string) bool {
	for _, n := range navItems {
		if n.ID == id {
			return true
		}
	}
	return false
}
