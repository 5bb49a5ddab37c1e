// Package portfolio defines the content rendered on the page and loads it
// from a YAML file.
package portfolio

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ajemaa/portfolio/internal/floating"
)

// Personal is the hero, contact and footer information. Only Name, Title
// and Email are required; everything else is omitted from the page when
// empty.
type Personal struct {
	Name      string   `yaml:"name" json:"name"`
	Title     string   `yaml:"title" json:"title"`
	Subtitle  string   `yaml:"subtitle,omitempty" json:"subtitle,omitempty"`
	Bio       string   `yaml:"bio,omitempty" json:"bio,omitempty"`
	Location  string   `yaml:"location,omitempty" json:"location,omitempty"`
	Email     string   `yaml:"email" json:"email"`
	Phone     string   `yaml:"phone,omitempty" json:"phone,omitempty"`
	GitHub    string   `yaml:"github,omitempty" json:"github,omitempty"`
	LinkedIn  string   `yaml:"linkedin,omitempty" json:"linkedin,omitempty"`
	ResumeURL string   `yaml:"resumeUrl,omitempty" json:"resumeUrl,omitempty"`
	Roles     []string `yaml:"roles,omitempty" json:"roles,omitempty"`
}

// Initials of the name, shown in the logo and profile badge.
func (p Personal) Initials() string {
	var b strings.Builder
	for _, part := range strings.Fields(p.Name) {
		r := []rune(part)
		b.WriteRune(r[0])
	}
	return b.String()
}

// Phrases is what the hero typewriter cycles through: the title followed
// by the extra roles.
func (p Personal) Phrases() []string {
	out := make([]string, 0, len(p.Roles)+1)
	if p.Title != "" {
		out = append(out, p.Title)
	}
	return append(out, p.Roles...)
}

// SkillCategory is one card in the skills grid.
type SkillCategory struct {
	Key    string   `yaml:"key" json:"key"`
	Label  string   `yaml:"label" json:"label"`
	Skills []string `yaml:"skills" json:"skills"`
}

type Experience struct {
	Title        string   `yaml:"title" json:"title"`
	Company      string   `yaml:"company" json:"company"`
	Location     string   `yaml:"location,omitempty" json:"location,omitempty"`
	Period       string   `yaml:"period,omitempty" json:"period,omitempty"`
	Description  string   `yaml:"description,omitempty" json:"description,omitempty"`
	Achievements []string `yaml:"achievements,omitempty" json:"achievements,omitempty"`
	Technologies []string `yaml:"technologies,omitempty" json:"technologies,omitempty"`
}

type Education struct {
	Institution string `yaml:"institution" json:"institution"`
	Location    string `yaml:"location,omitempty" json:"location,omitempty"`
	Degree      string `yaml:"degree" json:"degree"`
	Period      string `yaml:"period,omitempty" json:"period,omitempty"`
	Status      string `yaml:"status,omitempty" json:"status,omitempty"`
	Highlight   string `yaml:"highlight,omitempty" json:"highlight,omitempty"`
}

type Project struct {
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description,omitempty" json:"description,omitempty"`
	Technologies []string `yaml:"technologies,omitempty" json:"technologies,omitempty"`
	Highlights   []string `yaml:"highlights,omitempty" json:"highlights,omitempty"`
	GitHub       string   `yaml:"github,omitempty" json:"github,omitempty"`
	URL          string   `yaml:"url,omitempty" json:"url,omitempty"`
	Image        string   `yaml:"image,omitempty" json:"image,omitempty"`
}

type Certification struct {
	Name          string `yaml:"name" json:"name"`
	Issuer        string `yaml:"issuer" json:"issuer"`
	Date          string `yaml:"date,omitempty" json:"date,omitempty"`
	Logo          string `yaml:"logo,omitempty" json:"logo,omitempty"`
	CredentialURL string `yaml:"credentialUrl,omitempty" json:"credentialUrl,omitempty"`
}

// Meta is the document head.
type Meta struct {
	Title       string   `yaml:"title,omitempty" json:"title,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
}

// Portfolio is the whole content file.
type Portfolio struct {
	Meta           Meta             `yaml:"meta,omitempty" json:"meta"`
	Personal       Personal         `yaml:"personal" json:"personal"`
	Skills         []SkillCategory  `yaml:"skills,omitempty" json:"skills"`
	Experience     []Experience     `yaml:"experience,omitempty" json:"experience"`
	Education      []Education      `yaml:"education,omitempty" json:"education"`
	Projects       []Project        `yaml:"projects,omitempty" json:"projects"`
	Certifications []Certification  `yaml:"certifications,omitempty" json:"certifications"`
	Labels         []floating.Label `yaml:"labels,omitempty" json:"labels"`
}

// PageTitle falls back to "Name | Title" when meta.title is unset.
func (p *Portfolio) PageTitle() string {
	if p.Meta.Title != "" {
		return p.Meta.Title
	}
	if p.Personal.Title == "" {
		return p.Personal.Name
	}
	return p.Personal.Name + " | " + p.Personal.Title
}

// FloatingLabels returns the configured labels or the default set.
func (p *Portfolio) FloatingLabels() []floating.Label {
	if len(p.Labels) > 0 {
		return p.Labels
	}
	return floating.DefaultLabels
}

// Parse decodes YAML content. JSON documents are valid YAML and parse too.
func Parse(data []byte) (*Portfolio, error) {
	var p Portfolio
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing portfolio: %w", err)
	}
	return &p, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading portfolio %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Validate lists fields the page expects but cannot find. The page still
// renders with them missing.
func (p *Portfolio) Validate() []error {
	var errs []error
	if p.Personal.Name == "" {
		errs = append(errs, fmt.Errorf("personal.name is required"))
	}
	if p.Personal.Title == "" {
		errs = append(errs, fmt.Errorf("personal.title is required"))
	}
	if p.Personal.Email == "" {
		errs = append(errs, fmt.Errorf("personal.email is required"))
	}
	for i, s := range p.Skills {
		if s.Label == "" {
			errs = append(errs, fmt.Errorf("skills[%d].label is required", i))
		}
	}
	for i, e := range p.Experience {
		if e.Title == "" || e.Company == "" {
			errs = append(errs, fmt.Errorf("experience[%d] needs a title and a company", i))
		}
	}
	for i, e := range p.Education {
		if e.Institution == "" {
			errs = append(errs, fmt.Errorf("education[%d].institution is required", i))
		}
	}
	for i, pr := range p.Projects {
		if pr.Title == "" {
			errs = append(errs, fmt.Errorf("projects[%d].title is required", i))
		}
	}
	for i, c := range p.Certifications {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("certifications[%d].name is required", i))
		}
	}
	return errs
}
