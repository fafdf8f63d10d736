// Package model defines the content documents stored in the remote
// repository. Each document maps 1:1 to a JSON file; see Key.Path.
//
// Field names follow the JSON already checked into the content repository,
// so a document decoded here and encoded again keeps its shape. Ordered
// slices keep editor order.
package model

// Site is data/content/site.json.
type Site struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Location string  `json:"location"`
	Socials  Socials `json:"socials"`
}

type Socials struct {
	GitHub   string `json:"github,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// Home is data/content/home.json.
type Home struct {
	Hero                 Hero          `json:"homeHero"`
	Highlights           []Highlight   `json:"homeHighlights"`
	FeaturedProjectSlugs []string      `json:"featuredProjectSlugs"`
	Testimonials         []Testimonial `json:"testimonials"`
}

type Hero struct {
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Description  string `json:"description"`
	PrimaryCTA   CTA    `json:"primaryCta"`
	SecondaryCTA CTA    `json:"secondaryCta"`
}

// CTA is a call-to-action link.
type CTA struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type Highlight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Testimonial struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Quote string `json:"quote"`
}

// About is data/content/about.json.
type About struct {
	Meta     AboutMeta       `json:"aboutMeta"`
	Profile  Profile         `json:"aboutProfile"`
	Proof    []Proof         `json:"aboutProof"`
	Timeline []TimelineEntry `json:"aboutTimeline"`
	Skills   []SkillGroup    `json:"aboutSkills"`
}

type AboutMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Profile struct {
	Name     string `json:"name"`
	Headline string `json:"headline"`
	Location string `json:"location"`
	Email    string `json:"email"`
	Summary  string `json:"summary"`
	Avatar   string `json:"avatar,omitempty"`
}

type Proof struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type TimelineEntry struct {
	Period  string   `json:"period"`
	Title   string   `json:"title"`
	Org     string   `json:"org"`
	Bullets []string `json:"bullets"`
}

type SkillGroup struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// Projects is data/content/projects.json.
//
// Slugs are assumed unique but never checked; a document with duplicate
// slugs is stored as-is and lookups return the first match.
type Projects struct {
	AllowedTechnologies []string  `json:"allowedTechnologies"`
	Projects            []Project `json:"projects"`
}

type Project struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Technology  string   `json:"technology"`
	Problem     string   `json:"problem"`
	Features    []string `json:"features"`
	Challenges  []string `json:"challenges"`
	Learnings   []string `json:"learnings"`
	Stack       []string `json:"stack,omitempty"`
}

// BySlug returns the first project with the given slug.
func (p Projects) BySlug(slug string) (Project, bool) {
	for _, project := range p.Projects {
		if project.Slug == slug {
			return project, true
		}
	}
	return Project{}, false
}

// Featured resolves slugs in order. Slugs with no matching project are
// skipped.
func (p Projects) Featured(slugs []string) []Project {
	out := make([]Project, 0, len(slugs))
	for _, slug := range slugs {
		if project, ok := p.BySlug(slug); ok {
			out = append(out, project)
		}
	}
	return out
}

// ByTechnology filters projects, keeping order. An empty technology
// returns every project.
func (p Projects) ByTechnology(technology string) []Project {
	if technology == "" {
		return p.Projects
	}
	out := make([]Project, 0, len(p.Projects))
	for _, project := range p.Projects {
		if project.Technology == technology {
			out = append(out, project)
		}
	}
	return out
}

// Resume is data/content/resume.json. The PDF itself lives at ResumeAssetPath.
type Resume struct {
	ResumeURL string `json:"resumeUrl"`
}
