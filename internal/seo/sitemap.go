// Package seo builds robots.txt and sitemap.xml for the public site.
package seo

import (
	"encoding/xml"
	"net/url"
	"strings"

	"github.com/sakif/portfolio/internal/model"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

const (
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// staticPages are listed after the home page, in this order.
var staticPages = []string{"/about", "/projects", "/contact"}

// SitemapBuilder builds sitemap XML.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
	seen    map[string]bool
}

// NewSitemapBuilder creates a builder for siteURL (trailing slash ignored).
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{
		siteURL: strings.TrimSuffix(siteURL, "/"),
		seen:    map[string]bool{},
	}
}

func (b *SitemapBuilder) add(loc string, freq ChangeFreq, priority string) {
	if b.seen[loc] {
		return
	}
	b.seen[loc] = true
	b.urls = append(b.urls, SitemapURL{Loc: loc, ChangeFreq: freq, Priority: priority})
}

// AddHomepage adds the home page.
func (b *SitemapBuilder) AddHomepage() {
	b.add(b.siteURL+"/", ChangeFreqWeekly, "1.0")
}

// AddStaticPages adds about, projects and contact.
func (b *SitemapBuilder) AddStaticPages() {
	for _, p := range staticPages {
		b.add(b.siteURL+p, ChangeFreqMonthly, "0.8")
	}
}

// AddProjects adds one URL per project. Duplicate slugs appear once, and
// projects without a slug are skipped.
func (b *SitemapBuilder) AddProjects(projects []model.Project) {
	for _, p := range projects {
		if p.Slug == "" {
			continue
		}
		b.add(b.siteURL+"/projects/"+url.PathEscape(p.Slug), ChangeFreqMonthly, "0.6")
	}
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(output, xmlBytes...), nil
}

// GenerateSitemap builds the full sitemap for the site.
func GenerateSitemap(siteURL string, projects []model.Project) ([]byte, error) {
	builder := NewSitemapBuilder(siteURL)
	builder.AddHomepage()
	builder.AddStaticPages()
	builder.AddProjects(projects)
	return builder.Build()
}
