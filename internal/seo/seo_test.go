package seo

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/sakif/portfolio/internal/model"
)

func TestBuildRobots(t *testing.T) {
	got := BuildRobots(RobotsConfig{SiteURL: "https://jane.dev/"})

	want := "User-agent: *\n" +
		"Disallow: /admin\n" +
		"Disallow: /api/admin\n" +
		"Allow: /\n" +
		"\n" +
		"Sitemap: https://jane.dev/sitemap.xml\n"
	if got != want {
		t.Errorf("BuildRobots() =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildRobots_DisallowAll(t *testing.T) {
	got := BuildRobots(RobotsConfig{SiteURL: "https://jane.dev", DisallowAll: true})

	if got != "User-agent: *\nDisallow: /\n" {
		t.Errorf("BuildRobots() = %q", got)
	}
	if strings.Contains(got, "Sitemap") {
		t.Error("a site closed to crawlers should not advertise a sitemap")
	}
}

func TestGenerateSitemap(t *testing.T) {
	projects := []model.Project{
		{Slug: "pathfinder"},
		{Slug: "pathfinder"}, // duplicate slugs are allowed in content
		{Slug: ""},
		{Slug: "go tools"},
	}

	out, err := GenerateSitemap("https://jane.dev/", projects)
	if err != nil {
		t.Fatalf("GenerateSitemap() error = %v", err)
	}

	if !strings.HasPrefix(string(out), xml.Header) {
		t.Error("sitemap should start with the XML header")
	}

	var sm Sitemap
	if err := xml.Unmarshal(out, &sm); err != nil {
		t.Fatalf("sitemap is not valid XML: %v", err)
	}

	var locs []string
	for _, u := range sm.URLs {
		locs = append(locs, u.Loc)
	}
	want := []string{
		"https://jane.dev/",
		"https://jane.dev/about",
		"https://jane.dev/projects",
		"https://jane.dev/contact",
		"https://jane.dev/projects/pathfinder",
		"https://jane.dev/projects/go%20tools",
	}
	if strings.Join(locs, "\n") != strings.Join(want, "\n") {
		t.Errorf("sitemap locations =\n%s\nwant\n%s", strings.Join(locs, "\n"), strings.Join(want, "\n"))
	}
	if sm.URLs[0].Priority != "1.0" {
		t.Errorf("home page priority = %q", sm.URLs[0].Priority)
	}
}
