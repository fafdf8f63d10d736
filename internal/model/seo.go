package model

import (
	"slices"
	"strings"
)

// OpenGraphType is the og:type value.
type OpenGraphType string

const (
	OpenGraphWebsite OpenGraphType = "website"
	OpenGraphArticle OpenGraphType = "article"
	OpenGraphProfile OpenGraphType = "profile"
	OpenGraphBook    OpenGraphType = "book"
)

// OpenGraphTypes lists the accepted og:type values.
var OpenGraphTypes = []OpenGraphType{OpenGraphWebsite, OpenGraphArticle, OpenGraphProfile, OpenGraphBook}

// TwitterCard is the twitter:card value.
type TwitterCard string

const (
	TwitterSummary           TwitterCard = "summary"
	TwitterSummaryLargeImage TwitterCard = "summary_large_image"
	TwitterApp               TwitterCard = "app"
	TwitterPlayer            TwitterCard = "player"
)

// TwitterCards lists the accepted twitter:card values.
var TwitterCards = []TwitterCard{TwitterSummary, TwitterSummaryLargeImage, TwitterApp, TwitterPlayer}

// SEO is data/content/seo.json.
type SEO struct {
	SiteName      string    `json:"siteName"`
	DefaultTitle  string    `json:"defaultTitle"`
	TitleTemplate string    `json:"titleTemplate"`
	Description   string    `json:"description"`
	OpenGraph     OpenGraph `json:"openGraph"`
	Twitter       Twitter   `json:"twitter"`
	Robots        Robots    `json:"robots"`
}

type OpenGraph struct {
	Type OpenGraphType `json:"type"`
	URL  string        `json:"url"`
}

type Twitter struct {
	Card TwitterCard `json:"card"`
}

type Robots struct {
	Index  bool `json:"index"`
	Follow bool `json:"follow"`
}

// Valid reports whether t is one of OpenGraphTypes.
func (t OpenGraphType) Valid() bool {
	return slices.Contains(OpenGraphTypes, t)
}

// Valid reports whether c is one of TwitterCards.
func (c TwitterCard) Valid() bool {
	return slices.Contains(TwitterCards, c)
}

// Title renders a page title through TitleTemplate. An empty page title
// yields DefaultTitle; a template without %s leaves the page title as is.
func (s SEO) Title(page string) string {
	if page == "" {
		return s.DefaultTitle
	}
	if s.TitleTemplate == "" || !strings.Contains(s.TitleTemplate, "%s") {
		return page
	}
	return strings.Replace(s.TitleTemplate, "%s", page, 1)
}

// RobotsMeta renders the robots meta tag value, e.g. "index, nofollow".
func (s SEO) RobotsMeta() string {
	index, follow := "noindex", "nofollow"
	if s.Robots.Index {
		index = "index"
	}
	if s.Robots.Follow {
		follow = "follow"
	}
	return index + ", " + follow
}
