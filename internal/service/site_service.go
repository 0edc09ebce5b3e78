package service

import (
	"context"
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/esolrine-stories/internal/config"
	"github.com/esolrine-stories/internal/repository"
	"github.com/rs/zerolog"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Manifest is the web app manifest
type Manifest struct {
	Name            string         `json:"name"`
	ShortName       string         `json:"short_name"`
	Description     string         `json:"description"`
	StartURL        string         `json:"start_url"`
	Display         string         `json:"display"`
	BackgroundColor string         `json:"background_color"`
	ThemeColor      string         `json:"theme_color"`
	Icons           []ManifestIcon `json:"icons"`
}

// ManifestIcon is one manifest icon entry
type ManifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// siteService is the concrete implementation of SiteService
type siteService struct {
	repo    repository.StoryRepository
	baseURL string
	now     func() time.Time
	log     zerolog.Logger
}

func newSiteService(repo repository.StoryRepository, cfg config.SiteConfig, log zerolog.Logger) *siteService {
	return &siteService{
		repo:    repo,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		now:     time.Now,
		log:     log.With().Str("service", "site").Logger(),
	}
}

// Sitemap lists the homepage and every published story. When the store
// cannot be read only the homepage is listed.
func (s *siteService) Sitemap(ctx context.Context) ([]byte, error) {
	set := urlSet{
		Xmlns: sitemapNamespace,
		URLs: []sitemapURL{{
			Loc:        s.baseURL,
			LastMod:    s.now().UTC().Format(time.RFC3339),
			ChangeFreq: "weekly",
			Priority:   "1.0",
		}},
	}

	stories, err := s.repo.List(ctx, repository.ListOptions{PublishedOnly: true})
	if err != nil {
		s.log.Warn().Err(err).Msg("Stories unavailable, sitemap contains only the homepage")
	}
	for _, story := range stories {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        s.baseURL + "/stories/" + strconv.FormatInt(story.ID, 10),
			LastMod:    story.UpdatedAt.UTC().Format(time.RFC3339),
			ChangeFreq: "monthly",
			Priority:   "0.8",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// Manifest returns the web app manifest
func (s *siteService) Manifest() *Manifest {
	return &Manifest{
		Name:            "Esolrine Stories",
		ShortName:       "Esolrine",
		Description:     "Stories from a World of Magic - Explore the Esolrine universe",
		StartURL:        "/",
		Display:         "standalone",
		BackgroundColor: "#ffffff",
		ThemeColor:      "#8b5cf6",
		Icons: []ManifestIcon{
			{Src: "/icon-192.png", Sizes: "192x192", Type: "image/png"},
			{Src: "/icon-512.png", Sizes: "512x512", Type: "image/png"},
		},
	}
}
