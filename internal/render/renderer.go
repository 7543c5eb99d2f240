package render

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/models"
)

const maxHobbyTags = 3

var suggestionIcons = map[string]string{
	string(models.SuggestionTopic):      "fa-comments",
	string(models.SuggestionIcebreaker): "fa-snowflake",
	string(models.SuggestionActivity):   "fa-calendar-alt",
}

type cardView struct {
	Community   models.Community
	Recommended bool
	Hidden      bool
}

// Renderer builds the HTML pages and fragments served to the browser.
type Renderer struct {
	tmpl *template.Template
	now  func() time.Time
}

// New parses the page templates. now drives relative timestamps.
func New(now func() time.Time) (*Renderer, error) {
	if now == nil {
		now = time.Now
	}

	funcs := template.FuncMap{
		"card": func(community models.Community, recommended, hidden bool) cardView {
			return cardView{Community: community, Recommended: recommended, Hidden: hidden}
		},
		"categories": models.Categories,
		"ago": func(t time.Time) string {
			return FormatTime(t, now())
		},
		"firstHobbies": func(hobbies []string) []string {
			if len(hobbies) > maxHobbyTags {
				return hobbies[:maxHobbyTags]
			}
			return hobbies
		},
		"extraHobbies": func(hobbies []string) int {
			if len(hobbies) > maxHobbyTags {
				return len(hobbies) - maxHobbyTags
			}
			return 0
		},
		"suggestionIcon": func(kind string) string {
			if icon, ok := suggestionIcons[kind]; ok {
				return icon
			}
			return "fa-lightbulb"
		},
		// HTML fields are produced by FormatSuggestion or fixed fallback markup.
		"trusted": func(s string) template.HTML {
			return template.HTML(s)
		},
	}

	tmpl := template.New("friendzone").Funcs(funcs)
	for name, text := range map[string]string{"layout": layoutTemplate, "list": listTemplate, "detail": detailTemplate} {
		if _, err := tmpl.New(name).Parse(text); err != nil {
			return nil, fmt.Errorf("parse %s templates: %w", name, err)
		}
	}

	return &Renderer{tmpl: tmpl, now: now}, nil
}

// ListPage renders the full community list page.
func (r *Renderer) ListPage(w io.Writer, snapshot dto.ListSnapshot) error {
	return r.tmpl.ExecuteTemplate(w, "list_page", snapshot)
}

// Region renders one list-page region so it can be swapped in place.
func (r *Renderer) Region(w io.Writer, region dto.Region, snapshot dto.ListSnapshot) error {
	if !region.Valid() {
		return fmt.Errorf("unknown region %q", region)
	}
	return r.tmpl.ExecuteTemplate(w, "region_"+string(region), snapshot)
}

// Card renders a single community card.
func (r *Renderer) Card(w io.Writer, community models.Community, recommended bool) error {
	return r.tmpl.ExecuteTemplate(w, "community_card", cardView{Community: community, Recommended: recommended})
}

// DetailPage renders the community detail page.
func (r *Renderer) DetailPage(w io.Writer, snapshot dto.DetailSnapshot) error {
	if snapshot.Community == nil {
		return fmt.Errorf("detail page requires a community")
	}
	return r.tmpl.ExecuteTemplate(w, "detail_page", snapshot)
}

// ChatMessage renders one transcript entry.
func (r *Renderer) ChatMessage(w io.Writer, msg models.ChatMessage) error {
	return r.tmpl.ExecuteTemplate(w, "chat_message", msg)
}

// ChatMessages renders the whole transcript.
func (r *Renderer) ChatMessages(w io.Writer, messages []models.ChatMessage) error {
	return r.tmpl.ExecuteTemplate(w, "chat_messages", messages)
}

// Stats renders the detail sidebar figures.
func (r *Renderer) Stats(w io.Writer, stats dto.CommunityStats) error {
	return r.tmpl.ExecuteTemplate(w, "stats", stats)
}

// Suggestion renders an assistant suggestion panel.
func (r *Renderer) Suggestion(w io.Writer, suggestion dto.SuggestionResponse) error {
	return r.tmpl.ExecuteTemplate(w, "suggestion", suggestion)
}
