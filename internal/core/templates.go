package core

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

// Template is a prebuilt event shape from the catalog. Duration and the
// approval flag come from the template; name, start time and location
// come from the caller.
type Template struct {
	Type                 string `yaml:"type" json:"type"`
	Name                 string `yaml:"name" json:"name"`
	Description          string `yaml:"description" json:"description"`
	DefaultDurationHours int    `yaml:"default_duration_hours" json:"default_duration_hours"`
	RequireRSVPApproval  bool   `yaml:"require_rsvp_approval" json:"require_rsvp_approval"`
	IsVirtual            bool   `yaml:"is_virtual" json:"is_virtual"`
}

type templateCatalog struct {
	Templates []Template `yaml:"templates"`
}

var catalog templateCatalog

func init() {
	if err := yaml.Unmarshal(templatesYAML, &catalog); err != nil {
		panic(fmt.Sprintf("invalid embedded template catalog: %v", err))
	}
}

// Templates returns the catalog in its declared order.
func Templates() []Template {
	out := make([]Template, len(catalog.Templates))
	copy(out, catalog.Templates)
	return out
}

// TemplateByType looks up a template by its type identifier.
func TemplateByType(templateType string) (Template, bool) {
	for _, tpl := range catalog.Templates {
		if tpl.Type == templateType {
			return tpl, true
		}
	}
	return Template{}, false
}

// BuildEventPayload derives the upstream event body from a template and
// the caller's request. end_at is start_at plus the template's default
// duration; virtual templates take a meeting URL, in-person ones a geo
// address.
func BuildEventPayload(tpl Template, req CreateFromTemplateRequest) (map[string]any, error) {
	start, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		return nil, fmt.Errorf("invalid start_at format: %w", err)
	}
	end := start.Add(time.Duration(tpl.DefaultDurationHours) * time.Hour)

	payload := map[string]any{
		"name":                  req.Name,
		"start_at":              req.StartAt,
		"timezone":              req.Timezone,
		"end_at":                end.Format(time.RFC3339),
		"require_rsvp_approval": tpl.RequireRSVPApproval,
	}

	if tpl.IsVirtual && req.MeetingURL != nil {
		payload["meeting_url"] = *req.MeetingURL
	} else if !tpl.IsVirtual && req.GeoAddress != nil {
		payload["geo_address_json"] = req.GeoAddress.payload()
	}

	return payload, nil
}
