package model

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// BrandContext is everything known about the brand a discovery run works for.
type BrandContext struct {
	JobID      string             `json:"job_id" yaml:"job_id"`
	BrandName  string             `json:"brand_name" yaml:"brand_name"`
	Niche      string             `json:"niche" yaml:"niche"`
	Overview   string             `json:"overview" yaml:"overview"`
	Audience   string             `json:"audience" yaml:"audience"`
	Goals      []string           `json:"goals,omitempty" yaml:"goals"`
	WebsiteURL string             `json:"website_url,omitempty" yaml:"website_url"`
	Handles    map[Surface]string `json:"handles,omitempty" yaml:"handles"`

	// ContextQuality is a 0-1 estimate of how complete and trustworthy the
	// intake context is. Produced by the intake layer; defaults to 0.5.
	ContextQuality float64 `json:"context_quality" yaml:"context_quality"`
}

// KnownSocialCount returns how many social handles the brand has on file.
func (b *BrandContext) KnownSocialCount() int {
	n := 0
	for surface, handle := range b.Handles {
		if surface.IsSocial() && strings.TrimSpace(handle) != "" {
			n++
		}
	}
	return n
}

// HasWebsite reports whether the brand has any website presence on file.
func (b *BrandContext) HasWebsite() bool {
	return strings.TrimSpace(b.WebsiteURL) != ""
}

// Validate checks the minimum fields a discovery run needs.
func (b *BrandContext) Validate() error {
	if strings.TrimSpace(b.JobID) == "" {
		return eris.New("brand context: job_id is required")
	}
	if strings.TrimSpace(b.BrandName) == "" {
		return eris.New("brand context: brand_name is required")
	}
	for surface := range b.Handles {
		if !surface.IsSupported() {
			return eris.Errorf("brand context: unsupported surface %q", surface)
		}
	}
	if b.ContextQuality < 0 || b.ContextQuality > 1 {
		return eris.Errorf("brand context: context_quality %.2f outside [0,1]", b.ContextQuality)
	}
	return nil
}

// LoadBrandContext reads a brand context YAML file.
func LoadBrandContext(path string) (*BrandContext, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "brand context: read file")
	}

	ctx := BrandContext{ContextQuality: 0.5}
	if err := yaml.Unmarshal(raw, &ctx); err != nil {
		return nil, eris.Wrap(err, "brand context: parse yaml")
	}
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	return &ctx, nil
}
