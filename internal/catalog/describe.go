package catalog

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/fjod/storefront/internal/domain"
)

// DescriptionWriter drafts marketing copy for a product the seller is about
// to list.
type DescriptionWriter interface {
	Describe(ctx context.Context, name string, category domain.Category) (string, error)
}

var categoryBlurbs = map[domain.Category]string{
	domain.CategoryTVs:            "Bring the cinema home with crisp picture and rich sound.",
	domain.CategoryHomeAppliances: "Built to make everyday chores faster and quieter.",
	domain.CategoryMobiles:        "Stay connected with a fast, reliable phone that lasts all day.",
	domain.CategoryAccessories:    "The finishing touch for the devices you already love.",
	domain.CategoryLaptops:        "Power through work and play wherever you are.",
	domain.CategoryCameras:        "Capture every moment in sharp, vivid detail.",
}

const descriptionTemplate = `Introducing the {{.Name}}. {{.Blurb}} A great pick from our {{.Category}} range.`

type TemplateWriter struct {
	tmpl *template.Template
}

func NewTemplateWriter() *TemplateWriter {
	return &TemplateWriter{tmpl: template.Must(template.New("description").Parse(descriptionTemplate))}
}

func (w *TemplateWriter) Describe(ctx context.Context, name string, category domain.Category) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &domain.ValidationError{Fields: map[string]string{"name": "Product name is required."}}
	}
	if !category.Valid() {
		return "", &domain.ValidationError{Fields: map[string]string{"category": "Please select a category."}}
	}

	var buf bytes.Buffer
	err := w.tmpl.Execute(&buf, struct {
		Name     string
		Blurb    string
		Category domain.Category
	}{name, categoryBlurbs[category], category})
	if err != nil {
		return "", fmt.Errorf("render description: %w", err)
	}
	return buf.String(), nil
}
