package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Benny93/graphclip/internal/graph"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(documentStructLevel, graph.Document{})
	return v
}

// Validate checks the requirements a document must meet before a graph can
// be built from it. Graph invariants such as dangling wires are reported by
// graph.Graph.Validate instead.
func Validate(doc *graph.Document) error {
	if err := validate.Struct(doc); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func documentStructLevel(sl validator.StructLevel) {
	doc := sl.Current().Interface().(graph.Document)

	if strings.TrimSpace(doc.Name) == "" {
		sl.ReportError(doc.Name, "name", "Name", "required", "")
	}
	if len(doc.Sections) == 0 {
		sl.ReportError(doc.Sections, "sections", "Sections", "min", "1")
	}

	seen := make(map[graph.ID]struct{})
	check := func(field string, i int, id graph.ID) {
		name := fmt.Sprintf("%s[%d].id", field, i)
		if id == graph.NilID {
			sl.ReportError(id, name, name, "required", "")
			return
		}
		if _, dup := seen[id]; dup {
			sl.ReportError(id, name, name, "unique", id.String())
			return
		}
		seen[id] = struct{}{}
	}

	missing := func(field string, i int) {
		name := fmt.Sprintf("%s[%d]", field, i)
		sl.ReportError(nil, name, name, "required", "")
	}

	for i, s := range doc.Sections {
		if s == nil {
			missing("sections", i)
			continue
		}
		check("sections", i, s.ID)
	}
	for i, g := range doc.Groups {
		if g == nil {
			missing("groups", i)
			continue
		}
		check("groups", i, g.ID)
	}
	for i, d := range doc.Declarations {
		if d == nil {
			missing("declarations", i)
			continue
		}
		check("declarations", i, d.ID)
	}
	for i, p := range doc.PortalDeclarations {
		if p == nil {
			missing("portal_declarations", i)
			continue
		}
		check("portal_declarations", i, p.ID)
	}
	var nodes func(field string, list []*graph.Node)
	nodes = func(field string, list []*graph.Node) {
		for i, n := range list {
			if n == nil {
				missing(field, i)
				continue
			}
			check(field, i, n.ID)
			nodes(fmt.Sprintf("%s[%d].children", field, i), n.Children)
		}
	}
	nodes("nodes", doc.Nodes)
	for i, w := range doc.Wires {
		if w == nil {
			missing("wires", i)
			continue
		}
		check("wires", i, w.ID)
	}
	for i, s := range doc.StickyNotes {
		if s == nil {
			missing("sticky_notes", i)
			continue
		}
		check("sticky_notes", i, s.ID)
	}
	for i, p := range doc.Placemats {
		if p == nil {
			missing("placemats", i)
			continue
		}
		check("placemats", i, p.ID)
	}
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatFieldError(e))
	}
	return fmt.Errorf("invalid document: %s", strings.Join(messages, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, e.Param())
	case "unique":
		return fmt.Sprintf("%s repeats identity %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
