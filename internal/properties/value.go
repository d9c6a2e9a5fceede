package properties

import "github.com/MacJediWizard/console/internal/integrations/notion"

// Value returns the Go value of a Notion property according to its type:
// string for text-like types, *float64 for number, []string for
// multi_select, bool for checkbox. Unknown types yield nil.
func Value(p *notion.PropertyValue) any {
	if p == nil {
		return nil
	}

	switch p.Type {
	case "title":
		return firstPlainText(p.Title)
	case "rich_text":
		return firstPlainText(p.RichText)
	case "number":
		return p.Number
	case "select":
		if p.Select == nil {
			return ""
		}
		return p.Select.Name
	case "multi_select":
		names := make([]string, 0, len(p.MultiSelect))
		for _, opt := range p.MultiSelect {
			names = append(names, opt.Name)
		}
		return names
	case "checkbox":
		return p.Checkbox
	case "date":
		if p.Date == nil {
			return ""
		}
		return p.Date.Start
	case "email":
		return deref(p.Email)
	case "phone_number":
		return deref(p.PhoneNumber)
	}
	return nil
}

// Text returns a text-like property by name, or "" when absent.
func Text(props map[string]notion.PropertyValue, name string) string {
	p, ok := props[name]
	if !ok {
		return ""
	}
	s, _ := Value(&p).(string)
	return s
}

// Number returns a number property by name, or nil when absent or empty.
func Number(props map[string]notion.PropertyValue, name string) *float64 {
	p, ok := props[name]
	if !ok {
		return nil
	}
	n, _ := Value(&p).(*float64)
	return n
}

// Strings returns a multi_select property by name.
func Strings(props map[string]notion.PropertyValue, name string) []string {
	p, ok := props[name]
	if !ok {
		return nil
	}
	s, _ := Value(&p).([]string)
	return s
}

func firstPlainText(items []notion.RichText) string {
	if len(items) == 0 {
		return ""
	}
	return items[0].PlainText
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
