package repository

import "context"

// TemplateStore is A6: the hot-reloadable table of prompt and email
// templates. Render expands a named template's subject/body against a
// parameter map.
type TemplateStore interface {
	Render(ctx context.Context, name string, params map[string]string) (subject, body string, err error)

	// PolicyBlock returns the fixed assistant-behavior text C5 prefixes
	// every composed prompt with.
	PolicyBlock(ctx context.Context) (string, error)
}
