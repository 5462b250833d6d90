package workflow

import "regexp"

var placeholderPattern = regexp.MustCompile(`\{\{\s*([\w.\-]+)\s*\}\}`)

// ResolveTemplate substitutes {{dot.path}} placeholders with values looked up
// in the execution context. Unresolvable paths become the empty string.
func ResolveTemplate(tmpl string, ctx *Context) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		path := placeholderPattern.FindStringSubmatch(match)[1]
		v, ok := ctx.Lookup(path)
		if !ok {
			return ""
		}
		return v.Text()
	})
}

// ResolveTemplateMap resolves placeholders in every value of a string map.
func ResolveTemplateMap(m map[string]string, ctx *Context) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = ResolveTemplate(v, ctx)
	}
	return out
}
