package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// structuredProducer pretty-prints JSON and YAML before highlighting. Input
// that does not parse is shown as-is.
type structuredProducer struct {
	hl *highlighter
}

func (structuredProducer) CanHandle(src *source) bool {
	if src.mode != ModeRendered {
		return false
	}
	switch src.ext {
	case "json", "yaml", "yml":
		return true
	}
	return false
}

func (p structuredProducer) Produce(ctx context.Context, src *source) (*Payload, error) {
	raw, err := src.text()
	if err != nil {
		return nil, err
	}

	formatted, lang, ok := formatStructured(src.ext, raw)
	text := textProducer{hl: p.hl}
	if !ok {
		payload, err := text.render(ctx, src, raw, lexerFor(src.name, raw))
		if err == nil {
			payload.Title += " · not valid " + lang
		}
		return payload, err
	}

	payload, err := text.render(ctx, src, formatted, lexerForLanguage(lang, formatted))
	if err != nil {
		return nil, err
	}
	payload.Kind = KindStructured
	payload.Title += " · formatted"
	return payload, nil
}

// formatStructured re-indents JSON or YAML. It returns the language name
// and whether the input parsed.
func formatStructured(ext, raw string) (string, string, bool) {
	if ext == "json" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
			return "", "json", false
		}
		return buf.String(), "json", true
	}

	dec := yaml.NewDecoder(strings.NewReader(raw))
	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", "yaml", false
		}
		if err := enc.Encode(&doc); err != nil {
			return "", "yaml", false
		}
	}
	if err := enc.Close(); err != nil {
		return "", "yaml", false
	}
	return out.String(), "yaml", true
}
