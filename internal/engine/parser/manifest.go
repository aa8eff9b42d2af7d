package parser

import (
	"bytes"
	"encoding/json"
	"path"
	"sort"
	"strings"
)

// ManifestParser reads JSON project manifests: package.json entry points
// and tsconfig/jsconfig extends and project references.
type ManifestParser struct{}

func NewManifestParser() *ManifestParser { return &ManifestParser{} }

func (p *ManifestParser) CanHandle(filePath string) bool {
	base := strings.ToLower(path.Base(filePath))
	return base == "package.json" || base == "jsconfig.json" ||
		(strings.HasPrefix(base, "tsconfig") && strings.HasSuffix(base, ".json"))
}

var packageEntryFields = []string{"main", "module", "types", "typings", "browser"}

func (p *ManifestParser) Parse(content []byte, filePath string) ParseResult {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(stripJSONC(content), &doc); err != nil {
		return parseFailed("json", filePath, "invalid json: "+err.Error())
	}

	var raws []string
	if strings.EqualFold(path.Base(filePath), "package.json") {
		for _, field := range packageEntryFields {
			var value string
			if err := json.Unmarshal(doc[field], &value); err == nil && value != "" {
				raws = append(raws, asRelative(value))
			}
		}
	} else {
		raws = append(raws, tsconfigExtends(doc["extends"])...)
		var refs []struct {
			Path string `json:"path"`
		}
		if err := json.Unmarshal(doc["references"], &refs); err == nil {
			for _, ref := range refs {
				if ref.Path == "" {
					continue
				}
				target := asRelative(ref.Path)
				if !strings.HasSuffix(strings.ToLower(target), ".json") {
					target = strings.TrimSuffix(target, "/") + "/tsconfig.json"
				}
				raws = append(raws, target)
			}
		}
	}

	imports := make([]ImportReference, 0, len(raws))
	for _, raw := range raws {
		imports = append(imports, ImportReference{Raw: raw, Kind: KindConfigReference, Line: lineOf(content, raw)})
	}
	sort.SliceStable(imports, func(i, j int) bool { return imports[i].Line < imports[j].Line })
	return parsed("json", imports)
}

func tsconfigExtends(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}

// asRelative anchors manifest paths at the manifest's directory.
func asRelative(p string) string {
	if strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../") || strings.HasPrefix(p, "/") {
		return p
	}
	return "./" + p
}

// lineOf returns the line of the first occurrence of the quoted value, or 1.
func lineOf(content []byte, raw string) int {
	needle := strings.TrimPrefix(raw, "./")
	needle = strings.TrimSuffix(needle, "/tsconfig.json")
	idx := bytes.Index(content, []byte(needle))
	if idx < 0 {
		return 1
	}
	return bytes.Count(content[:idx], []byte("\n")) + 1
}

// stripJSONC removes // and /* */ comments and trailing commas, which
// tsconfig files allow.
func stripJSONC(in []byte) []byte {
	out := make([]byte, 0, len(in))
	inString := false
	for i := 0; i < len(in); i++ {
		c := in[i]
		if inString {
			out = append(out, c)
			if c == '\\' && i+1 < len(in) {
				i++
				out = append(out, in[i])
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(in) && in[i+1] == '/':
			for i < len(in) && in[i] != '\n' {
				i++
			}
			if i < len(in) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(in) && in[i+1] == '*':
			i += 2
			for i+1 < len(in) && !(in[i] == '*' && in[i+1] == '/') {
				if in[i] == '\n' {
					out = append(out, '\n')
				}
				i++
			}
			i++
		case c == '}' || c == ']':
			// Drop a trailing comma before the closing bracket.
			j := len(out) - 1
			for j >= 0 && (out[j] == ' ' || out[j] == '\t' || out[j] == '\n' || out[j] == '\r') {
				j--
			}
			if j >= 0 && out[j] == ',' {
				out = append(out[:j], out[j+1:]...)
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return out
}
