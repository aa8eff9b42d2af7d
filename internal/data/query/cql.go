// Package query implements a small SELECT language over snapshot files,
// e.g. `SELECT files WHERE fan_in >= 3 AND classification = "page"`.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"impactgraph/internal/engine/graph"
)

var (
	cqlSelectRE       = regexp.MustCompile(`(?i)^\s*SELECT\s+files(?:\s+WHERE\s+(.+))?\s*$`)
	cqlAndSplitRE     = regexp.MustCompile(`(?i)\s+AND\s+`)
	cqlNumericCondRE  = regexp.MustCompile(`(?i)^\s*([a-z_]+)\s*(>=|<=|!=|=|>|<)\s*(-?[0-9]+)\s*$`)
	cqlContainsCondRE = regexp.MustCompile(`(?i)^\s*([a-z_]+)\s+CONTAINS\s+['"]([^'"]+)['"]\s*$`)
	cqlStringCondRE   = regexp.MustCompile(`(?i)^\s*([a-z_]+)\s*(=|!=)\s*['"]([^'"]+)['"]\s*$`)
)

var (
	numericFields = map[string]bool{"fan_in": true, "fan_out": true, "unresolved": true}
	stringFields  = map[string]bool{"path": true, "language": true, "classification": true, "status": true, "stale": true}
)

type CQLQuery struct {
	Target     string
	Conditions []CQLCondition
}

type CQLCondition struct {
	Field  string
	Op     string
	IntVal int
	StrVal string
	IsInt  bool
	IsStr  bool
}

// FileRow is one file of a snapshot with its derived counters.
type FileRow struct {
	Path           string `json:"path"`
	Language       string `json:"language"`
	Classification string `json:"classification"`
	Status         string `json:"status"`
	Stale          bool   `json:"stale"`
	FanIn          int    `json:"fan_in"`
	FanOut         int    `json:"fan_out"`
	Unresolved     int    `json:"unresolved"`
}

func ParseCQL(raw string) (CQLQuery, error) {
	matches := cqlSelectRE.FindStringSubmatch(strings.TrimSpace(raw))
	if len(matches) == 0 {
		return CQLQuery{}, fmt.Errorf("invalid CQL query: expected SELECT files [WHERE ...]")
	}

	query := CQLQuery{Target: "files"}
	where := strings.TrimSpace(matches[1])
	if where == "" {
		return query, nil
	}

	parts := cqlAndSplitRE.Split(where, -1)
	query.Conditions = make([]CQLCondition, 0, len(parts))
	for _, part := range parts {
		condition, err := parseCQLCondition(part)
		if err != nil {
			return CQLQuery{}, err
		}
		query.Conditions = append(query.Conditions, condition)
	}
	return query, nil
}

func parseCQLCondition(raw string) (CQLCondition, error) {
	if match := cqlNumericCondRE.FindStringSubmatch(raw); len(match) == 4 {
		field := strings.ToLower(strings.TrimSpace(match[1]))
		if !numericFields[field] {
			return CQLCondition{}, fmt.Errorf("field %q is not numeric", field)
		}
		value, err := parseInt(match[3])
		if err != nil {
			return CQLCondition{}, fmt.Errorf("invalid numeric value %q: %w", match[3], err)
		}
		return CQLCondition{
			Field:  field,
			Op:     strings.TrimSpace(match[2]),
			IntVal: value,
			IsInt:  true,
		}, nil
	}

	if match := cqlContainsCondRE.FindStringSubmatch(raw); len(match) == 3 {
		field := strings.ToLower(strings.TrimSpace(match[1]))
		if !stringFields[field] {
			return CQLCondition{}, fmt.Errorf("unknown text field %q", field)
		}
		return CQLCondition{
			Field:  field,
			Op:     "contains",
			StrVal: strings.TrimSpace(match[2]),
			IsStr:  true,
		}, nil
	}

	if match := cqlStringCondRE.FindStringSubmatch(raw); len(match) == 4 {
		field := strings.ToLower(strings.TrimSpace(match[1]))
		if !stringFields[field] {
			return CQLCondition{}, fmt.Errorf("unknown text field %q", field)
		}
		return CQLCondition{
			Field:  field,
			Op:     strings.TrimSpace(match[2]),
			StrVal: strings.TrimSpace(match[3]),
			IsStr:  true,
		}, nil
	}

	return CQLCondition{}, fmt.Errorf("invalid CQL condition %q", strings.TrimSpace(raw))
}

func parseInt(raw string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(raw))
}

// Execute evaluates q against snap. Rows come back in path order; a
// positive limit caps them.
func Execute(snap *graph.Snapshot, q CQLQuery, limit int) []FileRow {
	rows := make([]FileRow, 0)
	for _, p := range snap.Paths() {
		row := rowOf(snap, p)
		if !matchesAll(row, q.Conditions) {
			continue
		}
		rows = append(rows, row)
		if limit > 0 && len(rows) >= limit {
			break
		}
	}
	return rows
}

func rowOf(snap *graph.Snapshot, p string) FileRow {
	n, _ := snap.Node(p)
	row := FileRow{
		Path:           p,
		Language:       n.Language,
		Classification: string(n.Classification),
		Status:         string(n.Status),
		Stale:          n.Stale,
		FanIn:          snap.InDegree(p),
	}
	for _, e := range snap.Edges(p) {
		if e.Resolved {
			row.FanOut++
		} else {
			row.Unresolved++
		}
	}
	return row
}

func matchesAll(row FileRow, conditions []CQLCondition) bool {
	for _, c := range conditions {
		if !matches(row, c) {
			return false
		}
	}
	return true
}

func matches(row FileRow, c CQLCondition) bool {
	if c.IsInt {
		var v int
		switch c.Field {
		case "fan_in":
			v = row.FanIn
		case "fan_out":
			v = row.FanOut
		case "unresolved":
			v = row.Unresolved
		}
		switch c.Op {
		case ">":
			return v > c.IntVal
		case ">=":
			return v >= c.IntVal
		case "<":
			return v < c.IntVal
		case "<=":
			return v <= c.IntVal
		case "=":
			return v == c.IntVal
		case "!=":
			return v != c.IntVal
		}
		return false
	}

	var v string
	switch c.Field {
	case "path":
		v = row.Path
	case "language":
		v = row.Language
	case "classification":
		v = row.Classification
	case "status":
		v = row.Status
	case "stale":
		v = strconv.FormatBool(row.Stale)
	}
	switch c.Op {
	case "contains":
		return strings.Contains(v, c.StrVal)
	case "=":
		return strings.EqualFold(v, c.StrVal)
	case "!=":
		return !strings.EqualFold(v, c.StrVal)
	}
	return false
}
