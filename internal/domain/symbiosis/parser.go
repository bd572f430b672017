package symbiosis

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/turtacn/SymbioLink/pkg/errors"
)

// DecodeEntities reads a JSON array of entities, a JSON object with an
// "entities" array, or the plain-text company block format.
func DecodeEntities(r io.Reader) ([]Entity, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeParse, "read entity input")
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []Entity{}, nil
	}

	switch trimmed[0] {
	case '[':
		var out []Entity
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeParse, "decode entity array")
		}
		return out, nil
	case '{':
		var doc struct {
			Entities []Entity `json:"entities"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeParse, "decode entity document")
		}
		return doc.Entities, nil
	default:
		return ParseCompanyBlocks(string(trimmed)), nil
	}
}

// ParseCompanyBlocks reads records of the form
//
//	Company 12
//	Name: Aluminium Gulf Enterprises
//	Industry: Manufacturing (General)
//	Products: Steel Products
//	Location: Saudi Arabia
//	Volume: 17569 metric tons of metal scraps
//	Materials: Fabrics, Raw Metals
//	Processes: Assembly → Casting
//	Waste Materials: Copper wire, Aluminum offcuts
//
// Unknown or malformed lines are ignored. Ids are "company-<n>".
func ParseCompanyBlocks(text string) []Entity {
	var (
		out []Entity
		cur *Entity
	)
	flush := func() {
		if cur != nil && cur.ID != "" {
			out = append(out, *cur)
		}
		cur = nil
	}

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if n, ok := companyHeader(line); ok {
			flush()
			cur = &Entity{ID: "company-" + n}
			continue
		}
		if cur == nil {
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			cur.Name = val
		case "industry":
			cur.Industry = val
		case "location":
			cur.Location = val
		case "products":
			cur.Products = splitList(val, ",")
		case "materials":
			cur.Materials = splitList(val, ",")
		case "waste materials":
			cur.WasteOutputs = splitList(val, ",")
		case "processes":
			cur.Processes = splitList(val, "→")
		case "volume":
			cur.Volume = parseVolume(val)
		}
	}
	flush()
	return out
}

func companyHeader(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, "Company ")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if _, err := strconv.Atoi(rest); err != nil {
		return "", false
	}
	return rest, true
}

func splitList(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseVolume reads "<amount> <unit...> of <stream>".
func parseVolume(s string) Volume {
	v := Volume{Description: s}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return v
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", ""), 64)
	if err != nil {
		return v
	}
	v.Amount = amount
	unit := strings.Join(fields[1:], " ")
	if i := strings.Index(unit, " of "); i >= 0 {
		unit = unit[:i]
	}
	v.Unit = unit
	return v
}
