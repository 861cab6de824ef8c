package google

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"backoffice/internal/core"
	"backoffice/internal/format"
)

var figureHeaders = []string{"Section", "Key", "Label", "Kind", "Value", "Previous", "AsOf"}

var errFigureHeader = errors.New("unexpected figures header")

// parseFigures converts a values matrix (as returned by the Sheets API) into
// figures. The first row must hold the Section, Key, Label, Kind, Value,
// Previous and AsOf headers in any order. Rows that do not form a valid
// figure are skipped and counted.
func parseFigures(values [][]interface{}) ([]core.Figure, int, error) {
	if len(values) == 0 {
		return nil, 0, nil
	}
	headers := toStrings(values[0])
	cols := make(map[string]int, len(figureHeaders))
	var missing []string
	for _, h := range figureHeaders {
		idx := indexOf(headers, h)
		if idx == -1 && h != "Previous" && h != "AsOf" {
			missing = append(missing, h)
		}
		cols[h] = idx
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("%w: missing %s; got headers=%v", errFigureHeader, strings.Join(missing, ","), headers)
	}

	var (
		out     []core.Figure
		skipped int
	)
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlank(row) {
			continue
		}
		f, ok := rowFigure(row, cols)
		if !ok {
			skipped++
			continue
		}
		out = append(out, f)
	}
	core.SortFigures(out)
	return out, skipped, nil
}

func rowFigure(row []string, cols map[string]int) (core.Figure, bool) {
	section, err := core.ParseSection(safeGet(row, cols["Section"]))
	if err != nil {
		return core.Figure{}, false
	}
	kind, err := core.ParseKind(safeGet(row, cols["Kind"]))
	if err != nil {
		return core.Figure{}, false
	}
	value, ok := parseCellDecimal(safeGet(row, cols["Value"]))
	if !ok {
		return core.Figure{}, false
	}
	f := core.Figure{
		Section: section,
		Key:     safeGet(row, cols["Key"]),
		Label:   safeGet(row, cols["Label"]),
		Kind:    kind,
		Value:   value,
	}
	if prev, ok := parseCellDecimal(safeGet(row, cols["Previous"])); ok {
		f.Previous = &prev
	}
	if s := safeGet(row, cols["AsOf"]); s != "" {
		asOf, err := time.Parse("2006-01-02", s)
		if err != nil {
			return core.Figure{}, false
		}
		f.AsOf = asOf
	}
	return f, f.Validate() == nil
}

// parseCellDecimal accepts plain numbers and a single decimal comma.
func parseCellDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return format.Bounded(d)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
