// Package template substitutes {{...}} placeholders in note templates.
// Three placeholder families are supported, checked in this order:
// date expressions ({{date:FORMAT}} or {{date:FORMAT| OFFSET}}), numeric
// expressions ({{2 + 3}}), and caller-supplied variables ({{name}}).
// A placeholder that resolves to nothing is left verbatim.
package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	placeholderRe = regexp.MustCompile(`\{\{([^{}]+)\}\}`)
	offsetRe      = regexp.MustCompile(`^([+-]?)(\d+)([dwmy])$`)
	numericRe     = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\s*([+\-*/%])\s*(-?\d+(?:\.\d+)?)$`)
)

// Render substitutes every placeholder in body. Date expressions resolve
// against the current local time.
func Render(body string, vars map[string]string) string {
	return renderAt(body, vars, time.Now())
}

func renderAt(body string, vars map[string]string, now time.Time) string {
	// Single left-to-right scan: substituted values are never re-expanded,
	// so the result does not depend on map iteration order.
	return placeholderRe.ReplaceAllStringFunc(body, func(m string) string {
		expr := strings.TrimSpace(m[2 : len(m)-2])

		if rest, ok := strings.CutPrefix(expr, "date:"); ok {
			if out, err := evalDate(rest, now); err == nil {
				return out
			}
			return m
		}
		if out, ok := evalNumeric(expr); ok {
			return out
		}
		if v, ok := vars[expr]; ok {
			return v
		}
		return m
	})
}

// evalDate resolves "FORMAT" or "FORMAT| OFFSET" against now.
func evalDate(spec string, now time.Time) (string, error) {
	format := spec
	if i := strings.IndexByte(spec, '|'); i >= 0 {
		format = strings.TrimSpace(spec[:i])
		var err error
		now, err = applyOffset(now, strings.TrimSpace(spec[i+1:]))
		if err != nil {
			return "", err
		}
	}
	if format == "" {
		return "", fmt.Errorf("template: empty date format")
	}
	return formatMoment(format, now), nil
}

// applyOffset shifts t by an offset like "-7d", "+1w", "2m", "-1y".
func applyOffset(t time.Time, offset string) (time.Time, error) {
	m := offsetRe.FindStringSubmatch(offset)
	if m == nil {
		return t, fmt.Errorf("template: invalid date offset %q", offset)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return t, fmt.Errorf("template: invalid offset amount %q", m[2])
	}
	if m[1] == "-" {
		n = -n
	}
	switch m[3] {
	case "d":
		return t.AddDate(0, 0, n), nil
	case "w":
		return t.AddDate(0, 0, 7*n), nil
	case "m":
		return t.AddDate(0, n, 0), nil
	case "y":
		return t.AddDate(n, 0, 0), nil
	}
	return t, fmt.Errorf("template: unknown offset unit %q", m[3])
}

// formatMoment renders t according to a moment.js-style format string.
// Tokens are rendered directly from the time value; Go layout strings
// cannot express unpadded fields or ISO week numbers.
func formatMoment(format string, t time.Time) string {
	var out strings.Builder
	i := 0
	for i < len(format) {
		c := format[i]
		run := 1
		for i+run < len(format) && format[i+run] == c {
			run++
		}
		switch c {
		case 'Y':
			if run >= 4 {
				fmt.Fprintf(&out, "%04d", t.Year())
			} else {
				fmt.Fprintf(&out, "%02d", t.Year()%100)
			}
		case 'M':
			switch {
			case run >= 4:
				out.WriteString(t.Month().String())
			case run == 3:
				out.WriteString(t.Month().String()[:3])
			case run == 2:
				fmt.Fprintf(&out, "%02d", int(t.Month()))
			default:
				fmt.Fprintf(&out, "%d", int(t.Month()))
			}
		case 'D':
			switch {
			case run >= 3:
				fmt.Fprintf(&out, "%03d", t.YearDay())
			case run == 2:
				fmt.Fprintf(&out, "%02d", t.Day())
			default:
				fmt.Fprintf(&out, "%d", t.Day())
			}
		case 'd':
			switch {
			case run >= 4:
				out.WriteString(t.Weekday().String())
			case run == 3:
				out.WriteString(t.Weekday().String()[:3])
			case run == 2:
				fmt.Fprintf(&out, "%02d", t.Day())
			default:
				fmt.Fprintf(&out, "%d", t.Day())
			}
		case 'H':
			if run >= 2 {
				fmt.Fprintf(&out, "%02d", t.Hour())
			} else {
				fmt.Fprintf(&out, "%d", t.Hour())
			}
		case 'm':
			if run >= 2 {
				fmt.Fprintf(&out, "%02d", t.Minute())
			} else {
				fmt.Fprintf(&out, "%d", t.Minute())
			}
		case 's':
			if run >= 2 {
				fmt.Fprintf(&out, "%02d", t.Second())
			} else {
				fmt.Fprintf(&out, "%d", t.Second())
			}
		case 'w':
			_, week := t.ISOWeek()
			if run >= 2 {
				fmt.Fprintf(&out, "%02d", week)
			} else {
				fmt.Fprintf(&out, "%d", week)
			}
		case 'A':
			out.WriteString(meridiem(t, true))
		case 'a':
			out.WriteString(meridiem(t, false))
		default:
			for j := 0; j < run; j++ {
				out.WriteByte(c)
			}
		}
		i += run
	}
	return out.String()
}

func meridiem(t time.Time, upper bool) string {
	s := "am"
	if t.Hour() >= 12 {
		s = "pm"
	}
	if upper {
		return strings.ToUpper(s)
	}
	return s
}

// evalNumeric evaluates a simple binary arithmetic expression.
func evalNumeric(expr string) (string, bool) {
	m := numericRe.FindStringSubmatch(expr)
	if m == nil {
		return "", false
	}
	left, errL := strconv.ParseFloat(m[1], 64)
	right, errR := strconv.ParseFloat(m[3], 64)
	if errL != nil || errR != nil {
		return "", false
	}
	var result float64
	switch m[2] {
	case "+":
		result = left + right
	case "-":
		result = left - right
	case "*":
		result = left * right
	case "/":
		if right == 0 {
			return "", false
		}
		result = left / right
	case "%":
		if int64(right) == 0 {
			return "", false
		}
		result = float64(int64(left) % int64(right))
	}
	if result == float64(int64(result)) {
		return strconv.FormatInt(int64(result), 10), true
	}
	return strconv.FormatFloat(result, 'f', -1, 64), true
}
