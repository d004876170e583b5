package plan

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errInvalidNumberList = errors.New("invalid number list")

// ParseNumbers parses a machine number list such as "1..38", "1,3,5", "[1, 2]",
// "1..4,7" or the legacy "range(1, 39)" (end exclusive).
func ParseNumbers(text string) ([]int, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	if len(text) == 0 {
		return nil, nil
	}
	if strings.HasPrefix(text, "range(") && strings.HasSuffix(text, ")") {
		return parseLegacyRange(text[len("range(") : len(text)-1])
	}
	var ns []int
	for _, item := range strings.Split(text, ",") {
		item = strings.TrimSpace(item)
		if len(item) == 0 {
			continue
		}
		if a, b, ok := strings.Cut(item, ".."); ok {
			begin, err := parseNumber(a)
			if err != nil {
				return nil, err
			}
			end, err := parseNumber(b)
			if err != nil {
				return nil, err
			}
			if end < begin {
				return nil, fmt.Errorf("%w: %q", errInvalidNumberList, item)
			}
			for i := begin; i <= end; i++ {
				ns = append(ns, i)
			}
			continue
		}
		n, err := parseNumber(item)
		if err != nil {
			return nil, err
		}
		ns = append(ns, n)
	}
	return ns, nil
}

func parseLegacyRange(args string) ([]int, error) {
	parts := strings.Split(args, ",")
	var begin, end int
	var err error
	switch len(parts) {
	case 1:
		end, err = parseNumber(parts[0])
	case 2:
		if begin, err = parseNumber(parts[0]); err == nil {
			end, err = parseNumber(parts[1])
		}
	default:
		return nil, fmt.Errorf("%w: range(%s)", errInvalidNumberList, args)
	}
	if err != nil {
		return nil, err
	}
	var ns []int
	for i := begin; i < end; i++ {
		ns = append(ns, i)
	}
	return ns, nil
}

func parseNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", errInvalidNumberList, s)
	}
	return n, nil
}
