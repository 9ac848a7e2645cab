package arbiter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/luisKisters/bahnhofjaeger/pkg/constants"
	"github.com/luisKisters/bahnhofjaeger/pkg/errors"
)

// Item is one decoded element of an arbiter response.
type Item struct {
	Position    int    // 1-based position in the response array
	StationID   int    // 0 when missing or unreadable
	StationName string // echoed source name
	Index       int    // candidate rank as sent; only meaningful when Picked
	Picked      bool   // false when the arbiter reported no match
	MatchName   string
	Confidence  *float64
	Explanation string
}

// rawItem keeps every field undecoded so each can be repaired on its own.
type rawItem struct {
	StationID   json.RawMessage `json:"station_id"`
	StationName json.RawMessage `json:"preisliste_name"`
	Index       json.RawMessage `json:"correct_match_index"`
	MatchName   json.RawMessage `json:"correct_match_name"`
	Confidence  json.RawMessage `json:"confidence"`
	Explanation json.RawMessage `json:"explanation"`
}

// ParseResponse decodes the JSON array embedded in text, from the first '['
// to the last ']'. Surrounding prose and code fences are ignored. The error
// is set when no array can be decoded; items that cannot be used are
// reported individually and left out.
func ParseResponse(text string) ([]Item, []*errors.ArbiterError, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, nil, errors.NewArbiterError(errors.ArbiterMalformedResponse, 0, 0,
			"no JSON array in response: "+preview(text), nil)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &elements); err != nil {
		return nil, nil, errors.NewArbiterError(errors.ArbiterMalformedResponse, 0, 0,
			"invalid JSON array", err)
	}

	var (
		items   []Item
		skipped []*errors.ArbiterError
	)
	for i, element := range elements {
		position := i + 1
		item, err := decodeItem(position, element)
		if err != nil {
			skipped = append(skipped, errors.NewArbiterError(errors.ArbiterMalformedResponse, 0, position, err.Error(), err))
			continue
		}
		items = append(items, item)
	}
	return items, skipped, nil
}

func decodeItem(position int, element json.RawMessage) (Item, error) {
	trimmed := bytes.TrimSpace(element)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Item{}, fmt.Errorf("item is not an object")
	}

	var raw rawItem
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return Item{}, err
	}

	item := Item{
		Position:    position,
		StationName: decodeText(raw.StationName),
		MatchName:   decodeText(raw.MatchName),
		Confidence:  decodeConfidence(raw.Confidence),
		Explanation: decodeText(raw.Explanation),
	}

	// An unreadable station id falls back to name resolution.
	if id, ok, err := decodeInt(raw.StationID); err == nil && ok {
		item.StationID = id
	}

	index, ok, err := decodeInt(raw.Index)
	if err != nil {
		return Item{}, fmt.Errorf("correct_match_index: %w", err)
	}
	item.Index, item.Picked = index, ok
	return item, nil
}

// decodeInt accepts a JSON integer, a digit string or "Station N". ok is
// false for null, a missing field or an empty string.
func decodeInt(raw json.RawMessage) (n int, ok bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false, err
		}
		s = strings.TrimSpace(s)
		if len(s) >= len("station ") && strings.EqualFold(s[:len("station ")], "station ") {
			s = strings.TrimSpace(s[len("station "):])
		}
		if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
			return 0, false, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false, fmt.Errorf("%q is not a number", s)
		}
		return n, true, nil
	default:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return 0, false, fmt.Errorf("%s is not a number", raw)
		}
		if f != math.Trunc(f) {
			return 0, false, fmt.Errorf("%s is not an integer", raw)
		}
		return int(f), true, nil
	}
}

// decodeConfidence accepts a number or a numeric string, optionally with a
// percent sign, and clamps it to [0,100]. Anything else is treated as absent.
func decodeConfidence(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var f float64
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%")), 64)
		if err != nil {
			return nil
		}
		f = parsed
	} else if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}

	if math.IsNaN(f) {
		return nil
	}
	f = math.Max(0, math.Min(100, f))
	return &f
}

func decodeText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= constants.ResponsePreviewLength {
		return text
	}
	return string(runes[:constants.ResponsePreviewLength]) + "..."
}
