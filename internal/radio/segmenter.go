package radio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/airadio/api/internal/client"
	"github.com/airadio/api/internal/model"
)

var sentenceEnd = regexp.MustCompile(`[.!?](\s+|$)`)

// SplitSentences cuts text after every '.', '!' or '?' that is followed
// by whitespace or the end of the text. Punctuation stays with its
// sentence; empty pieces are dropped.
func SplitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// FallbackSegments builds one default-paced segment per sentence.
func FallbackSegments(script string) []model.Segment {
	sentences := SplitSentences(script)
	segments := make([]model.Segment, 0, len(sentences))
	for _, s := range sentences {
		segments = append(segments, model.Segment{
			Text:    s,
			Speed:   model.DefaultSegmentSpeed,
			PauseMS: model.DefaultSegmentPause,
		})
	}
	return segments
}

// ParseSegments extracts segments from a language model response. It uses
// the first balanced JSON array holding at least one object with an
// "audio" key. Entries without text are dropped; speed and pause are
// defaulted and clamped.
func ParseSegments(response string) ([]model.Segment, error) {
	entries, ok := findSegmentArray(response)
	if !ok {
		return nil, fmt.Errorf("%w: no segment array in response", ErrMalformedResponse)
	}

	var segments []model.Segment
	for _, e := range entries {
		text, ok := stringValue(e["audio"])
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}

		speed := model.DefaultSegmentSpeed
		if v, ok := numberValue(e["speed"]); ok {
			speed = clampFloat(v, model.MinSegmentSpeed, model.MaxSegmentSpeed)
		}
		pause := model.DefaultSegmentPause
		if v, ok := numberValue(e["break_after"]); ok {
			pause = int(math.Round(clampFloat(v, model.MinSegmentPauseMS, model.MaxSegmentPauseMS)))
		}

		segments = append(segments, model.Segment{
			Text:    strings.TrimSpace(text),
			Speed:   speed,
			PauseMS: pause,
		})
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no valid segments", ErrMalformedResponse)
	}
	return segments, nil
}

// findSegmentArray scans for '[' positions in order and returns the first
// balanced region that decodes to an array of objects with an "audio" key.
func findSegmentArray(s string) ([]map[string]json.RawMessage, bool) {
	for start := strings.IndexByte(s, '['); start >= 0; {
		if end, ok := matchBracket(s, start); ok {
			if entries, ok := decodeSegmentArray(s[start : end+1]); ok {
				return entries, true
			}
		}
		next := strings.IndexByte(s[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, false
}

// matchBracket returns the index of the ']' closing the '[' at start.
// Brackets inside JSON strings are ignored.
func matchBracket(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func decodeSegmentArray(region string) ([]map[string]json.RawMessage, bool) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(region), &raw); err != nil {
		return nil, false
	}

	var entries []map[string]json.RawMessage
	for _, r := range raw {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(r, &obj); err != nil {
			continue
		}
		if _, ok := obj["audio"]; ok {
			entries = append(entries, obj)
		}
	}
	return entries, len(entries) > 0
}

func stringValue(raw json.RawMessage) (string, bool) {
	if raw == nil || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// numberValue accepts JSON numbers and numeric strings.
func numberValue(raw json.RawMessage) (float64, bool) {
	if raw == nil || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	if s, ok := stringValue(raw); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
	}
	return 0, false
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Segmenter splits a script into speech segments, asking the language
// model first and falling back to sentence splitting.
type Segmenter struct {
	llm      client.LLM
	attempts int
}

// NewSegmenter creates a segmenter using llm for the primary tier
func NewSegmenter(llm client.LLM, attempts int) *Segmenter {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	return &Segmenter{llm: llm, attempts: attempts}
}

// Segment returns at least one segment for any script with text in it.
// Only cancellation is reported as an error.
func (s *Segmenter) Segment(ctx context.Context, script string, log zerolog.Logger) ([]model.Segment, error) {
	prompt := SegmentationPrompt(script)

	segments, err := Retry(ctx, s.attempts, func(ctx context.Context, attempt int) Attempt[[]model.Segment] {
		log.Info().Int("attempt", attempt).Msg("requesting script segmentation")
		call := observedCall("llm", func() (string, error) {
			return s.llm.Complete(ctx, SystemPrompt, prompt)
		})
		if call.Err != nil {
			log.Warn().Err(call.Err).Int("attempt", attempt).Msg("segmentation call failed")
			return Attempt[[]model.Segment]{Outcome: call.Outcome, Err: call.Err}
		}
		segs, err := ParseSegments(call.Value)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("segmentation response rejected")
			return Transient[[]model.Segment](err)
		}
		return Ok(segs)
	})
	if err == nil {
		return segments, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	log.Warn().Err(err).Msg("falling back to sentence segmentation")
	return FallbackSegments(script), nil
}
