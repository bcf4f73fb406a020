// Package timeparse converts human time phrases into absolute UTC instants
// under a user's timezone.
package timeparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	errcode "github.com/hearthbot/remindd/internal/errors"
)

// Cadence is a recognized recurrence period in a phrase.
type Cadence string

const (
	CadenceNone   Cadence = ""
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

// Result is the outcome of parsing a time phrase.
type Result struct {
	// Due is the resolved instant, always UTC.
	Due time.Time
	// Residue is trailing free text the parser did not consume.
	Residue string
	// Cadence is set when the phrase asked for a recurring reminder.
	Cadence Cadence
}

// Patterns for time tokens
var (
	numberPattern = regexp.MustCompile(`^\d+$`)
	datePattern   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	clockPattern  = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	ampmPattern   = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(am|pm)$`)
)

// durationUnits maps duration unit tokens to their length.
var durationUnits = map[string]time.Duration{
	"minute": time.Minute,
	"min":    time.Minute,
	"hour":   time.Hour,
	"hr":     time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
}

// weekdays maps weekday tokens to time.Weekday.
var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// cadencePrefixes maps recurrence phrasings to cadences, longest first.
var cadencePrefixes = []struct {
	prefix  string
	cadence Cadence
}{
	{"every week", CadenceWeekly},
	{"every day", CadenceDaily},
	{"weekly", CadenceWeekly},
	{"daily", CadenceDaily},
}

// Parser parses natural language time phrases. It is stateless: the result
// is fully determined by the phrase, the zone and the injected clock.
type Parser struct {
	now func() time.Time
}

// NewParser creates a parser using the wall clock.
func NewParser() *Parser {
	return &Parser{now: time.Now}
}

// NewParserAt creates a parser with a fixed clock, for tests.
func NewParserAt(now func() time.Time) *Parser {
	return &Parser{now: now}
}

// Parse interprets a phrase under the given zone and returns the due instant
// in UTC plus any trailing free text. Phrases starting with "in" are
// durations relative to now; everything else is a possibly-fuzzy absolute
// time in the user's zone, with missing fields defaulting to the current
// local time.
func (p *Parser) Parse(phrase string, loc *time.Location) (*Result, error) {
	if loc == nil {
		loc = time.UTC
	}

	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil, errcode.Unparseable("empty phrase")
	}

	nowUTC := p.now().UTC()
	nowLocal := nowUTC.In(loc)

	cadence, rest := detectCadence(phrase)

	var result *Result
	var err error
	switch {
	case rest == "" && cadence != CadenceNone:
		// Bare "daily" or "every week": first occurrence is one period out.
		result = &Result{Due: nowUTC.Add(cadenceStep(cadence))}
	case hasDurationPrefix(rest):
		result, err = p.parseDuration(rest, nowUTC)
	default:
		result, err = p.parseAbsolute(rest, nowLocal, loc)
	}
	if err != nil {
		return nil, err
	}

	result.Cadence = cadence
	result.Due = result.Due.Truncate(time.Second)
	// A recurring phrase whose first occurrence already passed today rolls
	// forward to the next one.
	for cadence != CadenceNone && !result.Due.After(nowUTC) {
		result.Due = result.Due.Add(cadenceStep(cadence))
	}
	if !result.Due.After(nowUTC) {
		return nil, errcode.NotInFuture()
	}
	return result, nil
}

func detectCadence(phrase string) (Cadence, string) {
	lower := strings.ToLower(phrase)
	for _, c := range cadencePrefixes {
		if lower == c.prefix {
			return c.cadence, ""
		}
		if strings.HasPrefix(lower, c.prefix+" ") {
			return c.cadence, strings.TrimSpace(phrase[len(c.prefix):])
		}
	}
	return CadenceNone, phrase
}

func cadenceStep(c Cadence) time.Duration {
	if c == CadenceWeekly {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

func hasDurationPrefix(phrase string) bool {
	return len(phrase) > 3 && strings.EqualFold(phrase[:3], "in ")
}

// parseDuration handles "in N unit [N unit ...]" phrases. Unconsumed
// trailing tokens become the residue.
func (p *Parser) parseDuration(phrase string, nowUTC time.Time) (*Result, error) {
	tokens := strings.Fields(phrase)[1:]
	if len(tokens) == 0 {
		return nil, errcode.Unparseable("missing duration")
	}

	var total time.Duration
	i := 0
	for i < len(tokens) && numberPattern.MatchString(tokens[i]) {
		if i+1 >= len(tokens) {
			return nil, errcode.Unparseable(fmt.Sprintf("missing unit after %q", tokens[i]))
		}
		n, err := strconv.Atoi(tokens[i])
		if err != nil || n < 1 {
			return nil, errcode.Unparseable(fmt.Sprintf("bad amount %q", tokens[i]))
		}
		unit, ok := durationUnits[normalizeUnit(tokens[i+1])]
		if !ok {
			return nil, errcode.Unparseable(fmt.Sprintf("unknown unit %q", tokens[i+1]))
		}
		total += time.Duration(n) * unit
		i += 2
		// "in 1 hour and 30 minutes"
		if i+1 < len(tokens) && strings.EqualFold(tokens[i], "and") && numberPattern.MatchString(tokens[i+1]) {
			i++
		}
	}

	if total == 0 {
		return nil, errcode.Unparseable("missing duration")
	}
	return &Result{
		Due:     nowUTC.Add(total),
		Residue: strings.Join(tokens[i:], " "),
	}, nil
}

func normalizeUnit(token string) string {
	token = strings.ToLower(token)
	token = strings.TrimSuffix(token, "s")
	return token
}

// parseAbsolute consumes leading temporal tokens and leaves the rest as
// residue. Recognized shapes: YYYY-MM-DD [time], today/tomorrow [time],
// weekday [time], and a bare time of day.
func (p *Parser) parseAbsolute(phrase string, nowLocal time.Time, loc *time.Location) (*Result, error) {
	tokens := strings.Fields(phrase)

	year, month, day := nowLocal.Date()
	hour, minute := nowLocal.Hour(), nowLocal.Minute()
	dateSet, timeSet := false, false

	i := 0
	for i < len(tokens) {
		token := strings.ToLower(tokens[i])
		if token == "at" && !timeSet && i+1 < len(tokens) {
			// Only a clock token may follow; "at the office" is body text.
			if _, _, ok := parseClock(strings.ToLower(tokens[i+1])); ok {
				i++
				continue
			}
			break
		}

		if !dateSet {
			if matches := datePattern.FindStringSubmatch(token); matches != nil {
				y, _ := strconv.Atoi(matches[1])
				m, _ := strconv.Atoi(matches[2])
				d, _ := strconv.Atoi(matches[3])
				if m < 1 || m > 12 || d < 1 || d > 31 {
					return nil, errcode.Unparseable(fmt.Sprintf("bad date %q", tokens[i]))
				}
				year, month, day = y, time.Month(m), d
				dateSet = true
				i++
				continue
			}
			if token == "today" || token == "tomorrow" {
				if token == "tomorrow" {
					next := nowLocal.AddDate(0, 0, 1)
					year, month, day = next.Date()
				}
				dateSet = true
				i++
				continue
			}
			if wd, ok := weekdays[token]; ok {
				diff := (int(wd) - int(nowLocal.Weekday()) + 7) % 7
				if diff == 0 {
					diff = 7
				}
				next := nowLocal.AddDate(0, 0, diff)
				year, month, day = next.Date()
				dateSet = true
				i++
				continue
			}
		}

		if !timeSet {
			if h, m, ok := parseClock(token); ok {
				hour, minute = h, m
				timeSet = true
				i++
				continue
			}
		}

		break
	}

	if !dateSet && !timeSet {
		return nil, errcode.Unparseable(fmt.Sprintf("no time found in %q", phrase))
	}

	due := time.Date(year, month, day, hour, minute, 0, 0, loc)
	return &Result{
		Due:     due.UTC(),
		Residue: strings.Join(tokens[i:], " "),
	}, nil
}

// parseClock recognizes a single time-of-day token.
func parseClock(token string) (hour, minute int, ok bool) {
	switch token {
	case "noon":
		return 12, 0, true
	case "midnight":
		return 0, 0, true
	}

	if matches := clockPattern.FindStringSubmatch(token); matches != nil {
		h, _ := strconv.Atoi(matches[1])
		m, _ := strconv.Atoi(matches[2])
		if h <= 23 && m <= 59 {
			return h, m, true
		}
		return 0, 0, false
	}

	if matches := ampmPattern.FindStringSubmatch(token); matches != nil {
		h, _ := strconv.Atoi(matches[1])
		m := 0
		if matches[2] != "" {
			m, _ = strconv.Atoi(matches[2])
		}
		if h < 1 || h > 12 || m > 59 {
			return 0, 0, false
		}
		if matches[3] == "pm" && h < 12 {
			h += 12
		} else if matches[3] == "am" && h == 12 {
			h = 0
		}
		return h, m, true
	}

	return 0, 0, false
}
