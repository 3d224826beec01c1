// Package dealio reads and writes deals. A deal fits on one line:
//
//	W:AKQ.T9..2 N:J.8765.AQ.- E:... S:... lead=N trump=S
//
// Each hand lists spades, hearts, diamonds and clubs separated by dots;
// an empty group or "-" is a void. Optional keys are lead, trump, name,
// played (comma-separated cards, played from the lead in order), and we
// and ns for tricks already taken. Hands hold their cards from before any
// played card. Longer lists live in YAML files.
package dealio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"

	"github.com/domino14/ddsolve/deal"
	"github.com/domino14/ddsolve/deck"
)

var ErrBadNotation = errors.New("bad deal notation")

// Tally is the tricks each pair has already taken.
type Tally struct {
	WE int `yaml:"we"`
	NS int `yaml:"ns"`
}

// Entry is a deal as written in a file.
type Entry struct {
	Name   string            `yaml:"name,omitempty"`
	Trump  string            `yaml:"trump"`
	Lead   string            `yaml:"lead"`
	Hands  map[string]string `yaml:"hands"`
	Played []string          `yaml:"played,omitempty"`
	Tricks Tally             `yaml:"tricks,omitempty"`
}

// File is the layout of a YAML deal file.
type File struct {
	Deals []Entry `yaml:"deals"`
}

// ParseHand parses dotted suit notation into cards, spades first.
func ParseHand(s string) ([]deck.Card, error) {
	groups := strings.Split(strings.TrimSpace(s), ".")
	if len(groups) != deck.NumSuits {
		return nil, fmt.Errorf("%w: hand %q needs %d suits", ErrBadNotation, s, deck.NumSuits)
	}
	var out []deck.Card
	for i, g := range groups {
		cs, err := deck.ParseSuitHolding(deck.Suits[i], g)
		if err != nil {
			return nil, fmt.Errorf("%w: hand %q: %w", ErrBadNotation, s, err)
		}
		out = append(out, cs...)
	}
	return out, nil
}

// FormatHand writes a hand in dotted suit notation.
func FormatHand(h *deal.Hand) string {
	groups := make([]string, deck.NumSuits)
	for i, s := range deck.Suits {
		var sb strings.Builder
		for _, c := range h.SuitHighToLow(s) {
			sb.WriteString(c.Rank.String())
		}
		groups[i] = sb.String()
	}
	return strings.Join(groups, ".")
}

// ParseLine parses the one-line notation.
func ParseLine(line string) (Entry, error) {
	e := Entry{Hands: map[string]string{}, Trump: "NT", Lead: "W"}
	for _, tok := range strings.Fields(line) {
		if k, v, ok := strings.Cut(tok, "="); ok {
			var err error
			switch strings.ToLower(k) {
			case "lead":
				e.Lead = v
			case "trump":
				e.Trump = v
			case "name":
				e.Name = v
			case "played":
				e.Played = strings.Split(v, ",")
			case "we":
				e.Tricks.WE, err = strconv.Atoi(v)
			case "ns":
				e.Tricks.NS, err = strconv.Atoi(v)
			default:
				return Entry{}, fmt.Errorf("%w: unknown key %q", ErrBadNotation, k)
			}
			if err != nil {
				return Entry{}, fmt.Errorf("%w: %s: %w", ErrBadNotation, k, err)
			}
			continue
		}
		seat, hand, ok := strings.Cut(tok, ":")
		if !ok {
			return Entry{}, fmt.Errorf("%w: unexpected %q", ErrBadNotation, tok)
		}
		dir, err := deal.ParseDirection(seat)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %w", ErrBadNotation, err)
		}
		e.Hands[dir.String()[:1]] = hand
	}
	return e, nil
}

// Deal builds the deal an entry describes.
func (e Entry) Deal() (*deal.Deal, error) {
	trump, err := deck.ParseTrump(e.Trump)
	if err != nil {
		return nil, err
	}
	d := deal.New(trump)
	for seat, hand := range e.Hands {
		dir, err := deal.ParseDirection(seat)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadNotation, err)
		}
		cards, err := ParseHand(hand)
		if err != nil {
			return nil, err
		}
		d.SetHand(dir, cards...)
	}
	if e.Lead != "" {
		lead, err := deal.ParseDirection(e.Lead)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadNotation, err)
		}
		if err := d.SetNextToPlay(lead); err != nil {
			return nil, err
		}
	}
	d.SetTricksTaken(deal.WestEast, e.Tricks.WE)
	d.SetTricksTaken(deal.NorthSouth, e.Tricks.NS)
	for _, p := range e.Played {
		c, err := deck.ParseCard(p)
		if err != nil {
			return nil, err
		}
		if err := d.Play(c); err != nil {
			return nil, fmt.Errorf("playing %v: %w", c, err)
		}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// EntryFromDeal describes d so that Entry.Deal rebuilds it. Cards of the
// trick in progress are returned to their players and listed as played.
func EntryFromDeal(name string, d *deal.Deal) Entry {
	e := Entry{
		Name:   name,
		Trump:  trumpNotation(d.Trump()),
		Hands:  map[string]string{},
		Tricks: Tally{WE: d.TricksTaken(deal.WestEast), NS: d.TricksTaken(deal.NorthSouth)},
	}
	trick := d.CurrentTrick()
	e.Lead = trick.Leader.String()[:1]
	for _, dir := range deal.Directions {
		h := deal.NewHand(d.Hand(dir).Cards()...)
		for i, c := range trick.Cards {
			if trick.PlayerAt(i) == dir {
				h.Add(c)
			}
		}
		e.Hands[dir.String()[:1]] = FormatHand(h)
	}
	for _, c := range trick.Cards {
		e.Played = append(e.Played, c.String())
	}
	return e
}

// Line writes the entry in one-line notation.
func (e Entry) Line() string {
	var parts []string
	for _, seat := range []string{"W", "N", "E", "S"} {
		if h, ok := e.Hands[seat]; ok {
			parts = append(parts, seat+":"+h)
		}
	}
	parts = append(parts, "lead="+e.Lead, "trump="+e.Trump)
	if len(e.Played) > 0 {
		parts = append(parts, "played="+strings.Join(e.Played, ","))
	}
	if e.Tricks.WE > 0 {
		parts = append(parts, "we="+strconv.Itoa(e.Tricks.WE))
	}
	if e.Tricks.NS > 0 {
		parts = append(parts, "ns="+strconv.Itoa(e.Tricks.NS))
	}
	if e.Name != "" {
		parts = append(parts, "name="+e.Name)
	}
	return strings.Join(parts, " ")
}

// FormatLine writes d in one-line notation.
func FormatLine(d *deal.Deal) string {
	return EntryFromDeal("", d).Line()
}

func trumpNotation(t deck.Trump) string {
	if s, ok := t.Suit(); ok {
		return s.String()
	}
	return "NT"
}

// ReadLines reads one deal per line. Blank lines and lines starting with
// '#' are skipped. Input that is not UTF-8 is read as ISO-8859-1.
func ReadLines(r io.Reader) ([]Entry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(raw) {
		raw, _, err = transform.Bytes(charmap.ISO8859_1.NewDecoder(), raw)
		if err != nil {
			return nil, err
		}
	}
	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		e, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

func ReadYAML(r io.Reader) ([]Entry, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	return f.Deals, nil
}

func WriteYAML(w io.Writer, entries []Entry) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Deals: entries}); err != nil {
		return err
	}
	return enc.Close()
}

// Load reads a deal file; .yaml and .yml files are YAML, anything else is
// one deal per line.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadYAML(f)
	}
	return ReadLines(f)
}
