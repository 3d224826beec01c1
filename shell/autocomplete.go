package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/domino14/ddsolve/deck"
)

// ShellCompleter completes command names, options and a few argument
// values.
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"load":  {Options: []string{"-index", "-name"}},
	"deal":  {Options: []string{"-cards", "-trump", "-lead", "-seed"}, Args: []string{"random", "single", "line"}},
	"set":   {Args: solverSettings},
	"score": {Options: []string{"-by"}},
	"help":  {Args: []string{"notation", "set", "script"}},
}

var commandNames = []string{
	"help", "alias", "load", "save", "deal", "show", "play", "set", "solve",
	"best", "path", "stats", "score", "script", "exit",
}

var (
	boolValues  = []string{"true", "false"}
	seatValues  = []string{"W", "N", "E", "S"}
	trumpValues = []string{"S", "H", "D", "C", "NT"}
)

// Do implements readline.AutoCompleter.
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = append(append([]string{}, commandNames...), lo.Keys(c.sc.aliases)...)
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		var lastComplete string
		if endsWithSpace {
			lastComplete = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastComplete = fields[len(fields)-2]
		}

		switch {
		case lastComplete == "-lead" || lastComplete == "-by":
			completions = seatValues
		case lastComplete == "-trump":
			completions = trumpValues
		case cmdName == "play" && c.sc.curDeal != nil:
			completions = c.legalCards()
		case cmdName == "set" && lo.Contains(solverSettings, lastComplete) &&
			lastComplete != "max-tricks":
			completions = boolValues
		default:
			if md, ok := commandMetadata[cmdName]; ok {
				if strings.HasPrefix(prefix, "-") || len(md.Args) == 0 {
					completions = md.Options
				} else {
					completions = md.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(strings.ToUpper(completion), strings.ToUpper(prefix)) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}

func (c *ShellCompleter) legalCards() []string {
	d := c.sc.curDeal.Duplicate()
	if d.IsDone() {
		return nil
	}
	return lo.Map(d.LegalMoves(), func(card deck.Card, _ int) string { return card.String() })
}
