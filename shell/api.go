package shell

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/domino14/ddsolve/config"
	"github.com/domino14/ddsolve/deal"
	"github.com/domino14/ddsolve/dealgen"
	"github.com/domino14/ddsolve/dealio"
	"github.com/domino14/ddsolve/deck"
	"github.com/domino14/ddsolve/scoring"
	"github.com/domino14/ddsolve/search"
)

// solverSettings are the config keys the set command may change.
var solverSettings = []string{
	config.ConfigMaxTricks,
	config.ConfigDuplicateRemoval,
	config.ConfigPruneSequence,
	config.ConfigPrunePlayedSequence,
	config.ConfigTerminateForcedRoot,
	config.ConfigAlphaBeta,
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	topic := "usage"
	if len(cmd.args) > 0 {
		topic = cmd.args[0]
	}
	dat, err := helptext.ReadFile("helptext/" + topic + ".txt")
	if err != nil {
		return nil, fmt.Errorf("there is no help text for the topic %s", topic)
	}
	return msg(string(dat)), nil
}

func (sc *ShellController) alias(cmd *shellcmd) (*Response, error) {
	switch len(cmd.args) {
	case 0:
		names := lo.Keys(sc.aliases)
		sort.Strings(names)
		lines := lo.Map(names, func(n string, _ int) string { return n + " = " + sc.aliases[n] })
		return msg(strings.Join(lines, "\n")), nil
	case 1:
		v, ok := sc.aliases[cmd.args[0]]
		if !ok {
			return nil, fmt.Errorf("no alias named %s", cmd.args[0])
		}
		return msg(v), nil
	}
	sc.aliases[cmd.args[0]] = strings.Join(cmd.args[1:], " ")
	return msg("alias " + cmd.args[0] + " set"), nil
}

func (sc *ShellController) resolvePath(p string) string {
	if _, err := os.Stat(p); err == nil || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(sc.config.GetString(config.ConfigDealsPath), p)
}

func (sc *ShellController) setDeal(name string, d *deal.Deal) {
	sc.curDeal = d
	sc.dealName = name
	sc.solver = nil
}

func (sc *ShellController) load(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: load <file> [-index N] [-name NAME]")
	}
	entries, err := sc.files.Get(sc.resolvePath(cmd.args[0]))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s holds no deals", cmd.args[0])
	}
	var entry dealio.Entry
	if name := cmd.options.String("name"); name != "" {
		var ok bool
		entry, ok = lo.Find(entries, func(e dealio.Entry) bool { return e.Name == name })
		if !ok {
			return nil, fmt.Errorf("no deal named %s", name)
		}
	} else {
		idx, err := cmd.options.IntDefault("index", 1)
		if err != nil {
			return nil, err
		}
		if idx < 1 || idx > len(entries) {
			return nil, fmt.Errorf("index %d out of range; the file has %d deals", idx, len(entries))
		}
		entry = entries[idx-1]
	}
	d, err := entry.Deal()
	if err != nil {
		return nil, err
	}
	sc.setDeal(entry.Name, d)
	log.Debug().Str("file", cmd.args[0]).Str("name", entry.Name).Msg("loaded-deal")
	return msg(sc.describeDeal()), nil
}

func (sc *ShellController) save(cmd *shellcmd) (*Response, error) {
	if sc.curDeal == nil {
		return nil, errNoDeal
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: save <file>")
	}
	f, err := os.Create(cmd.args[0])
	if err != nil {
		return nil, err
	}
	defer f.Close()
	defer sc.files.Forget(cmd.args[0])
	entry := dealio.EntryFromDeal(sc.dealName, sc.curDeal)
	switch strings.ToLower(filepath.Ext(cmd.args[0])) {
	case ".yaml", ".yml":
		err = dealio.WriteYAML(f, []dealio.Entry{entry})
	default:
		_, err = fmt.Fprintln(f, entry.Line())
	}
	if err != nil {
		return nil, err
	}
	return msg("saved to " + cmd.args[0]), nil
}

func (sc *ShellController) newDeal(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: deal random|single|line ...")
	}
	if cmd.args[0] == "line" {
		e, err := dealio.ParseLine(strings.Join(cmd.args[1:], " "))
		if err != nil {
			return nil, err
		}
		d, err := e.Deal()
		if err != nil {
			return nil, err
		}
		sc.setDeal(e.Name, d)
		return msg(sc.describeDeal()), nil
	}

	cards, err := cmd.options.IntDefault("cards", sc.config.GetInt(config.ConfigCardsPerHand))
	if err != nil {
		return nil, err
	}
	trumpStr := cmd.options.String("trump")
	if trumpStr == "" {
		trumpStr = sc.config.GetString(config.ConfigTrump)
	}
	trump, err := deck.ParseTrump(trumpStr)
	if err != nil {
		return nil, err
	}
	lead := deal.North
	if l := cmd.options.String("lead"); l != "" {
		if lead, err = deal.ParseDirection(l); err != nil {
			return nil, err
		}
	}

	var d *deal.Deal
	switch cmd.args[0] {
	case "random":
		gen := sc.gen
		seed, err := cmd.options.Uint64Default("seed", 0)
		if err != nil {
			return nil, err
		}
		if seed != 0 {
			gen = dealgen.NewSeeded(seed)
		}
		d, err = gen.Random(cards, trump, lead)
		if err != nil {
			return nil, err
		}
	case "single":
		d, err = dealgen.SingleSuits(cards, trump, lead)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown deal type %q", cmd.args[0])
	}
	sc.setDeal(cmd.args[0], d)
	return msg(sc.describeDeal()), nil
}

func (sc *ShellController) describeDeal() string {
	var sb strings.Builder
	if sc.dealName != "" {
		fmt.Fprintf(&sb, "Deal: %s\n", sc.dealName)
	}
	sb.WriteString(sc.curDeal.String())
	fmt.Fprintf(&sb, "Line: %s\n", dealio.FormatLine(sc.curDeal))
	return sb.String()
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if sc.curDeal == nil {
		return nil, errNoDeal
	}
	out := sc.describeDeal()
	if sc.solver != nil {
		out += sc.describeSolution()
	}
	return msg(out), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if sc.curDeal == nil {
		return nil, errNoDeal
	}
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: play <card> [<card> ...]")
	}
	// All or nothing: the cards are played on a copy.
	d := sc.curDeal.Duplicate()
	for _, a := range cmd.args {
		c, err := deck.ParseCard(a)
		if err != nil {
			return nil, err
		}
		if err := d.Play(c); err != nil {
			return nil, fmt.Errorf("%v: %w", c, err)
		}
	}
	sc.curDeal = d
	sc.solver = nil
	return msg(sc.describeDeal()), nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		lines := lo.Map(solverSettings, func(k string, _ int) string {
			return fmt.Sprintf("%-22s %v", k, sc.config.Get(k))
		})
		return msg(strings.Join(lines, "\n")), nil
	}
	key := cmd.args[0]
	if !lo.Contains(solverSettings, key) {
		return nil, fmt.Errorf("unknown setting %s; one of %s", key, strings.Join(solverSettings, ", "))
	}
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%v", sc.config.Get(key))), nil
	}
	var val any
	if key == config.ConfigMaxTricks {
		n, err := strconv.Atoi(cmd.args[1])
		if err != nil {
			return nil, err
		}
		val = n
	} else {
		b, err := strconv.ParseBool(cmd.args[1])
		if err != nil {
			return nil, err
		}
		val = b
	}
	old := sc.config.Get(key)
	sc.config.Set(key, val)
	solverCfg, err := search.ConfiguratorFromConfig(sc.config)
	if err != nil {
		sc.config.Set(key, old)
		return nil, err
	}
	if solverCfg.MaxTricks != sc.solverCfg.MaxTricks {
		sc.positions.Reset()
	}
	sc.solverCfg = solverCfg
	sc.solver = nil
	return msg(fmt.Sprintf("set %s to %v", key, val)), nil
}

func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	if sc.curDeal == nil {
		return nil, errNoDeal
	}
	s, err := search.NewSolverWithCache(sc.curDeal, sc.solverCfg, sc.positions)
	if err != nil {
		return nil, err
	}
	s.Search()
	sc.solver = s
	return msg(sc.describeSolution()), nil
}

func (sc *ShellController) describeSolution() string {
	s := sc.solver
	var sb strings.Builder
	best := lo.Map(s.BestMoves(), func(c deck.Card, _ int) string { return c.String() })
	if s.ForcedRoot() {
		fmt.Fprintf(&sb, "Forced: %s (not searched)\n", strings.Join(best, " "))
		return sb.String()
	}
	root := s.Root()
	fmt.Fprintf(&sb, "Best: %s\n", strings.Join(best, " "))
	fmt.Fprintf(&sb, "Tricks: %v %d, %v %d\n",
		deal.WestEast, root.TricksTaken(deal.WestEast),
		deal.NorthSouth, root.TricksTaken(deal.NorthSouth))
	st := s.Stats()
	fmt.Fprintf(&sb, "Positions: %d in %v\n", st.PositionsExamined, st.Elapsed)
	return sb.String()
}

func (sc *ShellController) best(cmd *shellcmd) (*Response, error) {
	if sc.solver == nil {
		return nil, errNotSolved
	}
	leader := sc.curDeal.NextToPlay()
	best := lo.Map(sc.solver.BestMoves(), func(c deck.Card, _ int) string { return c.String() })
	return msg(fmt.Sprintf("%v: %s", leader, strings.Join(best, " "))), nil
}

func (sc *ShellController) path(cmd *shellcmd) (*Response, error) {
	if sc.solver == nil {
		return nil, errNotSolved
	}
	return msg(search.FormatPath(sc.solver.OptimalPath())), nil
}

func (sc *ShellController) stats(cmd *shellcmd) (*Response, error) {
	if sc.solver == nil {
		return nil, errNotSolved
	}
	out, err := yaml.Marshal(sc.solver.Stats())
	if err != nil {
		return nil, err
	}
	return msg(string(out)), nil
}

// score scores a contract. Without a trick count it uses the solved
// result for the declarer named by -by.
func (sc *ShellController) score(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: score <bid> [tricks] [-by SEAT]")
	}
	bid, err := scoring.ParseBid(cmd.args[0])
	if err != nil {
		return nil, err
	}
	var tricks int
	if len(cmd.args) > 1 {
		if tricks, err = strconv.Atoi(cmd.args[1]); err != nil {
			return nil, err
		}
	} else {
		if sc.solver == nil {
			return nil, errNotSolved
		}
		if sc.solver.ForcedRoot() {
			return nil, errors.New("the root move was forced so no tally is known; set terminate-forced-root false")
		}
		by := cmd.options.String("by")
		if by == "" {
			return nil, errors.New("name the declarer with -by")
		}
		dir, err := deal.ParseDirection(by)
		if err != nil {
			return nil, err
		}
		tricks = sc.solver.Root().TricksTaken(dir.Pair())
	}
	r, err := scoring.Score(bid, tricks)
	if err != nil {
		return nil, err
	}
	if r.Defender > 0 {
		return msg(fmt.Sprintf("%v with %d tricks: down %d, defenders score %d",
			bid, tricks, bid.TricksNeeded()-tricks, r.Defender)), nil
	}
	return msg(fmt.Sprintf("%v with %d tricks: declarer scores %d", bid, tricks, r.Declarer)), nil
}
