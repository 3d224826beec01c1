// Package shell is an interactive front end to the solver.
package shell

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/ddsolve/cache"
	"github.com/domino14/ddsolve/config"
	"github.com/domino14/ddsolve/deal"
	"github.com/domino14/ddsolve/dealgen"
	"github.com/domino14/ddsolve/dealio"
	"github.com/domino14/ddsolve/search"
)

//go:embed helptext
var helptext embed.FS

var (
	errNoData            = errors.New("no data in command")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errNoDeal            = errors.New("no deal loaded; use load or deal first")
	errNotSolved         = errors.New("the current deal has not been solved; use solve")
)

type ShellController struct {
	l   *readline.Instance
	out io.Writer

	config *config.Config

	solverCfg *search.Configurator
	positions *search.PositionCache
	gen       *dealgen.Generator
	files     *cache.FileCache[[]dealio.Entry]

	curDeal  *deal.Deal
	dealName string
	solver   *search.Solver
	aliases  map[string]string
}

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

// Response is the text a command shows the user.
type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Uint64Default(key string, defaultU uint64) (uint64, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultU, nil
	}
	return strconv.ParseUint(v[0], 10, 64)
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// NewShellController builds an interactive shell reading from the
// terminal.
func NewShellController(cfg *config.Config) (*ShellController, error) {
	sc, err := newController(cfg, os.Stdout)
	if err != nil {
		return nil, err
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mddsolve>\033[0m ",
		HistoryFile:     "/tmp/ddsolve_readline.tmp",
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	sc.l = l
	sc.out = l.Stdout()
	return sc, nil
}

func newController(cfg *config.Config, out io.Writer) (*ShellController, error) {
	solverCfg, err := search.ConfiguratorFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &ShellController{
		out:       out,
		config:    cfg,
		solverCfg: solverCfg,
		positions: search.NewPositionCache(cfg.GetFloat64(config.ConfigCacheMemoryFraction)),
		gen:       dealgen.New(),
		files:     cache.NewFileCache(dealio.Load),
		aliases:   map[string]string{},
	}, nil
}

func (sc *ShellController) showMessage(msg string) {
	io.WriteString(sc.out, msg)
	if !strings.HasSuffix(msg, "\n") {
		io.WriteString(sc.out, "\n")
	}
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// extractFields splits a line into a command, its arguments and its
// options. Options look like "-name value".
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for idx := 1; idx < len(fields); idx++ {
		if strings.HasPrefix(fields[idx], "-") && len(fields[idx]) > 1 {
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			key := fields[idx][1:]
			options[key] = append(options[key], fields[idx+1])
			idx++
			continue
		}
		args = append(args, fields[idx])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) expandAlias(line string) string {
	fields := strings.SplitN(line, " ", 2)
	if v, ok := sc.aliases[fields[0]]; ok {
		if len(fields) == 2 {
			return v + " " + fields[1]
		}
		return v
	}
	return line
}

func (sc *ShellController) standardModeSwitch(line string) (*Response, error) {
	cmd, err := extractFields(sc.expandAlias(line))
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit":
		return nil, nil
	case "help":
		return sc.help(cmd)
	case "alias":
		return sc.alias(cmd)
	case "load":
		return sc.load(cmd)
	case "save":
		return sc.save(cmd)
	case "deal":
		return sc.newDeal(cmd)
	case "show":
		return sc.show(cmd)
	case "play":
		return sc.play(cmd)
	case "set":
		return sc.set(cmd)
	case "solve":
		return sc.solve(cmd)
	case "best":
		return sc.best(cmd)
	case "path":
		return sc.path(cmd)
	case "stats":
		return sc.stats(cmd)
	case "score":
		return sc.score(cmd)
	case "script":
		return sc.script(cmd)
	}
	log.Debug().Msgf("you said: %v", strconv.Quote(line))
	return nil, fmt.Errorf("unknown command %q; try help", cmd.cmd)
}

// Execute runs a single command line.
func (sc *ShellController) Execute(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	resp, err := sc.standardModeSwitch(line)
	if err != nil {
		sc.showError(err)
		return
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()
	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "exit" {
			sig <- syscall.SIGINT
			break
		}
		sc.Execute(line)
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup releases what the shell holds.
func (sc *ShellController) Cleanup() {
	sc.positions.Reset()
	log.Debug().Msg("shell-cleanup")
}
