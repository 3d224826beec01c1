package shell

import (
	"errors"
	"net/http"
	"time"

	"github.com/cjoudrey/gluahttp"
	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

// scriptCommands are the commands exposed to Lua scripts.
var scriptCommands = []string{
	"load", "save", "deal", "show", "play", "set", "solve", "best", "path",
	"stats", "score", "alias",
}

func commandFunction(sc *ShellController, name string) lua.LGFunction {
	return func(L *lua.LState) int {
		line := name
		if rest := L.OptString(1, ""); rest != "" {
			line += " " + rest
		}
		r, err := sc.standardModeSwitch(line)
		if err != nil {
			log.Err(err).Str("command", name).Msg("error-executing-script-command")
			L.Push(lua.LNil)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		if r == nil {
			L.Push(lua.LString(""))
		} else {
			L.Push(lua.LString(r.message))
		}
		return 1
	}
}

// newLuaState exposes the shell commands as the ddsolve table. Scripts
// may also require "json" and "http", for example to fetch deal lines.
func (sc *ShellController) newLuaState() *lua.LState {
	L := lua.NewState()
	luajson.Preload(L)
	L.PreloadModule("http", gluahttp.NewHttpModule(&http.Client{Timeout: 30 * time.Second}).Loader)
	mod := L.NewTable()
	for _, name := range scriptCommands {
		L.SetField(mod, name, L.NewFunction(commandFunction(sc, name)))
	}
	L.SetGlobal("ddsolve", mod)
	return L
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need arguments for script")
	}
	L := sc.newLuaState()
	defer L.Close()
	if err := L.DoFile(sc.resolvePath(cmd.args[0])); err != nil {
		return nil, err
	}
	return msg("ran " + cmd.args[0]), nil
}
