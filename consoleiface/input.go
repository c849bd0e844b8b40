package consoleiface

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"

	"github.com/riking/wiimote/controller"
	"github.com/riking/wiimote/wmpc"
)

func filterCtrlZ(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

// StartConsole reads commands from the terminal until EOF or ^C on an empty
// line, which also stops Run.
func (m *Manager) StartConsole() error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[1m[wiimote]\033[m> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		FuncFilterInputRune: filterCtrlZ,
	})
	if err != nil {
		return errors.Wrap(err, "initialize console")
	}
	m.out = l.Stdout()
	wmpc.SetLogger(wmpc.NewLogger(l.Stderr()))
	go m.readStdin(l)
	return nil
}

func (m *Manager) readStdin(l *readline.Instance) {
	defer l.Close()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			break
		}

		m.handleCommand(strings.Fields(line))
	}
	close(m.consoleExit)
}

func findCommand(name string) commandMeta {
	for _, v := range commands {
		for _, cName := range v.Aliases {
			if name == cName {
				return v
			}
		}
	}
	return commandMeta{}
}

func (m *Manager) handleCommand(argv []string) {
	if len(argv) == 0 {
		return
	}
	meta := findCommand(argv[0])
	if meta.F == nil {
		fmt.Fprintln(m.out, "unknown command", argv[0])
		return
	}
	meta.F(m, argv[1:])
}

// selectRemote picks a remote by its number in `list` or its serial.  mu
// must be held.
func selectRemote(m *Manager, argv []string) (r *remote, newArgv []string, err error) {
	if len(argv) == 0 {
		return nil, argv, errors.Errorf("No remote selected")
	}
	str := argv[0]
	if num, err := strconv.Atoi(str); err == nil {
		for _, r := range m.remotes {
			if r.slot+1 == num {
				return r, argv[1:], nil
			}
		}
		return nil, argv, errors.Errorf("Remote number %s not connected (have %d)", str, len(m.remotes))
	}
	for _, r := range m.remotes {
		if strings.EqualFold(r.dev.Serial(), str) {
			return r, argv[1:], nil
		}
	}
	return nil, argv, errors.Errorf("Not a valid remote selector: '%s'", str)
}

const colorBad = "\033[1m\033[41m\033[37m"
const colorMid = "\033[1m\033[33m"
const colorGood = "\033[1m\033[32m"
const colorReset = "\033[m"

var batteryStatus = []string{
	"🔋 " + colorBad + "▁ " + colorReset,
	"🔋 " + colorBad + "▂ " + colorReset,
	"🔋 " + colorMid + "▃ " + colorReset,
	"🔋 " + colorMid + "▄ " + colorReset,
	"🔋 " + colorMid + "▅ " + colorReset,
	"🔋 " + colorGood + "▆ " + colorReset,
	"🔋 " + colorGood + "▇ " + colorReset,
	"🔋 " + colorGood + "█ " + colorReset,
}

func renderBattery(level float64) string {
	i := int(level * float64(len(batteryStatus)))
	if i >= len(batteryStatus) {
		i = len(batteryStatus) - 1
	}
	if i < 0 {
		i = 0
	}
	return batteryStatus[i]
}

func printConnectedRemotes(m *Manager) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fmt.Fprintln(m.out, "Connected Wii Remotes:")
	for _, r := range m.remotes {
		s := controller.Snapshot(r.dev)
		var attached []string
		if s["Attached MotionPlus"] != 0 {
			attached = append(attached, "MotionPlus")
		}
		if s["Attached Extension"] != 0 {
			attached = append(attached, "extension")
		}
		fmt.Fprintf(m.out, "  %d: %s %s %s\n", r.slot+1, r.dev.Serial(), renderBattery(s["Battery"]), strings.Join(attached, "+"))
	}
	for _, serial := range m.pool.Serials() {
		fmt.Fprintf(m.out, "  (idle) %s\n", serial)
	}
	fmt.Fprintln(m.out)
}

type commandMeta struct {
	F       func(*Manager, []string)
	Aliases []string
	Help    string
}

func (m *commandMeta) Name() string {
	return m.Aliases[0]
}

var commands []commandMeta

func addCommand(F func(*Manager, []string), help string, names ...string) struct{} {
	commands = append(commands, commandMeta{
		F:       F,
		Help:    help,
		Aliases: names,
	})
	return struct{}{}
}

func cmdHelp(m *Manager, argv []string) {
	fmt.Fprintln(m.out, "Commands:")
	for _, v := range commands {
		fmt.Fprintf(m.out, "  %s - %s\n", v.Name(), v.Help)
	}
}

var _ = addCommand(cmdHelp, "Display this help text.", "help", "?")
var _ = addCommand(cmdList, "Show the Wii Remotes being driven.", "list", "ls")
var _ = addCommand(cmdRecheck, "Recheck for Wii Remotes connected by the system.", "rescan", "recheck")
var _ = addCommand(cmdState, "Print every input of a remote: state 1", "state")
var _ = addCommand(cmdRumble, "Set the rumble level of a remote: rumble 1 0.5", "rumble")
var _ = addCommand(cmdAnalog, "Print analog changes of a remote: analog 1 on", "analog")
var _ = addCommand(cmdDisconnect, "Stop driving the specified remote.", "disconnect")
var _ = addCommand(cmdStats, "Show protocol error counters of a remote.", "stats")

func cmdList(m *Manager, argv []string) {
	printConnectedRemotes(m)
}

func cmdRecheck(m *Manager, argv []string) {
	m.mu.Lock()
	m.released = make(map[string]bool)
	m.mu.Unlock()
	m.SearchDevices()
}

func cmdState(m *Manager, argv []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, _, err := selectRemote(m, argv)
	if err != nil {
		fmt.Fprintln(m.out, err)
		return
	}
	s := controller.Snapshot(r.dev)
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(m.out, "  %-28s %.3f\n", k, s[k])
	}
}

func cmdRumble(m *Manager, argv []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, argv, err := selectRemote(m, argv)
	if err != nil {
		fmt.Fprintln(m.out, err)
		return
	}
	if len(argv) == 0 {
		fmt.Fprintln(m.out, "must specify a level: rumble 1 0.5")
		return
	}
	level, err := strconv.ParseFloat(argv[0], 64)
	if err != nil || level < 0 || level > 1 {
		fmt.Fprintln(m.out, "level must be between 0 and 1:", argv[0])
		return
	}
	controller.FindOutput(r.dev, "Motor").SetState(level)
}

func cmdAnalog(m *Manager, argv []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, argv, err := selectRemote(m, argv)
	if err != nil {
		fmt.Fprintln(m.out, err)
		return
	}
	r.console.Analog = len(argv) == 0 || argv[0] != "off"
}

func cmdDisconnect(m *Manager, argv []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, _, err := selectRemote(m, argv)
	if err != nil {
		fmt.Fprintln(m.out, err)
		return
	}
	for i, v := range m.remotes {
		if v == r {
			m.remotes = append(m.remotes[:i], m.remotes[i+1:]...)
			break
		}
	}
	m.released[r.dev.Serial()] = true
	r.close(m.log)
	fmt.Fprintf(m.out, "Wii Remote %s released\n", r.dev.Serial())
}

func cmdStats(m *Manager, argv []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, _, err := selectRemote(m, argv)
	if err != nil {
		fmt.Fprintln(m.out, err)
		return
	}
	st := r.dev.Stats()
	fmt.Fprintf(m.out, "dropped %d, unhandled %d, expired %d, bad checksums %d, nacks %d\n",
		st.Dropped, st.Unhandled, st.Expired, st.ChecksumMismatches, st.Nacks)
}
