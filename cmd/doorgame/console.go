package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"prize-door-game/internal/game"
	"prize-door-game/internal/game/door"
	"prize-door-game/internal/service"
)

const consoleHelp = `commands:
  modes
  start <user> [mode] [bonus]
  pick <user> <door>
  stay <user>
  switch <user> [door]
  open <user> <door>
  finish <user>
  abandon <user>
  status <user>
  stats <user>
  quit`

var errQuit = errors.New("quit")

// console drives the play service from line commands.
type console struct {
	play    *service.PlayService
	stats   *service.StatsService
	modes   *game.Registry
	out     io.Writer
	handler handlerFunc
}

func newConsole(play *service.PlayService, stats *service.StatsService, modes *game.Registry, out io.Writer) *console {
	c := &console{play: play, stats: stats, modes: modes, out: out}
	c.handler = chain(c.exec, recoveryMiddleware(), loggingMiddleware())
	return c
}

// Run executes commands from in until EOF, "quit" or ctx is done.
// Command errors are printed and do not stop the loop.
func (c *console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		err := c.handler(ctx, fields)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (c *console) exec(ctx context.Context, f []string) error {
	cmd := strings.ToLower(f[0])
	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Fprintln(c.out, consoleHelp)
		return nil
	case "modes":
		for _, m := range c.modes.List() {
			fmt.Fprintf(c.out, "%-10s %s: %s\n", m.Command, m.Name, m.Description)
		}
		return nil
	}

	if len(f) < 2 {
		return fmt.Errorf("%s: missing user", cmd)
	}
	user := f[1]

	switch cmd {
	case "start":
		var mode string
		bonus := false
		for _, arg := range f[2:] {
			if arg == "bonus" {
				bonus = true
			} else {
				mode = arg
			}
		}
		r, err := c.play.Start(ctx, user, mode, bonus)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s round started: %s\n", r.Mode, renderBoard(r.State))

	case "pick":
		n, err := doorArg(f, 2)
		if err != nil {
			return err
		}
		st, err := c.play.Pick(ctx, user, n)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "host opened %v: %s\n", st.Revealed, renderBoard(st))

	case "stay", "switch":
		d := door.Stay()
		if cmd == "switch" {
			d = door.SwitchToOther()
			if len(f) > 2 {
				n, err := doorArg(f, 2)
				if err != nil {
					return err
				}
				d = door.SwitchTo(n)
			}
		}
		st, err := c.play.Decide(ctx, user, d)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "holding door %d: %s\n", st.ChosenDoor, renderBoard(st))

	case "open":
		n, err := doorArg(f, 2)
		if err != nil {
			return err
		}
		out, err := c.play.Open(ctx, user, n)
		if err != nil {
			return err
		}
		c.printOutcome(out)

	case "finish":
		out, err := c.play.Finish(ctx, user)
		if err != nil {
			return err
		}
		c.printOutcome(out)

	case "abandon":
		if err := c.play.Abandon(ctx, user); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "round abandoned")

	case "status":
		st, err := c.play.Status(ctx, user)
		if err != nil {
			return err
		}
		p := st.Progression
		fmt.Fprintf(c.out, "games until bonus: %d, bonus plays: %d, played today: %t\n",
			p.GamesUntilBonus, p.BonusPlaysAvailable, p.HasPlayedToday)
		if st.Round != nil {
			fmt.Fprintf(c.out, "active %s round (%s): %s\n", st.Round.Mode, st.Round.State.Stage, renderBoard(st.Round.State))
		}

	case "stats":
		report, err := c.stats.StrategyStats(ctx, user)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "stay: %d/%d (%.0f%%), switch: %d/%d (%.0f%%)\n",
			report.Stay.Won, report.Stay.Played, report.Stay.WinRate()*100,
			report.Switch.Won, report.Switch.Played, report.Switch.WinRate()*100)

	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

func (c *console) printOutcome(out *service.Outcome) {
	fmt.Fprintf(c.out, "%s: %s\n", strings.ToUpper(out.State.Result.String()), renderBoard(out.State))
	if out.BonusEarned {
		fmt.Fprintln(c.out, "bonus play earned")
	}
}

func doorArg(f []string, i int) (int, error) {
	if len(f) <= i {
		return 0, fmt.Errorf("%s: missing door number", f[0])
	}
	n, err := strconv.Atoi(f[i])
	if err != nil {
		return 0, fmt.Errorf("%s: invalid door number %q", f[0], f[i])
	}
	return n, nil
}

// renderBoard draws closed doors as [n], the held door as (n), open empty
// doors as -n- and the prize door as *n*.
func renderBoard(s door.State) string {
	prize, resolved := s.PrizeDoor()
	parts := make([]string, len(s.Doors))
	for i, d := range s.Doors {
		switch {
		case resolved && d.Number == prize:
			parts[i] = fmt.Sprintf("*%d*", d.Number)
		case d.Open:
			parts[i] = fmt.Sprintf("-%d-", d.Number)
		case d.Number == s.ChosenDoor:
			parts[i] = fmt.Sprintf("(%d)", d.Number)
		default:
			parts[i] = fmt.Sprintf("[%d]", d.Number)
		}
	}
	return strings.Join(parts, " ")
}
