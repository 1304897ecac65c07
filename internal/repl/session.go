package repl

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/xlog"
)

const unbounded = -1

type command[K infra.OrderedKey] struct {
	usage   string
	minArgs int
	maxArgs int
	run     func(s *Session[K], args []string) bool
}

// Session executes the command lines against one tree. The tree is
// only touched by the goroutine calling Exec.
type Session[K infra.OrderedKey] struct {
	tree     tree.Tree[K]
	parse    func(token string) (K, error)
	out      io.Writer
	logger   xlog.XLogger
	probe    *observability.TreeProbe
	commands map[string]*command[K]
}

func NewSession[K infra.OrderedKey](
	t tree.Tree[K],
	parse func(token string) (K, error),
	out io.Writer,
	logger xlog.XLogger,
	probe *observability.TreeProbe,
) *Session[K] {
	if logger == nil {
		logger = xlog.NewXLogger(xlog.WithXLoggerConsoleWriter(io.Discard))
	}
	s := &Session[K]{
		tree:   t,
		parse:  parse,
		out:    out,
		logger: logger,
		probe:  probe,
	}
	insert := &command[K]{usage: "insert k1 k2 ...", minArgs: 1, maxArgs: unbounded, run: (*Session[K]).insert}
	del := &command[K]{usage: "delete k1 k2 ...", minArgs: 1, maxArgs: unbounded, run: (*Session[K]).delete}
	search := &command[K]{usage: "search k1 k2 ...", minArgs: 1, maxArgs: unbounded, run: (*Session[K]).search}
	leaves := &command[K]{usage: "count-leaves", run: (*Session[K]).countLeaves}
	height := &command[K]{usage: "height", run: (*Session[K]).height}
	isEmpty := &command[K]{usage: "is-empty", run: (*Session[K]).isEmpty}
	exit := &command[K]{usage: "exit", run: func(*Session[K], []string) bool { return false }}
	s.commands = map[string]*command[K]{
		"insert":       insert,
		"delete":       del,
		"search":       search,
		"count-leaves": leaves,
		"count_leaves": leaves,
		"height":       height,
		"is-empty":     isEmpty,
		"is_empty":     isEmpty,
		"print":        {usage: "print", run: (*Session[K]).print},
		"traverse":     {usage: "traverse asc|desc", minArgs: 1, maxArgs: 1, run: (*Session[K]).traverse},
		"validate":     {usage: "validate", run: (*Session[K]).validate},
		"stats":        {usage: "stats", run: (*Session[K]).stats},
		"help":         {usage: "help", run: (*Session[K]).help},
		"exit":         exit,
		"quit":         exit,
	}
	s.publish()
	return s
}

func (s *Session[K]) Tree() tree.Tree[K] {
	return s.tree
}

// Exec runs one command line and reports whether the loop goes on.
// Blank lines are ignored.
func (s *Session[K]) Exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) <= 0 {
		return true
	}
	cmd, ok := s.commands[fields[0]]
	args := fields[1:]
	if !ok || len(args) < cmd.minArgs || (cmd.maxArgs != unbounded && len(args) > cmd.maxArgs) {
		s.println("Invalid command: " + strings.TrimSpace(line))
		s.logger.Debug("invalid command", zap.String("line", line))
		return true
	}
	next := cmd.run(s, args)
	s.publish()
	return next
}

func (s *Session[K]) println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Session[K]) publish() {
	if s.probe == nil {
		return
	}
	st := s.tree.Stats()
	s.probe.Publish(observability.TreeSnapshot{
		Kind:      s.tree.Kind().String(),
		Len:       st.Len,
		Height:    s.tree.Height(),
		Rotations: st.Rotations,
		Recolors:  st.Recolors,
	})
}

// eachKey applies fn to every parsed token, the invalid ones are
// reported and skipped.
func (s *Session[K]) eachKey(tokens []string, fn func(key K)) {
	for _, token := range tokens {
		key, err := s.parse(token)
		if err != nil {
			s.println("Invalid key: " + token)
			s.logger.Debug("invalid key", zap.String("token", token), zap.Error(err))
			continue
		}
		fn(key)
	}
}

func (s *Session[K]) insert(args []string) bool {
	s.eachKey(args, s.tree.Insert)
	return true
}

func (s *Session[K]) delete(args []string) bool {
	s.eachKey(args, s.tree.Delete)
	return true
}

func (s *Session[K]) search(args []string) bool {
	s.eachKey(args, func(key K) {
		_, _ = fmt.Fprintf(s.out, "%v: %t\n", key, s.tree.Search(key))
	})
	return true
}

func (s *Session[K]) countLeaves([]string) bool {
	s.println(s.tree.CountLeaves())
	return true
}

func (s *Session[K]) height([]string) bool {
	s.println(s.tree.Height())
	return true
}

func (s *Session[K]) isEmpty([]string) bool {
	s.println(s.tree.IsEmpty())
	return true
}

func colorize(c tree.Color, label string) string {
	if c == tree.Red {
		return color.New(color.FgRed, color.Bold).Sprint(label)
	}
	return color.New(color.FgHiBlack, color.Bold).Sprint(label)
}

func (s *Session[K]) print([]string) bool {
	s.tree.Print(s.out, tree.WithColorizer(colorize))
	return true
}

func (s *Session[K]) traverse(args []string) bool {
	var order tree.TraverseOrder
	switch args[0] {
	case "asc":
		order = tree.Ascending
	case "desc":
		order = tree.Descending
	default:
		s.println("Invalid traverse option.")
		return true
	}
	keys := s.tree.Keys(order)
	if len(keys) <= 0 {
		return true
	}
	s.println(strings.Join(lo.Map(keys, func(key K, _ int) string {
		return fmt.Sprint(key)
	}), " "))
	return true
}

func (s *Session[K]) validate([]string) bool {
	if err := tree.Validate(s.tree); err != nil {
		s.println(err.Error())
		s.logger.ErrorStack(err, "tree violations")
		return true
	}
	s.println("ok")
	return true
}

func (s *Session[K]) stats([]string) bool {
	st := s.tree.Stats()
	_, _ = fmt.Fprintf(s.out, "len: %d, height: %d, rotations: %d, recolors: %d\n",
		st.Len, s.tree.Height(), st.Rotations, st.Recolors)
	return true
}

func (s *Session[K]) help([]string) bool {
	usages := lo.Uniq(lo.MapToSlice(s.commands, func(_ string, cmd *command[K]) string {
		return cmd.usage
	}))
	sort.Strings(usages)
	for _, usage := range usages {
		s.println("  " + usage)
	}
	return true
}
