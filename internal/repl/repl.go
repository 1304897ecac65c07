package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/benz9527/xtree/internal/config"
	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/xlog"
)

const (
	line          = "-----------------------------------------------------"
	treePrompt    = "Select tree type (1: Red-Black Tree, 2: AVL Tree): "
	keyPrompt     = "Select key type (int|str): "
	commandPrompt = ">>> "
)

type options struct {
	treeKind    string
	keyType     string
	logger      xlog.XLogger
	probe       *observability.TreeProbe
	treeOptions []tree.TreeOption
}

type Option func(*options)

// WithTreeKind skips the tree type prompt if kind is valid.
func WithTreeKind(kind string) Option {
	return func(opts *options) {
		opts.treeKind = kind
	}
}

// WithKeyType skips the key type prompt if typ is valid.
func WithKeyType(typ string) Option {
	return func(opts *options) {
		opts.keyType = typ
	}
}

func WithLogger(logger xlog.XLogger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithProbe publishes a snapshot of the tree after each command.
func WithProbe(probe *observability.TreeProbe) Option {
	return func(opts *options) {
		opts.probe = probe
	}
}

func WithTreeOptions(treeOpts ...tree.TreeOption) Option {
	return func(opts *options) {
		opts.treeOptions = append(opts.treeOptions, treeOpts...)
	}
}

func ParseIntKey(token string) (int64, error) {
	key, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, infra.WrapErrorStack(err, "parse int key")
	}
	return key, nil
}

func ParseStringKey(token string) (string, error) {
	return token, nil
}

// prompter reads whole lines whatever their length, a line is never
// split or dropped.
type prompter struct {
	reader *bufio.Reader
	out    io.Writer
	err    error
}

// ask prints the prompt and returns the next line without its line
// break, false once the input is drained.
func (p *prompter) ask(prompt string) (string, bool) {
	_, _ = fmt.Fprint(p.out, prompt)
	if p.err != nil {
		return "", false
	}
	text, err := p.reader.ReadString('\n')
	if err != nil {
		p.err = err
		if len(text) == 0 {
			return "", false
		}
	}
	return strings.TrimRight(text, "\r\n"), true
}

// readErr is nil when the input simply ended.
func (p *prompter) readErr() error {
	if p.err == nil || errors.Is(p.err, io.EOF) {
		return nil
	}
	return infra.WrapErrorStack(p.err, "read command line")
}

func welcome(out io.Writer) {
	_, _ = fmt.Fprintln(out, line)
	_, _ = fmt.Fprintln(out, "| xtree: Red-Black Tree & AVL Tree")
	_, _ = fmt.Fprintln(out, "| type help to list the commands")
	_, _ = fmt.Fprintln(out, line)
}

// Run drives the interactive demo until EOF, exit or ctx done.
func Run(ctx context.Context, in io.Reader, out io.Writer, opts ...Option) error {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.logger == nil {
		o.logger = xlog.NewXLogger(xlog.WithXLoggerConsoleWriter(io.Discard))
	}

	p := &prompter{reader: bufio.NewReader(in), out: out}

	welcome(out)
	kind, ok := config.TreeKindOf(o.treeKind)
	for !ok {
		answer, more := p.ask(treePrompt)
		if !more {
			return p.readErr()
		}
		kind, ok = config.TreeKindOf(answer)
	}
	keyType, ok := config.KeyTypeOf(o.keyType)
	for !ok {
		answer, more := p.ask(keyPrompt)
		if !more {
			return p.readErr()
		}
		keyType, ok = config.KeyTypeOf(answer)
	}

	o.logger.Debug("session started",
		zap.String("tree", kind.String()),
		zap.String("key", string(keyType)),
	)
	defer o.logger.Debug("session stopped", zap.String("tree", kind.String()))

	switch keyType {
	case config.StringKey:
		s := NewSession[string](tree.New[string](kind, o.treeOptions...), ParseStringKey, out, o.logger, o.probe)
		defer s.Tree().Release()
		return loop(ctx, p, s)
	default:
	}
	s := NewSession[int64](tree.New[int64](kind, o.treeOptions...), ParseIntKey, out, o.logger, o.probe)
	defer s.Tree().Release()
	return loop(ctx, p, s)
}

func loop[K infra.OrderedKey](ctx context.Context, p *prompter, s *Session[K]) error {
	for ctx.Err() == nil {
		text, more := p.ask(commandPrompt)
		if !more {
			_, _ = fmt.Fprintln(p.out)
			return p.readErr()
		}
		if !s.Exec(text) {
			return nil
		}
	}
	return nil
}
