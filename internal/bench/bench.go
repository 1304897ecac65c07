package bench

import (
	"context"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/hrtime"
	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/xlog"
)

// Case inserts the keys 0..Size-1 in ascending order, the worst case
// input of an unbalanced BST, then searches the first tenth of them.
type Case struct {
	Kind tree.Kind
	Size int
}

type Result struct {
	Case
	Insert    time.Duration
	Search    time.Duration
	Height    uint64
	Rotations uint64
	Recolors  uint64
}

func (r Result) insertNsPerOp() int64 {
	if r.Size <= 0 {
		return 0
	}
	return r.Insert.Nanoseconds() / int64(r.Size)
}

func (r Result) searchNsPerOp() int64 {
	if n := r.Size / 10; n > 0 {
		return r.Search.Nanoseconds() / int64(n)
	}
	return 0
}

type options struct {
	kinds   []tree.Kind
	sizes   []int
	workers int
	logger  xlog.XLogger
}

type Option func(*options)

func WithKinds(kinds ...tree.Kind) Option {
	return func(opts *options) {
		opts.kinds = kinds
	}
}

func WithSizes(sizes ...int) Option {
	return func(opts *options) {
		opts.sizes = sizes
	}
}

// WithWorkers bounds the cases running at the same time. Parallel
// cases share the CPUs and skew the timings.
func WithWorkers(workers int) Option {
	return func(opts *options) {
		opts.workers = workers
	}
}

func WithLogger(logger xlog.XLogger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

func runCase(c Case) Result {
	t := tree.New[int64](c.Kind)
	defer t.Release()

	start := hrtime.Now()
	for i := 0; i < c.Size; i++ {
		t.Insert(int64(i))
	}
	insert := start.Elapsed()

	start = hrtime.Now()
	for i := 0; i < c.Size/10; i++ {
		if !t.Search(int64(i)) {
			panic("[xtree] bench key " + strconv.Itoa(i) + " lost")
		}
	}
	search := start.Elapsed()

	st := t.Stats()
	return Result{
		Case:      c,
		Insert:    insert,
		Search:    search,
		Height:    t.Height(),
		Rotations: st.Rotations,
		Recolors:  st.Recolors,
	}
}

// Run executes every kind and size pair on an ants pool. The results
// keep the kind-major order of the cases. Cases not started before ctx
// is done are skipped and ctx.Err() is returned with the finished ones.
func Run(ctx context.Context, opts ...Option) ([]Result, error) {
	o := &options{
		kinds:   []tree.Kind{tree.RedBlack, tree.AVL},
		workers: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.logger == nil {
		o.logger = xlog.NewXLogger(xlog.WithXLoggerConsoleWriter(io.Discard))
	}
	if o.workers <= 0 {
		return nil, infra.NewErrorStack("[xtree] bench workers must be positive")
	}

	cases := make([]Case, 0, len(o.kinds)*len(o.sizes))
	for _, kind := range o.kinds {
		for _, size := range o.sizes {
			cases = append(cases, Case{Kind: kind, Size: size})
		}
	}

	pool, err := ants.NewPool(o.workers,
		ants.WithPreAlloc(true),
		ants.WithLogger(xlog.NewAntsXLogger(o.logger)),
	)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "[xtree] bench pool")
	}
	defer pool.Release()

	var (
		wg      sync.WaitGroup
		merr    error
		results = make([]*Result, len(cases))
	)
	for i, c := range cases {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			o.logger.Debug("bench case started", zap.String("tree", c.Kind.String()), zap.Int("size", c.Size))
			res := runCase(c)
			results[i] = &res
			o.logger.Info("bench case done",
				zap.String("tree", c.Kind.String()),
				zap.Int("size", c.Size),
				zap.Duration("insert", res.Insert),
				zap.Duration("search", res.Search),
				zap.Uint64("height", res.Height),
			)
		}); err != nil {
			wg.Done()
			merr = multierr.Append(merr, infra.WrapErrorStack(err, "[xtree] bench submit"))
		}
	}
	wg.Wait()

	finished := make([]Result, 0, len(results))
	for _, res := range results {
		if res != nil {
			finished = append(finished, *res)
		}
	}
	if ctx.Err() != nil {
		merr = multierr.Append(merr, ctx.Err())
	}
	return finished, merr
}

// Render writes the results as a table.
func Render(w io.Writer, results []Result) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Header = text.FormatDefault
	tbl.AppendHeader(table.Row{"tree", "size", "insert", "insert ns/op", "search", "search ns/op", "height", "rotations", "recolors"})
	for _, res := range results {
		tbl.AppendRow(table.Row{
			res.Kind.String(),
			humanize.Comma(int64(res.Size)),
			res.Insert.Round(time.Microsecond).String(),
			humanize.Comma(res.insertNsPerOp()),
			res.Search.Round(time.Microsecond).String(),
			humanize.Comma(res.searchNsPerOp()),
			res.Height,
			humanize.Comma(int64(res.Rotations)),
			humanize.Comma(int64(res.Recolors)),
		})
	}
	tbl.AppendFooter(table.Row{"cases", len(results)})
	tbl.Render()
}
