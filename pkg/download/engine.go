package download

import (
	"context"
	stderrors "errors"
	"os"
	"sync"

	"github.com/glorpus-work/fetchd/internal/logger"
	"github.com/glorpus-work/fetchd/pkg/auth"
	"github.com/glorpus-work/fetchd/pkg/errors"
	"github.com/glorpus-work/fetchd/pkg/fsutil"
)

// Engine runs downloads and cancels them by id. Every Engine owns its registry,
// so independent engines never see each other's downloads.
type Engine struct {
	opts     Options
	registry *Registry
	wg       sync.WaitGroup
}

// NewEngine creates an engine; zero-valued options take their defaults.
func NewEngine(opts Options) *Engine {
	opts.applyDefaults()
	return &Engine{
		opts:     opts,
		registry: NewRegistry(),
	}
}

// Start runs the download on its own goroutine. The returned channel yields the
// terminal Result once and is then closed.
func (e *Engine) Start(ctx context.Context, req Request, obs Observer) <-chan Result {
	out := make(chan Result, 1)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(out)
		out <- e.Download(ctx, req, obs)
	}()
	return out
}

// Wait blocks until every download started with Start has returned.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Cancel signals the download registered under id. It returns false when no such
// download is in flight, including when it already finished.
func (e *Engine) Cancel(id string) bool {
	ok := e.registry.Cancel(id)
	logger.Debug("cancel requested", logger.Fields{"id": id, "found": ok})
	return ok
}

// Active returns the ids of the registered downloads.
func (e *Engine) Active() []string {
	return e.registry.IDs()
}

// Download runs req to completion on the calling goroutine and returns its terminal
// Result. obs may be nil. The registry entry for req.ID exists from the start of the
// call until just before the Result is delivered.
func (e *Engine) Download(ctx context.Context, req Request, obs Observer) Result {
	if obs == nil {
		obs = Hooks{}
	}
	started := e.opts.Clock()
	run := &run{engine: e, req: req, obs: obs}

	obs.OnState(req.ID, StatePending)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	token, replaced := e.registry.Register(req.ID, cancel)
	if replaced {
		logger.Warn("download id reused while still active, replacing its cancellation handle", logger.Fields{"id": req.ID})
	}
	if e.opts.Metrics != nil {
		e.opts.Metrics.DownloadStarted()
	}

	err := run.execute(ctx)
	// a cancellation surfacing as a transport error still ends as cancelled
	if err != nil && cancelledByCaller(ctx) && errors.KindOf(err) != errors.KindCancelled {
		err = interrupted(ctx, "")
	}

	e.registry.release(req.ID, token)

	res := run.result(err)
	if e.opts.Metrics != nil {
		e.opts.Metrics.DownloadFinished(res.State.String(), res.Downloaded, e.opts.Clock().Sub(started))
	}
	logResult(res)
	obs.OnState(req.ID, res.State)
	obs.OnResult(res)
	return res
}

// run holds the per-download values shared by the steps of Download.
type run struct {
	engine *Engine
	req    Request
	obs    Observer

	path  string
	state transferState
}

func (r *run) execute(ctx context.Context) error {
	opts := r.engine.opts
	r.obs.OnState(r.req.ID, StateProbing)

	path, err := fsutil.ResolveDestination(r.req.Destination, opts.DownloadsDir)
	if err != nil {
		return err
	}
	r.path = path

	u, header, err := auth.Build(r.req.URL, r.req.AuthToken, opts.UserAgent)
	if err != nil {
		return err
	}
	logger.Info("download started", logger.Fields{"id": r.req.ID, "url": u.Host + u.Path, "path": path})

	pr, err := probe(ctx, opts.Client, u, header)
	if err != nil {
		return err
	}
	defer func() { _ = pr.resp.Body.Close() }()
	r.state.total = pr.total
	logger.Debug("size probed", logger.Fields{"id": r.req.ID, "total": pr.total})

	f, err := fsutil.CreateFilePerm(path, fsutil.FileModeDefault)
	if err != nil {
		return errors.NewDownloadError(errors.KindIO, "create", err)
	}

	r.obs.OnState(r.req.ID, StateTransferring)
	tel := newTelemetry(r.req.ID, r.obs, opts.Clock, opts.ProgressInterval)
	err = transfer(ctx, pr.resp.Body, f, opts.ChunkSize, newLimiter(opts.RateLimit, opts.ChunkSize), &r.state, tel)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.NewDownloadError(errors.KindIO, "close", cerr)
	}
	return err
}

func (r *run) result(err error) Result {
	res := Result{
		ID:         r.req.ID,
		Path:       r.path,
		Downloaded: r.state.downloaded,
		Total:      r.state.total,
		Err:        err,
	}
	switch {
	case err == nil:
		res.State = StateCompleted
	case stderrors.Is(err, errors.ErrCancelled):
		res.State = StateCancelled
	default:
		res.State = StateFailed
	}
	return res
}

func logResult(res Result) {
	fields := logger.Fields{"id": res.ID, "bytes": res.Downloaded, "total": res.Total}
	switch res.State {
	case StateCompleted:
		logger.Success("download completed", fields)
	case StateCancelled:
		logger.Info("download cancelled", fields)
	default:
		fields["error"] = res.Err.Error()
		fields["kind"] = errors.KindOf(res.Err).String()
		if _, statErr := os.Stat(res.Path); res.Path != "" && statErr == nil {
			fields["partial_file"] = res.Path
		}
		logger.Error("download failed", fields)
	}
}
