package host

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	gohttp "github.com/km-arc/go-gamecore/framework/http"
	"github.com/km-arc/go-gamecore/framework/http/validation"
	"github.com/km-arc/go-gamecore/framework/routing"
	"github.com/km-arc/go-gamecore/framework/tick"
)

// TickLister is the part of tick.Registry the console reads.
type TickLister interface {
	Handlers() []tick.Snapshot
}

// Console exposes the host over HTTP for local development:
//
//	GET  /commands       command table
//	POST /commands       {"line": "veh infernus", "source": 0}
//	GET  /ticks          tick handler state, ?owner= filters by owner type
//	GET  /ticks/{name}   one tick handler
type Console struct {
	host   *Host
	ticks  TickLister
	logger *zap.Logger
	router *routing.Router
}

// NewConsole builds the console routes.
func NewConsole(h *Host, ticks TickLister, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Console{host: h, ticks: ticks, logger: logger.Named("console")}

	r := routing.New(c.logger)
	r.Middleware(middleware.NoCache)
	r.Prefix("/commands", func(r *routing.Router) {
		r.Get("/", c.listCommands)
		r.Post("/", c.execute)
	})
	r.Prefix("/ticks", func(r *routing.Router) {
		r.Get("/", c.listTicks)
		r.Get("/{name}", c.showTick)
	})
	c.router = r
	return c
}

// ServeHTTP implements http.Handler.
func (c *Console) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.router.ServeHTTP(w, r)
}

// Serve listens on addr until ctx is done.
func (c *Console) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: c, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	c.logger.Info("console listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type tickView struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Owner         string    `json:"owner"`
	IntervalMs    int64     `json:"interval_ms"`
	Async         bool      `json:"async"`
	LastExecution time.Time `json:"last_execution"`
	Running       bool      `json:"running"`
	Runs          int64     `json:"runs"`
	Failures      int64     `json:"failures"`
}

type executed struct {
	ID     string `json:"id"`
	Source int    `json:"source"`
	Line   string `json:"line"`
}

func (c *Console) listCommands(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(c.host.Commands())
}

func (c *Console) listTicks(w http.ResponseWriter, r *http.Request) {
	owner := gohttp.NewRequest(r).Query("owner")
	out := []tickView{}
	for _, s := range c.ticks.Handlers() {
		if owner == "" || s.Owner == owner {
			out = append(out, viewOf(s))
		}
	}
	gohttp.NewResponse(w).Success(out)
}

func (c *Console) showTick(w http.ResponseWriter, r *http.Request) {
	name := routing.Param(r, "name")
	for _, s := range c.ticks.Handlers() {
		if s.Name == name {
			gohttp.NewResponse(w).Success(viewOf(s))
			return
		}
	}
	gohttp.NewResponse(w).NotFound("no tick handler " + strconv.Quote(name))
}

func viewOf(s tick.Snapshot) tickView {
	return tickView{
		ID:            s.ID.String(),
		Name:          s.Name,
		Owner:         s.Owner,
		IntervalMs:    s.Interval.Milliseconds(),
		Async:         s.Async,
		LastExecution: s.LastExecution.UTC(),
		Running:       s.Running,
		Runs:          s.Runs,
		Failures:      s.Failures,
	}
}

func (c *Console) execute(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	input, err := gohttp.NewRequest(r).All()
	if err != nil {
		res.Error(http.StatusBadRequest, err.Error())
		return
	}

	v := validation.Make(input, validation.Rules{
		"line":   "required|max:256",
		"source": "sometimes|integer|gte:0",
	})
	if v.Fails() {
		res.ValidationError(v.Errors())
		return
	}

	source := ConsoleSource
	if s := input["source"]; s != "" {
		source, _ = strconv.Atoi(s)
	}

	id := uuid.New()
	err = c.host.Execute(source, input["line"])
	switch {
	case errors.Is(err, ErrUnknownCommand):
		res.NotFound(err.Error())
	case errors.Is(err, ErrRestricted):
		res.Forbidden(err.Error())
	case err != nil:
		res.Error(http.StatusBadRequest, err.Error())
	default:
		c.logger.Info("console command executed", zap.Stringer("id", id), zap.Int("source", source))
		res.Accepted(executed{ID: id.String(), Source: source, Line: input["line"]})
	}
}
