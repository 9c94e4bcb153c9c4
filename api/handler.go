// Package api 提供定价服务的 HTTP 接口。
package api

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/mcpricer/cache"
	"github.com/wyfcoding/mcpricer/config"
	"github.com/wyfcoding/mcpricer/limiter"
	"github.com/wyfcoding/mcpricer/logging"
	"github.com/wyfcoding/mcpricer/middleware"
	"github.com/wyfcoding/mcpricer/montecarlo"
	"github.com/wyfcoding/mcpricer/payoff"
	"github.com/wyfcoding/mcpricer/pricing"
	"github.com/wyfcoding/mcpricer/response"
	"github.com/wyfcoding/mcpricer/xerrors"
)

// DefaultMaxPoints 单次请求允许的路径点总数上限 (paths * (steps+1))。
const DefaultMaxPoints = 50_000_000

var errMalformedBody = xerrors.New(xerrors.ErrInvalidInput, 400001, "malformed request body", "", nil)

// Defaults 请求未指定字段时使用的默认值。
type Defaults struct {
	Simulation montecarlo.SimulationConfig
	Seed       uint64
	Specs      []payoff.Spec
	CallStrike float64
	PutStrike  float64
	MaxPoints  int
}

// DefaultsFromConfig 从配置构造默认值。
func DefaultsFromConfig(cfg *config.Config) (Defaults, error) {
	specs, err := cfg.Options.Specs()
	if err != nil {
		return Defaults{}, err
	}
	return Defaults{
		Simulation: cfg.Simulation.ToSimulationConfig(),
		Seed:       cfg.Engine.Seed,
		Specs:      specs,
		CallStrike: cfg.Options.CallStrike,
		PutStrike:  cfg.Options.PutStrike,
		MaxPoints:  DefaultMaxPoints,
	}, nil
}

// Handler 定价 HTTP 处理器。
type Handler struct {
	engine      *pricing.Engine
	results     *cache.ResultCache
	runs        limiter.ConcurrencyLimiter
	waitTimeout time.Duration
	defaults    atomic.Pointer[Defaults]
	logger      *slog.Logger
}

// Option 处理器选项。
type Option func(*Handler)

// WithResultCache 启用结果缓存。
func WithResultCache(c *cache.ResultCache) Option {
	return func(h *Handler) { h.results = c }
}

// WithConcurrencyLimiter 限制同时运行的定价请求数，等待超过 wait 返回 503。
func WithConcurrencyLimiter(l limiter.ConcurrencyLimiter, wait time.Duration) Option {
	return func(h *Handler) {
		h.runs = l
		h.waitTimeout = wait
	}
}

// WithLogger 注入日志记录器。
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// NewHandler 创建处理器。
func NewHandler(engine *pricing.Engine, defaults Defaults, opts ...Option) *Handler {
	h := &Handler{engine: engine}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logging.Component(h.logger, "api")
	h.SetDefaults(defaults)
	return h
}

// SetDefaults 替换默认值，配置热更新时调用。
func (h *Handler) SetDefaults(d Defaults) {
	if d.MaxPoints <= 0 {
		d.MaxPoints = DefaultMaxPoints
	}
	h.defaults.Store(&d)
}

// Register 注册路由。
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/v1")
	v1.GET("/variants", h.ListVariants)

	price := []gin.HandlerFunc{}
	if h.runs != nil {
		price = append(price, middleware.ConcurrencyLimitWithLimiter(h.runs, middleware.ConcurrencyLimitOptions{WaitTimeout: h.waitTimeout}))
	}
	v1.POST("/prices", append(price, h.Price)...)
}

// VariantInfo 变体描述。
type VariantInfo struct {
	Name          payoff.Variant `json:"name"`
	Label         string         `json:"label"`
	European      bool           `json:"european"`
	DefaultStrike float64        `json:"default_strike,omitempty"`
}

// ListVariants GET /v1/variants
func (h *Handler) ListVariants(c *gin.Context) {
	d := h.defaults.Load()
	out := make([]VariantInfo, 0, len(payoff.AllVariants()))
	for _, v := range payoff.AllVariants() {
		info := VariantInfo{Name: v, Label: v.Label(), European: v.IsEuropean()}
		switch v {
		case payoff.EuropeanCall:
			info.DefaultStrike = d.CallStrike
		case payoff.EuropeanPut:
			info.DefaultStrike = d.PutStrike
		}
		out = append(out, info)
	}
	response.Success(c, out)
}

// PriceResponse POST /v1/prices 的响应数据。
type PriceResponse struct {
	*pricing.Result
	Cached    bool   `json:"cached"`
	RequestID string `json:"request_id,omitempty"`
}

// Price POST /v1/prices
func (h *Handler) Price(c *gin.Context) {
	ctx := c.Request.Context()
	req, err := h.decode(c)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, err)
		return
	}

	if h.results != nil {
		if res, ok := h.results.Get(ctx, req); ok {
			response.Success(c, PriceResponse{Result: res, Cached: true, RequestID: middleware.RequestIDFromContext(ctx)})
			return
		}
	}

	res, err := h.engine.Run(ctx, req)
	if err != nil {
		_ = c.Error(err)
		h.logger.WarnContext(ctx, "pricing request failed", "error", err)
		response.Error(c, err)
		return
	}
	if h.results != nil {
		h.results.Put(ctx, req, res)
	}
	response.Success(c, PriceResponse{Result: res, RequestID: middleware.RequestIDFromContext(ctx)})
}

type priceBody struct {
	Simulation montecarlo.SimulationConfig `json:"simulation"`
	Seed       *uint64                     `json:"seed"`
	Options    []optionBody                `json:"options"`
}

type optionBody struct {
	Variant string  `json:"variant"`
	Strike  float64 `json:"strike"`
}

// decode 在默认值之上合并请求体，缺省的模拟字段、种子与期权列表都取默认值。
func (h *Handler) decode(c *gin.Context) (pricing.Request, error) {
	d := h.defaults.Load()
	body := priceBody{Simulation: d.Simulation}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			return pricing.Request{}, xerrors.InvalidInput(errMalformedBody, "%v", err)
		}
	}

	req := pricing.Request{Config: body.Simulation, Seed: d.Seed}
	if body.Seed != nil {
		req.Seed = *body.Seed
	}

	if len(body.Options) == 0 {
		req.Specs = append([]payoff.Spec(nil), d.Specs...)
	} else {
		for _, o := range body.Options {
			v, err := payoff.ParseVariant(o.Variant)
			if err != nil {
				return pricing.Request{}, err
			}
			spec := payoff.Spec{Variant: v, Strike: o.Strike}
			if spec.Strike == 0 {
				switch v {
				case payoff.EuropeanCall:
					spec.Strike = d.CallStrike
				case payoff.EuropeanPut:
					spec.Strike = d.PutStrike
				}
			}
			req.Specs = append(req.Specs, spec)
		}
	}

	cfg := req.Config
	if cfg.Paths > 0 && cfg.Steps > 0 && cfg.Paths > d.MaxPoints/(cfg.Steps+1) {
		return pricing.Request{}, xerrors.InvalidConfiguration("paths", "paths*(steps+1) exceeds server limit %d", d.MaxPoints)
	}
	return req, nil
}

// NotFound 统一的 404 响应。
func NotFound(c *gin.Context) {
	response.ErrorWithStatus(c, http.StatusNotFound, "route not found", c.Request.URL.Path)
}
