package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-fee-router/internal/engine"
	"github.com/aman-zulfiqar/solana-fee-router/internal/feeconfig"
	"github.com/aman-zulfiqar/solana-fee-router/internal/fees"
	"github.com/aman-zulfiqar/solana-fee-router/internal/instruction"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	FeeConfig *feeconfig.Store // Redis-backed fee records (optional)
	Engine    *engine.Engine   // Planner over the pool registry (optional)
	DevMode   bool             // Enable detailed error responses in development
	Logger    *logrus.Logger   // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Pools lists the registered pools
func (h *Handlers) Pools(c echo.Context) error {
	if h.Engine == nil {
		return h.err(c, http.StatusBadRequest, "engine is not configured", nil)
	}
	return c.JSON(http.StatusOK, h.Engine.GetPoolInfo())
}

// DecodeInstruction parses base58 router instruction data
func (h *Handlers) DecodeInstruction(c echo.Context) error {
	var req DecodeRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	raw, err := base58.Decode(strings.TrimSpace(req.Data))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid data", map[string]any{"data": "must be base58"})
	}

	ix, err := instruction.Decode(raw)
	if err != nil {
		return h.routerError(c, err, "invalid instruction", http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, DecodeResponse{Kind: ix.Kind(), Instruction: ix})
}

// EncodeInstruction serializes a swap or deposit with the forward or router
// tag table
func (h *Handlers) EncodeInstruction(c echo.Context) error {
	var req EncodeRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	var ix instruction.Instruction
	switch req.Kind {
	case instruction.KindSwap:
		ix = instruction.Swap{AmountIn: req.AmountIn, MinimumAmountOut: req.MinimumAmountOut}
	case instruction.KindDeposit:
		ix = instruction.Deposit{MaxCoinAmount: req.MaxCoinAmount, MaxPcAmount: req.MaxPcAmount, BaseSide: req.BaseSide}
	default:
		return h.err(c, http.StatusBadRequest, "invalid kind", map[string]any{"kind": "swap or deposit"})
	}

	var (
		data []byte
		err  error
	)
	switch req.Table {
	case "", TableForward:
		data, err = instruction.Encode(ix)
	case TableRouter:
		data, err = instruction.EncodeRouter(ix)
	default:
		return h.err(c, http.StatusBadRequest, "invalid table", map[string]any{"table": "forward or router"})
	}
	if err != nil {
		return h.routerError(c, err, "encode failed", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, EncodeResponse{Data: base58.Encode(data), Length: len(data)})
}

// FeeQuote computes the fee on amount at numerator/denominator, defaulting to
// the router's fixed skim rate
func (h *Handlers) FeeQuote(c echo.Context) error {
	amount, err := parseUintQuery(c, "amount", 0, true)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be uint64"})
	}
	num, err := parseUintQuery(c, "numerator", fees.SkimNumerator, false)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid numerator", map[string]any{"numerator": "must be uint64"})
	}
	den, err := parseUintQuery(c, "denominator", fees.SkimDenominator, false)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid denominator", map[string]any{"denominator": "must be uint64"})
	}

	if err := fees.ValidateFraction(num, den); err != nil {
		return h.routerError(c, err, "invalid fee", http.StatusBadRequest)
	}
	fee, ok := fees.CalculateFee(amount, num, den)
	if !ok {
		return h.err(c, http.StatusBadRequest, "fee is undefined for this rate", nil)
	}

	return c.JSON(http.StatusOK, FeeQuoteResponse{
		Amount:      amount,
		Numerator:   num,
		Denominator: den,
		Fee:         fee,
		Net:         amount - fee,
	})
}

// FeeValidate checks a Fees record and returns its packed form
func (h *Handlers) FeeValidate(c echo.Context) error {
	var f fees.Fees
	if err := c.Bind(&f); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := f.Validate(); err != nil {
		return h.routerError(c, err, "invalid fee", http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, FeeValidateResponse{OK: true, Fees: f, Packed: base58.Encode(f.Pack())})
}

// FeeConfigUpsert stores the fee record of a pool
func (h *Handlers) FeeConfigUpsert(c echo.Context) error {
	if h.FeeConfig == nil {
		return h.err(c, http.StatusBadRequest, "fee config store is not configured", nil)
	}
	pool := c.Param("pool")
	if err := feeconfig.ValidatePool(pool); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid pool", map[string]any{"pool": "invalid format"})
	}
	var f fees.Fees
	if err := c.Bind(&f); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := f.Validate(); err != nil {
		return h.routerError(c, err, "invalid fee", http.StatusBadRequest)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.FeeConfig.Upsert(ctx, pool, f)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to store fee config", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FeeConfigGet retrieves the fee record of a pool
// Returns 404 if the pool has none
func (h *Handlers) FeeConfigGet(c echo.Context) error {
	if h.FeeConfig == nil {
		return h.err(c, http.StatusBadRequest, "fee config store is not configured", nil)
	}
	pool := c.Param("pool")
	if err := feeconfig.ValidatePool(pool); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid pool", map[string]any{"pool": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.FeeConfig.Get(ctx, pool)
	if err != nil {
		if errors.Is(err, feeconfig.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "fee config not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get fee config", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FeeConfigList returns every stored fee record
func (h *Handlers) FeeConfigList(c echo.Context) error {
	if h.FeeConfig == nil {
		return h.err(c, http.StatusBadRequest, "fee config store is not configured", nil)
	}
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.FeeConfig.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list fee configs", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FeeConfigDelete removes the fee record of a pool
// Returns 204 No Content on successful deletion
func (h *Handlers) FeeConfigDelete(c echo.Context) error {
	if h.FeeConfig == nil {
		return h.err(c, http.StatusBadRequest, "fee config store is not configured", nil)
	}
	pool := c.Param("pool")
	if err := feeconfig.ValidatePool(pool); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid pool", map[string]any{"pool": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.FeeConfig.Delete(ctx, pool); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete fee config", nil)
	}
	return c.NoContent(http.StatusNoContent)
}

// PlanSwap dry-runs a routed swap
func (h *Handlers) PlanSwap(c echo.Context) error {
	if h.Engine == nil {
		return h.err(c, http.StatusBadRequest, "engine is not configured", nil)
	}
	var req engine.SwapRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plan, err := h.Engine.PlanSwap(ctx, req)
	if err != nil {
		return h.routerError(c, err, "plan failed", http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, plan)
}

// PlanDeposit dry-runs a routed deposit
func (h *Handlers) PlanDeposit(c echo.Context) error {
	if h.Engine == nil {
		return h.err(c, http.StatusBadRequest, "engine is not configured", nil)
	}
	var req engine.DepositRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	plan, err := h.Engine.PlanDeposit(ctx, req)
	if err != nil {
		return h.routerError(c, err, "plan failed", http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, plan)
}

func parseUintQuery(c echo.Context, name string, def uint64, required bool) (uint64, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		if required {
			return 0, errors.New(name + " is required")
		}
		return def, nil
	}
	return strconv.ParseUint(v, 10, 64)
}
