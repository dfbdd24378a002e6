package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contactkeval/option-greeks-sim/internal/pricing"
	"github.com/contactkeval/option-greeks-sim/internal/simulate"
)

// PriceResponse is the reply of POST /api/v1/price.
type PriceResponse struct {
	ValuationDate string                    `json:"valuation_date"`
	TimeFraction  float64                   `json:"time_fraction"`
	D1            float64                   `json:"d1"`
	D2            float64                   `json:"d2"`
	Greeks        map[string]pricing.Greeks `json:"greeks"`
}

// SimulateResponse is the reply of POST /api/v1/simulate.
type SimulateResponse struct {
	*simulate.Series
	RealizedVolatility float64 `json:"realized_volatility"`
}

func (s *Server) health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) price(c *gin.Context) {
	var req ContractRequest
	if !bind(c, &req) {
		return
	}
	kinds, err := req.kinds()
	if err != nil {
		fail(c, err)
		return
	}
	spec, valuation, err := req.spec(s.now())
	if err != nil {
		fail(c, err)
		return
	}

	resp := PriceResponse{
		ValuationDate: valuation.Format(pricing.DateLayout),
		Greeks:        make(map[string]pricing.Greeks, len(kinds)),
	}
	for _, k := range kinds {
		contract, err := pricing.NewContract(k, spec, valuation)
		if err != nil {
			fail(c, err)
			return
		}
		resp.TimeFraction = contract.TimeFraction()
		resp.D1 = contract.D1()
		resp.D2 = contract.D2()
		resp.Greeks[k.String()] = pricing.Evaluate(contract)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) simulate(c *gin.Context) {
	var req SimulateRequest
	if !bind(c, &req) {
		return
	}
	kind, err := req.kind()
	if err != nil {
		fail(c, err)
		return
	}
	now := s.now()
	spec, valuation, err := req.spec(now)
	if err != nil {
		fail(c, err)
		return
	}
	if err := checkHorizon(spec, valuation, s.cfg.MaxDays); err != nil {
		fail(c, err)
		return
	}

	sim, err := simulate.NewSeeded(kind, spec, valuation, req.seed(now))
	if err != nil {
		fail(c, err)
		return
	}
	series, err := sim.Run()
	if err != nil {
		fail(c, fmt.Errorf("run %s: %w", sim.RunID(), err))
		return
	}
	c.JSON(http.StatusOK, SimulateResponse{
		Series:             series,
		RealizedVolatility: simulate.RealizedVolatility(series.Spots()),
	})
}

func (s *Server) ensemble(c *gin.Context) {
	var req EnsembleRequest
	if !bind(c, &req) {
		return
	}
	if req.Paths > s.cfg.MaxPaths {
		fail(c, badRequest{fmt.Errorf("paths: at most %d allowed, got %d", s.cfg.MaxPaths, req.Paths)})
		return
	}
	kind, err := req.kind()
	if err != nil {
		fail(c, err)
		return
	}
	now := s.now()
	spec, valuation, err := req.spec(now)
	if err != nil {
		fail(c, err)
		return
	}
	if err := checkHorizon(spec, valuation, s.cfg.MaxDays); err != nil {
		fail(c, err)
		return
	}

	res, err := simulate.RunEnsemble(c.Request.Context(), kind, spec, valuation, simulate.EnsembleOptions{
		Paths:   req.Paths,
		Seed:    req.seed(now),
		Workers: req.Workers,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res.Summary)
}
