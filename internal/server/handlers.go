package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"luckyjet/internal/engine"
	"luckyjet/internal/ledger"
	"luckyjet/internal/metrics"
	"luckyjet/internal/models"
)

func (s *GameServer) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *GameServer) GetCurrentGame(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"game":     s.runner.Snapshot(),
		"currency": s.currency,
		"symbol":   models.CurrencySymbol(s.currency),
	})
}

func (s *GameServer) GetGameHistory(c *gin.Context) {
	history := s.runner.Snapshot().History

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if limit < len(history) {
			history = history[:limit]
		}
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// PlaceBet wagers the posted amount, or the current stake when the body
// carries no amount.
func (s *GameServer) PlaceBet(c *gin.Context) {
	var req struct {
		Amount *float64 `json:"amount"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}

	var err error
	if req.Amount == nil {
		err = s.runner.PlaceStake(c.Request.Context())
	} else {
		var amount decimal.Decimal
		if amount, err = ledger.AmountFromFloat(*req.Amount); err == nil {
			err = s.runner.PlaceBet(c.Request.Context(), amount)
		}
	}
	if err != nil {
		s.rejected(c, "place", err)
		return
	}

	snap := s.runner.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"amount":  snap.Bet.Amount,
		"balance": snap.Balance,
	})
}

func (s *GameServer) Cashout(c *gin.Context) {
	payout, err := s.runner.CashOut(c.Request.Context())
	if err != nil {
		s.rejected(c, "cashout", err)
		return
	}

	snap := s.runner.Snapshot()
	resp := gin.H{
		"success":   true,
		"winAmount": payout,
		"balance":   snap.Balance,
	}
	if m := snap.Bet.CashOutMultiplier; m != nil {
		resp["multiplier"] = *m
	}
	c.JSON(http.StatusOK, resp)
}

func (s *GameServer) AdjustStake(c *gin.Context) {
	var req struct {
		Delta float64 `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	stake, err := s.runner.AdjustStake(c.Request.Context(), decimal.NewFromFloat(req.Delta))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stake": stake})
}

// rejected reports a refused command. Engine and ledger rejections are the
// client's fault; anything else (a cancelled request) is not.
func (s *GameServer) rejected(c *gin.Context, command string, err error) {
	if !isRejection(err) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	metrics.Rejected(command, err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func isRejection(err error) bool {
	for _, target := range []error{
		ledger.ErrInvalidAmount,
		ledger.ErrBetOutstanding,
		ledger.ErrInsufficientBalance,
		ledger.ErrNoBet,
		engine.ErrNotAcceptingBets,
		engine.ErrNotFlying,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
