package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nostrly/crownanchor/internal/auth"
	"github.com/nostrly/crownanchor/internal/game"
	"github.com/nostrly/crownanchor/internal/lightning"
	"github.com/nostrly/crownanchor/internal/repos/players"
	"github.com/nostrly/crownanchor/internal/services/deposits"
	"github.com/nostrly/crownanchor/internal/services/rounds"
)

// Rounds is the orchestrator surface the handlers need.
type Rounds interface {
	Login(ctx context.Context, pubkey string) (rounds.LoginResult, error)
	Logout(ctx context.Context, pubkey string) error
	Play(ctx context.Context, pubkey, commitment string, slip game.BetSlip) (rounds.PlayResult, error)
}

// Deposits is the reconciler surface the handlers need.
type Deposits interface {
	Request(ctx context.Context, pubkey string, amountSats int64, memo string) (deposits.RequestResult, error)
	ConfirmAndCredit(ctx context.Context, pubkey, token string) (deposits.Outcome, error)
}

// Authenticator validates a login assertion and yields the pubkey.
type Authenticator interface {
	Authenticate(ctx context.Context, payload string) (string, error)
}

// HandlerProvider exposes the game services over HTTP.
type HandlerProvider struct {
	rounds   Rounds
	deposits Deposits
	auth     Authenticator
}

func NewHandler(r Rounds, d Deposits, a Authenticator) *HandlerProvider {
	return &HandlerProvider{rounds: r, deposits: d, auth: a}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)

		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}
}

// writeError sends a machine-readable reason code so clients can tell
// "fix your input" from "try again" from "session expired".
func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB cap
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}

		return err
	}

	return nil
}

// parseBetSlip converts the wire form {"1": 10, "5": 3} into a slip.
// Unknown symbol keys are rejected here, never silently dropped.
func parseBetSlip(raw map[string]int64) (game.BetSlip, error) {
	slip := make(game.BetSlip, len(raw))

	for key, stake := range raw {
		n, err := strconv.Atoi(key)
		if err != nil {
			return nil, game.ErrInvalidBetSlip
		}

		sym, err := game.ParseSymbol(n)
		if err != nil {
			return nil, game.ErrInvalidBetSlip
		}

		slip[sym] = stake
	}

	return slip, nil
}

// --- Handlers ---

type loginRequest struct {
	Event string `json:"event"`
}

// LoginHandler handles POST /api/login.
func (h *HandlerProvider) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	pubkey, err := h.auth.Authenticate(r.Context(), req.Event)
	if err != nil {
		slog.Info("login rejected", "error", err)
		writeError(w, http.StatusUnauthorized, "auth_failed")

		return
	}

	result, err := h.rounds.Login(r.Context(), pubkey)
	if err != nil {
		slog.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"credits":     result.Credits,
		"result_hash": result.Commitment,
	})
}

type logoutRequest struct {
	Pubkey string `json:"pubkey"`
}

// LogoutHandler handles POST /api/logout.
func (h *HandlerProvider) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest

	err := decodeBody(w, r, &req)
	if err != nil || !auth.ValidPubkey(req.Pubkey) {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	err = h.rounds.Logout(r.Context(), req.Pubkey)
	if err != nil {
		if errors.Is(err, players.ErrPlayerNotFound) {
			writeError(w, http.StatusNotFound, "player_not_found")
			return
		}

		slog.Error("logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type playRequest struct {
	Pubkey string           `json:"pubkey"`
	Hash   string           `json:"hash"`
	Bets   map[string]int64 `json:"bets"`
}

// PlayHandler handles POST /api/play.
func (h *HandlerProvider) PlayHandler(w http.ResponseWriter, r *http.Request) {
	var req playRequest

	err := decodeBody(w, r, &req)
	if err != nil || !auth.ValidPubkey(req.Pubkey) || req.Hash == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	slip, err := parseBetSlip(req.Bets)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_bet_slip")
		return
	}

	result, err := h.rounds.Play(r.Context(), req.Pubkey, req.Hash, slip)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrInvalidBetSlip):
			writeError(w, http.StatusBadRequest, "invalid_bet_slip")
		case errors.Is(err, rounds.ErrStaleRound):
			writeError(w, http.StatusConflict, "stale_round")
		case errors.Is(err, rounds.ErrInsufficientCredits):
			writeError(w, http.StatusPaymentRequired, "insufficient_credits")
		case errors.Is(err, players.ErrPlayerNotFound):
			writeError(w, http.StatusNotFound, "player_not_found")
		default:
			slog.Error("play failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal")
		}

		return
	}

	rollNumbers := make([]int, 0, game.RollCount)
	for _, roll := range result.Rolls {
		rollNumbers = append(rollNumbers, int(roll))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rolls":           rollNumbers,
		"randomhash":      result.Salt,
		"stake":           result.Stake,
		"winnings":        result.Winnings,
		"credits":         result.Credits,
		"new_result_hash": result.NewCommitment,
	})
}

type depositRequest struct {
	Pubkey  string `json:"pubkey"`
	Amount  int64  `json:"amount"`
	Comment string `json:"comment"`
}

// DepositHandler handles POST /api/deposit.
func (h *HandlerProvider) DepositHandler(w http.ResponseWriter, r *http.Request) {
	var req depositRequest

	err := decodeBody(w, r, &req)
	if err != nil || !auth.ValidPubkey(req.Pubkey) {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	result, err := h.deposits.Request(r.Context(), req.Pubkey, req.Amount, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, players.ErrPlayerNotFound):
			writeError(w, http.StatusNotFound, "player_not_found")
		case errors.Is(err, lightning.ErrUnavailable):
			writeError(w, http.StatusBadGateway, "payment_unavailable")
		default:
			slog.Error("deposit request failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal")
		}

		return
	}

	if result.Fallback {
		writeJSON(w, http.StatusOK, map[string]any{
			"credits": result.Credits,
			"message": "Lightning payments unavailable. Credits granted instead.",
		})

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":           result.Invoice.Token,
		"payment_request": result.Invoice.PaymentRequest,
		"payment_hash":    result.Invoice.PaymentHash,
		"amount":          result.Invoice.AmountSats,
	})
}

type depositCheckRequest struct {
	Pubkey string `json:"pubkey"`
	Token  string `json:"token"`
}

// DepositCheckHandler handles POST /api/deposit/check. Pending is a
// normal 200; a credited payment polled again is also a 200 with the
// unchanged balance.
func (h *HandlerProvider) DepositCheckHandler(w http.ResponseWriter, r *http.Request) {
	var req depositCheckRequest

	err := decodeBody(w, r, &req)
	if err != nil || !auth.ValidPubkey(req.Pubkey) || req.Token == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	outcome, err := h.deposits.ConfirmAndCredit(r.Context(), req.Pubkey, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, deposits.ErrPaymentNotFound):
			writeError(w, http.StatusNotFound, "payment_not_found")
		case errors.Is(err, players.ErrPlayerNotFound):
			writeError(w, http.StatusNotFound, "player_not_found")
		case errors.Is(err, lightning.ErrUnavailable):
			writeError(w, http.StatusBadGateway, "payment_unavailable")
		default:
			slog.Error("deposit check failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal")
		}

		return
	}

	if outcome.Status == deposits.StatusPending {
		writeJSON(w, http.StatusOK, map[string]any{"settled": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"settled": true,
		"credits": outcome.Credits,
	})
}
