package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"example.com/rocklegends/internal/auth"
	"example.com/rocklegends/internal/store"
)

// SessionHandler exchanges a wallet address for a game session token and
// serves the durable profile/leaderboard reads. There is no password flow:
// the wallet is the identity, signature verification lives with the wallet
// provider in front of this service.
type SessionHandler struct {
	Players   *store.PlayerStore
	JWTSecret []byte
	TokenTTL  time.Duration
}

var walletPattern = regexp.MustCompile(`^0x[0-9a-f]{6,64}$`)

type SessionRequest struct {
	Wallet string `json:"wallet"`
}

type SessionResponse struct {
	AccessToken string `json:"accessToken"`
	Wallet      string `json:"wallet"`
}

func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}
	wallet := strings.ToLower(strings.TrimSpace(req.Wallet))
	if !walletPattern.MatchString(wallet) {
		writeError(w, http.StatusBadRequest, "bad_request", "wallet must be a 0x hex address")
		return
	}

	token, err := auth.Sign(h.JWTSecret, wallet, h.TokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{AccessToken: token, Wallet: wallet})
}

// Profile returns the caller's durable profile row.
func (h *SessionHandler) Profile(w http.ResponseWriter, r *http.Request) {
	wallet, ok := WalletFromContext(r.Context())
	if !ok || wallet == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing auth context")
		return
	}

	p, err := h.Players.GetByWallet(r.Context(), wallet)
	if errors.Is(err, store.ErrPlayerNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "no character for this wallet")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"wallet":        p.WalletAddress,
		"username":      p.Username,
		"level":         p.Level,
		"xp":            p.Experience,
		"totalEarnings": p.TotalEarnings,
		"rockTokens":    p.RockTokens,
		"soloStage":     p.SoloCareerStage,
	})
}

// Leaderboard returns the top players by cumulative earnings.
func (h *SessionHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	players, err := h.Players.TopByEarnings(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to load leaderboard")
		return
	}

	entries := make([]map[string]any, 0, len(players))
	for i, p := range players {
		entries = append(entries, map[string]any{
			"rank":          i + 1,
			"username":      p.Username,
			"level":         p.Level,
			"totalEarnings": p.TotalEarnings,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": entries})
}
