package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"luckyjet/internal/engine"
	"luckyjet/internal/game"
	"luckyjet/internal/game/gametest"
	"luckyjet/internal/ledger"
	"luckyjet/internal/notification"
	"luckyjet/internal/security"
)

type testServer struct {
	server *GameServer
	runner *engine.Runner
}

// setupTestServer runs an engine on a fast clock. A nil src never crashes.
func setupTestServer(t *testing.T, limiter *security.IPRateLimiter, src game.Source) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	notifier := notification.NewNotificationManager(log)

	if src == nil {
		// 0.5 never crashes at p=0.02, so flights last until the test ends.
		src = gametest.NewSequence(0.5)
	}
	opts := engine.DefaultOptions()
	opts.Source = src
	opts.CountdownTick = 40 * time.Millisecond
	opts.FlightTick = 5 * time.Millisecond
	opts.CrashDwell = 10 * time.Millisecond
	opts.Notifier = notifier
	e, err := engine.New(time.Now(), opts)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	runner := engine.NewRunner(e, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = runner.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		notifier.Close()
	})

	if limiter == nil {
		limiter = security.NewIPRateLimiter(rate.Inf, 1)
	}
	return &testServer{
		server: NewGameServer(runner, notifier, limiter, "EUR", log),
		runner: runner,
	}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)

	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, out
}

func (ts *testServer) waitForPhase(t *testing.T, phase game.Phase) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for ts.runner.Snapshot().Phase != phase {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %v", phase)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t, nil, nil)
	code, body := ts.do(t, http.MethodGet, "/health", "")
	if code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", code, body)
	}
}

func TestGetCurrentGame(t *testing.T) {
	ts := setupTestServer(t, nil, nil)
	code, body := ts.do(t, http.MethodGet, "/api/game/current", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["symbol"] != "€" {
		t.Errorf("symbol = %v, want €", body["symbol"])
	}
	g, ok := body["game"].(map[string]any)
	if !ok {
		t.Fatalf("game = %v", body["game"])
	}
	if g["balance"] != "10000" {
		t.Errorf("balance = %v, want 10000", g["balance"])
	}
	if g["stake"] != "0.2" {
		t.Errorf("stake = %v, want 0.2", g["stake"])
	}
}

func TestBetHandling(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedCode int
		expectedErr  string
	}{
		{"current stake", "", http.StatusOK, ""},
		{"explicit amount", `{"amount": 25}`, http.StatusOK, ""},
		{"zero bet", `{"amount": 0}`, http.StatusBadRequest, ledger.ErrInvalidAmount.Error()},
		{"negative bet", `{"amount": -50}`, http.StatusBadRequest, ledger.ErrInvalidAmount.Error()},
		{"over balance", `{"amount": 20000}`, http.StatusBadRequest, ledger.ErrInsufficientBalance.Error()},
		{"malformed body", `{"amount": "lots"`, http.StatusBadRequest, "invalid request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := setupTestServer(t, nil, nil)

			code, body := ts.do(t, http.MethodPost, "/api/bet", tt.body)
			if code != tt.expectedCode {
				t.Fatalf("status = %d, want %d (%v)", code, tt.expectedCode, body)
			}
			if tt.expectedErr != "" && body["error"] != tt.expectedErr {
				t.Errorf("error = %v, want %q", body["error"], tt.expectedErr)
			}
			if tt.expectedCode == http.StatusOK && body["success"] != true {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func TestSecondBetRejected(t *testing.T) {
	ts := setupTestServer(t, nil, nil)

	if code, body := ts.do(t, http.MethodPost, "/api/bet", `{"amount": 10}`); code != http.StatusOK {
		t.Fatalf("first bet = %d %v", code, body)
	}
	code, body := ts.do(t, http.MethodPost, "/api/bet", `{"amount": 10}`)
	if code != http.StatusBadRequest || body["error"] != ledger.ErrBetOutstanding.Error() {
		t.Errorf("second bet = %d %v", code, body)
	}
	if bal := ts.runner.Snapshot().Balance; !bal.Equal(decimal.NewFromInt(9990)) {
		t.Errorf("balance = %s, want 9990", bal)
	}
}

func TestCashoutFlow(t *testing.T) {
	ts := setupTestServer(t, nil, nil)

	code, body := ts.do(t, http.MethodPost, "/api/cashout", "")
	if code != http.StatusBadRequest || body["error"] != engine.ErrNotFlying.Error() {
		t.Fatalf("cashout while waiting = %d %v", code, body)
	}

	if code, body := ts.do(t, http.MethodPost, "/api/bet", `{"amount": 100}`); code != http.StatusOK {
		t.Fatalf("bet = %d %v", code, body)
	}
	ts.waitForPhase(t, game.PhaseFlying)

	code, body = ts.do(t, http.MethodPost, "/api/cashout", "")
	if code != http.StatusOK {
		t.Fatalf("cashout = %d %v", code, body)
	}
	win, err := decimal.NewFromString(body["winAmount"].(string))
	if err != nil {
		t.Fatalf("winAmount %v: %v", body["winAmount"], err)
	}
	if win.LessThan(decimal.NewFromInt(100)) {
		t.Errorf("winAmount = %s, want at least the stake", win)
	}

	code, body = ts.do(t, http.MethodPost, "/api/cashout", "")
	if code != http.StatusBadRequest || body["error"] != ledger.ErrNoBet.Error() {
		t.Errorf("second cashout = %d %v", code, body)
	}
}

func TestAdjustStake(t *testing.T) {
	ts := setupTestServer(t, nil, nil)

	code, body := ts.do(t, http.MethodPost, "/api/stake", `{"delta": 5}`)
	if code != http.StatusOK || body["stake"] != "5.2" {
		t.Errorf("stake +5 = %d %v", code, body)
	}
	code, body = ts.do(t, http.MethodPost, "/api/stake", `{"delta": -100}`)
	if code != http.StatusOK || body["stake"] != "0.1" {
		t.Errorf("stake -100 = %d %v", code, body)
	}
	if code, _ := ts.do(t, http.MethodPost, "/api/stake", `{}`); code != http.StatusBadRequest {
		t.Errorf("missing delta = %d, want 400", code)
	}
}

func TestGetGameHistory(t *testing.T) {
	ts := setupTestServer(t, nil, nil)

	code, body := ts.do(t, http.MethodGet, "/api/game/history?limit=5", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if h, ok := body["history"].([]any); !ok || len(h) != 0 {
		t.Errorf("history = %v, want empty list", body["history"])
	}

	if code, _ := ts.do(t, http.MethodGet, "/api/game/history?limit=x", ""); code != http.StatusBadRequest {
		t.Errorf("bad limit = %d, want 400", code)
	}
}

func TestRateLimit(t *testing.T) {
	ts := setupTestServer(t, security.NewIPRateLimiter(rate.Every(time.Hour), 2), nil)

	for i := 0; i < 2; i++ {
		if code, _ := ts.do(t, http.MethodGet, "/api/game/current", ""); code != http.StatusOK {
			t.Fatalf("request %d = %d", i, code)
		}
	}
	code, body := ts.do(t, http.MethodGet, "/api/game/current", "")
	if code != http.StatusTooManyRequests || body["error"] != "too many requests" {
		t.Errorf("third request = %d %v", code, body)
	}
	// Health is outside the limited group.
	if code, _ := ts.do(t, http.MethodGet, "/health", ""); code != http.StatusOK {
		t.Errorf("health = %d", code)
	}
}

func TestWebSocketPushesState(t *testing.T) {
	// Every third draw is a crashing trial, so rounds keep cycling.
	ts := setupTestServer(t, nil, gametest.NewSequence(0.5, 0.5, 0.001))
	srv := httptest.NewServer(ts.server.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	seen := map[string]bool{}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for !(seen[msgSnapshot] && seen[msgEvent]) {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read (seen %v): %v", seen, err)
		}
		seen[msg.Type] = true
	}
}
