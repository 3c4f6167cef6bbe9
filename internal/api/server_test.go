package api

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/talgya/mini-economy/internal/economy"
	"github.com/talgya/mini-economy/internal/engine"
	"github.com/talgya/mini-economy/internal/ledger"
)

func newTestServer(t *testing.T, withLedger bool) (*Server, *engine.Engine) {
	t.Helper()
	pops := make([]engine.Pop, 5)
	for i := range pops {
		pops[i] = engine.Pop{Money: 1000, Health: 8}
	}
	factories := []engine.Factory{
		engine.NewFactory(economy.ProductFood, 6000),
		engine.NewFactory(economy.ProductClothes, 6000),
	}
	eng := engine.NewEngine(engine.NewWorld(rand.New(rand.NewSource(3)), pops, factories))
	srv := &Server{Eng: eng, AdminKey: "secret"}

	if withLedger {
		db, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
		if err != nil {
			t.Fatalf("open ledger: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		run, err := db.StartRun(3)
		if err != nil {
			t.Fatalf("start run: %v", err)
		}
		srv.Ledger = db
		srv.RunID = run
	}

	eng.OnDay = func(snap engine.Snapshot) {
		if srv.Ledger != nil {
			if err := srv.Ledger.RecordDay(srv.RunID, snap); err != nil {
				t.Fatalf("record day: %v", err)
			}
		}
		srv.Publish(snap)
	}
	return srv, eng
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatusBeforeFirstDay(t *testing.T) {
	srv, _ := newTestServer(t, false)
	rec := get(t, srv.Handler(), "/api/v1/status")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status code = %d, want 503", rec.Code)
	}
}

func TestStatusAndMarkets(t *testing.T) {
	srv, eng := newTestServer(t, false)
	for i := 0; i < 3; i++ {
		eng.Step()
	}
	h := srv.Handler()

	rec := get(t, h, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d: %s", rec.Code, rec.Body)
	}
	var status struct {
		Day         uint64 `json:"day"`
		MoneySupply int    `json:"money_supply"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Day != 3 {
		t.Errorf("day = %d, want 3", status.Day)
	}
	if status.MoneySupply+eng.World.Stats.LostInheritance != 17000 {
		t.Errorf("money supply = %d, want 17000 less lost inheritance", status.MoneySupply)
	}

	rec = get(t, h, "/api/v1/markets")
	var markets []economy.Market
	if err := json.Unmarshal(rec.Body.Bytes(), &markets); err != nil {
		t.Fatalf("decode markets: %v", err)
	}
	if len(markets) != len(economy.Goods) {
		t.Fatalf("markets = %d, want %d", len(markets), len(economy.Goods))
	}
	for i, m := range markets {
		if m.Good != economy.Goods[i] {
			t.Errorf("market %d = %s, want %s", i, m.Good, economy.Goods[i])
		}
	}
}

func TestHistoryWithoutLedger(t *testing.T) {
	srv, eng := newTestServer(t, false)
	eng.Step()
	for _, path := range []string{"/api/v1/history", "/api/v1/days"} {
		if rec := get(t, srv.Handler(), path); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s code = %d, want 503", path, rec.Code)
		}
	}
}

func TestHistory(t *testing.T) {
	srv, eng := newTestServer(t, true)
	for i := 0; i < 5; i++ {
		eng.Step()
	}
	h := srv.Handler()

	rec := get(t, h, "/api/v1/history?good=Clothes&limit=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("history code = %d: %s", rec.Code, rec.Body)
	}
	var rows []ledger.MarketRow
	if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(rows) != 2 || rows[0].Day != 4 || rows[1].Good != "Clothes" {
		t.Fatalf("rows = %+v", rows)
	}

	rec = get(t, h, "/api/v1/days")
	var days []ledger.DayRow
	if err := json.Unmarshal(rec.Body.Bytes(), &days); err != nil {
		t.Fatalf("decode days: %v", err)
	}
	if len(days) != 5 {
		t.Fatalf("days = %d, want 5", len(days))
	}

	if rec := get(t, h, "/api/v1/history?good=Gold"); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown good code = %d, want 400", rec.Code)
	}
}

func TestSpeedRequiresToken(t *testing.T) {
	srv, eng := newTestServer(t, false)
	h := srv.Handler()

	post := func(token, body string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/speed", strings.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := post("", `{"speed": 4}`); code != http.StatusUnauthorized {
		t.Errorf("no token = %d, want 401", code)
	}
	if code := post("wrong", `{"speed": 4}`); code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", code)
	}
	if code := post("secret", `{"speed": -1}`); code != http.StatusBadRequest {
		t.Errorf("negative speed = %d, want 400", code)
	}
	if code := post("secret", `{"speed": 4}`); code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", code)
	}
	if eng.Speed() != 4 {
		t.Errorf("speed = %v, want 4", eng.Speed())
	}

	srv.AdminKey = ""
	if code := post("secret", `{"speed": 2}`); code != http.StatusForbidden {
		t.Errorf("disabled admin = %d, want 403", code)
	}

	if rec := get(t, h, "/api/v1/speed"); rec.Code != http.StatusOK {
		t.Errorf("GET speed = %d, want 200", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("other clients are independent")
	}
	if got := rl.RetryAfter("a"); got != 61 {
		t.Errorf("retry after = %d, want 61", got)
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("window should reset")
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	if got := clientKey(req); got != "10.0.0.7" {
		t.Errorf("remote addr key = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientKey(req); got != "203.0.113.9" {
		t.Errorf("forwarded key = %q", got)
	}
}
