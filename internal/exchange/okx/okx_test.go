package okx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	clierr "github.com/keremd/chainrunner/internal/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New([]Credentials{{Key: "test-key", Secret: "test-secret", Passphrase: "test-pass"}},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.BaseURL = srv.URL
	c.Rand = rand.New(rand.NewSource(1))
	c.RetryCooldown = time.Millisecond
	c.Sleep = func(context.Context, time.Duration) error { return nil }
	c.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}
	return c
}

func writeEnvelope(w http.ResponseWriter, code, msg string, rows ...any) {
	data := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		raw, _ := json.Marshal(row)
		data = append(data, raw)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg, "data": data})
}

func TestRequestSignsHeaders(t *testing.T) {
	var got http.Header
	var gotPath string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotPath = r.URL.RequestURI()
		writeEnvelope(w, "0", "", map[string]string{"availBal": "12.5"})
	}))

	if _, err := c.Balance(context.Background(), 0, "ETH"); err != nil {
		t.Fatalf("Balance failed: %v", err)
	}

	if gotPath != "/api/v5/asset/balances?ccy=ETH" {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if got.Get("OK-ACCESS-KEY") != "test-key" {
		t.Fatalf("unexpected api key header %q", got.Get("OK-ACCESS-KEY"))
	}
	if got.Get("OK-ACCESS-PASSPHRASE") != "test-pass" {
		t.Fatalf("unexpected passphrase header %q", got.Get("OK-ACCESS-PASSPHRASE"))
	}
	timestamp := got.Get("OK-ACCESS-TIMESTAMP")
	if timestamp != "2026-08-28T12:00:00.000Z" {
		t.Fatalf("unexpected timestamp %q", timestamp)
	}

	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write([]byte(timestamp + "GET" + "/api/v5/asset/balances?ccy=ETH"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if got.Get("OK-ACCESS-SIGN") != want {
		t.Fatalf("signature mismatch: got %q want %q", got.Get("OK-ACCESS-SIGN"), want)
	}
}

func TestBalanceRetriesTransientErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			writeEnvelope(w, "50013", "system busy")
			return
		}
		writeEnvelope(w, "0", "", map[string]string{"availBal": "3.25"})
	}))

	balance, err := c.Balance(context.Background(), 0, "ETH")
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if balance != 3.25 {
		t.Fatalf("expected 3.25, got %v", balance)
	}
	if calls != 2 {
		t.Fatalf("expected one retry, got %d calls", calls)
	}
}

func TestBalanceStopsOnAuthFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := c.Balance(context.Background(), 0, "ETH")
	if !clierr.Is(err, clierr.CodeAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestCurrencyMatchesChain(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, "0", "",
			map[string]string{"chain": "ETH-ERC20", "minFee": "0.001", "wdTickSz": "8"},
			map[string]string{"chain": "ETH-Arbitrum One", "minFee": "0.0001", "wdTickSz": "4"},
		)
	}))

	info, err := c.Currency(context.Background(), 0, "ETH", "Arbitrum One")
	if err != nil {
		t.Fatalf("Currency failed: %v", err)
	}
	if info.Fee != 0.0001 || info.Precision != 4 {
		t.Fatalf("unexpected currency info %+v", info)
	}

	if _, err := c.Currency(context.Background(), 0, "ETH", "Solana"); err == nil {
		t.Fatal("expected missing chain error")
	}
}

func topUpHandler(t *testing.T, availBal string, withdrawCode, withdrawMsg string, gotWithdraw *map[string]string) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v5/asset/balances", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, "0", "", map[string]string{"availBal": availBal})
	})
	mux.HandleFunc("/api/v5/asset/currencies", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, "0", "",
			map[string]string{"chain": "ETH-Arbitrum One", "minFee": "0.0001", "wdTickSz": "4"})
	})
	mux.HandleFunc("/api/v5/asset/withdrawal", func(w http.ResponseWriter, r *http.Request) {
		if gotWithdraw != nil {
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode withdrawal body: %v", err)
			}
			*gotWithdraw = body
		}
		writeEnvelope(w, withdrawCode, withdrawMsg, map[string]string{"wdId": "1"})
	})
	return mux
}

func TestTopUpWithdrawsRoundedAmount(t *testing.T) {
	var gotWithdraw map[string]string
	c := newTestClient(t, topUpHandler(t, "10", "0", "", &gotWithdraw))

	amount, err := c.TopUp(context.Background(), "0x00000000000000000000000000000000000000aa", "ETH", "arbitrum", 0.5, 0.6)
	if err != nil {
		t.Fatalf("TopUp failed: %v", err)
	}
	if amount < 0.5 || amount > 0.6 {
		t.Fatalf("amount %v outside the requested range", amount)
	}
	scaled := amount * 1e4
	if math.Abs(scaled-math.Floor(scaled)) > 1e-9 {
		t.Fatalf("amount %v not rounded to 4 decimals", amount)
	}
	if gotWithdraw["dest"] != "4" {
		t.Fatalf("expected on-chain withdrawal dest 4, got %q", gotWithdraw["dest"])
	}
	if gotWithdraw["toAddr"] != "0x00000000000000000000000000000000000000aa" {
		t.Fatalf("unexpected recipient %q", gotWithdraw["toAddr"])
	}
	if gotWithdraw["chain"] != "ETH-Arbitrum One" {
		t.Fatalf("unexpected chain %q", gotWithdraw["chain"])
	}
	if gotWithdraw["fee"] != "0.0001" {
		t.Fatalf("unexpected fee %q", gotWithdraw["fee"])
	}
}

func TestTopUpInsufficientBalance(t *testing.T) {
	withdrawals := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v5/asset/balances", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, "0", "", map[string]string{"availBal": "0.01"})
	})
	mux.HandleFunc("/api/v5/asset/currencies", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, "0", "",
			map[string]string{"chain": "ETH-Arbitrum One", "minFee": "0.0001", "wdTickSz": "4"})
	})
	mux.HandleFunc("/api/v5/asset/withdrawal", func(w http.ResponseWriter, r *http.Request) {
		withdrawals++
		writeEnvelope(w, "0", "")
	})
	c := newTestClient(t, mux)

	_, err := c.TopUp(context.Background(), "0xaa", "ETH", "arbitrum", 0.5, 0.6)
	if !clierr.Is(err, clierr.CodeInsufficient) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if withdrawals != 0 {
		t.Fatal("must not withdraw with insufficient balance")
	}
}

func TestTopUpRejectedWithdrawal(t *testing.T) {
	c := newTestClient(t, topUpHandler(t, "10", "58350", "insufficient fee balance", nil))

	_, err := c.TopUp(context.Background(), "0xaa", "ETH", "arbitrum", 0.5, 0.6)
	if !clierr.Is(err, clierr.CodeUnavailable) {
		t.Fatalf("expected rejected withdrawal error, got %v", err)
	}
}

func TestTopUpUnknownNetwork(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())
	_, err := c.TopUp(context.Background(), "0xaa", "ETH", "nonsense", 0.5, 0.6)
	if !clierr.Is(err, clierr.CodeConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestFundAccumulationSweepsSubAccounts(t *testing.T) {
	var transfers []map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v5/users/subaccount/list", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, "0", "",
			map[string]string{"subAcct": "sub1"},
			map[string]string{"subAcct": "sub2"})
	})
	mux.HandleFunc("/api/v5/asset/subaccount/balances", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("subAcct") == "sub1" {
			writeEnvelope(w, "0", "", map[string]string{"availBal": "1.5"})
			return
		}
		writeEnvelope(w, "0", "", map[string]string{"availBal": "0"})
	})
	mux.HandleFunc("/api/v5/asset/transfer", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		transfers = append(transfers, body)
		writeEnvelope(w, "0", "", map[string]string{"amt": body["amt"]})
	})
	c := newTestClient(t, mux)

	if err := c.FundAccumulation(context.Background(), "ETH"); err != nil {
		t.Fatalf("FundAccumulation failed: %v", err)
	}
	if len(transfers) != 1 {
		t.Fatalf("expected one sweep transfer, got %d", len(transfers))
	}
	got := transfers[0]
	if got["subAcct"] != "sub1" || got["amt"] != "1.5" {
		t.Fatalf("unexpected transfer %v", got)
	}
	if got["from"] != "6" || got["to"] != "6" || got["type"] != "2" {
		t.Fatalf("expected funding-to-funding transfer, got %v", got)
	}
}
