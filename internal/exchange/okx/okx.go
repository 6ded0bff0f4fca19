// Package okx is a minimal signed client for the OKX funding API: enough to
// check balances, sweep sub-accounts, and withdraw native gas tokens to a
// wallet. Transient API failures follow the same retry-after-cooldown contract
// as the on-chain pipeline.
package okx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/url"
	"strconv"
	"time"

	clierr "github.com/keremd/chainrunner/internal/errors"
	"github.com/keremd/chainrunner/internal/execution"
	"github.com/keremd/chainrunner/internal/httpx"
)

const DefaultBaseURL = "https://www.okx.com"

// chainNames maps internal network names to the chain suffix OKX expects in
// its `CCY-Chain` identifiers.
var chainNames = map[string]string{
	"ethereum":  "ERC20",
	"arbitrum":  "Arbitrum One",
	"optimism":  "Optimism",
	"base":      "Base",
	"polygon":   "Polygon",
	"avalanche": "Avalanche C-Chain",
	"bsc":       "BSC",
	"fantom":    "Fantom",
}

// ChainName resolves the OKX-side chain label for a network.
func ChainName(network string) (string, bool) {
	name, ok := chainNames[network]
	return name, ok
}

// Credentials is one API key triple. Index 0 of Client.Accounts is the main
// account; the rest are auxiliary keys swept during fund accumulation.
type Credentials struct {
	Key        string `yaml:"key"`
	Secret     string `yaml:"secret"`
	Passphrase string `yaml:"passphrase"`
}

type Client struct {
	BaseURL  string
	HTTP     *httpx.Client
	Accounts []Credentials
	Logger   *slog.Logger
	Sleep    execution.Sleeper
	Rand     *rand.Rand

	// RetryCooldown spaces retries of transient balance and listing failures.
	RetryCooldown time.Duration

	// MainRecipient receives internal withdrawals from auxiliary accounts
	// during fund accumulation (an account email or phone on OKX's side).
	MainRecipient string

	now func() time.Time
}

func New(accounts []Credentials, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:       DefaultBaseURL,
		HTTP:          httpx.New(30*time.Second, 2),
		Accounts:      accounts,
		Logger:        logger,
		Sleep:         execution.SleepContext,
		Rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
		RetryCooldown: 10 * time.Second,
		now:           time.Now,
	}
}

type envelope struct {
	Code string            `json:"code"`
	Msg  string            `json:"msg"`
	Data []json.RawMessage `json:"data"`
}

// request signs and performs one API call. GET parameters travel in the query
// string; POST parameters as a JSON body. The signature covers
// timestamp + method + path(+query|body), HMAC-SHA256 with the account
// secret, base64 encoded.
func (c *Client) request(ctx context.Context, account int, method, path string, params map[string]string, out *envelope) error {
	if account < 0 || account >= len(c.Accounts) {
		return clierr.New(clierr.CodeConfig, fmt.Sprintf("okx account %d not configured", account))
	}
	creds := c.Accounts[account]

	var body []byte
	signPath := path
	if method == "GET" {
		if len(params) > 0 {
			values := url.Values{}
			for k, v := range params {
				values.Set(k, v)
			}
			signPath = path + "?" + values.Encode()
		}
	} else if len(params) > 0 {
		encoded, err := json.Marshal(params)
		if err != nil {
			return clierr.Wrap(clierr.CodeInternal, "encode okx request", err)
		}
		body = encoded
	}

	timestamp := c.now().UTC().Format("2006-01-02T15:04:05.000Z")
	payload := timestamp + method + signPath
	if body != nil {
		payload += string(body)
	}
	mac := hmac.New(sha256.New, []byte(creds.Secret))
	mac.Write([]byte(payload))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	headers := map[string]string{
		"OK-ACCESS-KEY":        creds.Key,
		"OK-ACCESS-SIGN":       signature,
		"OK-ACCESS-TIMESTAMP":  timestamp,
		"OK-ACCESS-PASSPHRASE": creds.Passphrase,
	}
	_, err := httpx.DoBodyJSON(ctx, c.HTTP, method, c.BaseURL+signPath, body, headers, out)
	return err
}

// Balance returns the available funding balance of a currency, retrying
// transient API errors on the cooldown.
func (c *Client) Balance(ctx context.Context, account int, ccy string) (float64, error) {
	for {
		var resp envelope
		err := c.request(ctx, account, "GET", "/api/v5/asset/balances", map[string]string{"ccy": ccy}, &resp)
		if err == nil && resp.Code == "0" && len(resp.Data) > 0 {
			var row struct {
				AvailBal string `json:"availBal"`
			}
			if err := json.Unmarshal(resp.Data[0], &row); err != nil {
				return 0, clierr.Wrap(clierr.CodeInternal, "decode okx balance", err)
			}
			return strconv.ParseFloat(row.AvailBal, 64)
		}
		if err != nil && clierr.Is(err, clierr.CodeAuth) {
			return 0, err
		}
		c.Logger.Warn("okx balance query failed", "ccy", ccy, "code", resp.Code, "msg", resp.Msg, "retry_in", c.RetryCooldown)
		if err := c.Sleep(ctx, c.RetryCooldown); err != nil {
			return 0, err
		}
	}
}

// CurrencyInfo holds the withdrawal parameters for one currency on one chain.
type CurrencyInfo struct {
	Fee       float64 // minimum withdrawal fee
	Precision int     // decimal places accepted in withdrawal amounts
}

// Currency fetches withdrawal fee and amount precision for ccy on the given
// OKX chain label.
func (c *Client) Currency(ctx context.Context, account int, ccy, chain string) (CurrencyInfo, error) {
	var resp envelope
	if err := c.request(ctx, account, "GET", "/api/v5/asset/currencies", map[string]string{"ccy": ccy}, &resp); err != nil {
		return CurrencyInfo{}, err
	}
	want := ccy + "-" + chain
	for _, raw := range resp.Data {
		var row struct {
			Chain   string `json:"chain"`
			MinFee  string `json:"minFee"`
			WdTickS string `json:"wdTickSz"`
		}
		if err := json.Unmarshal(raw, &row); err != nil {
			return CurrencyInfo{}, clierr.Wrap(clierr.CodeInternal, "decode okx currency", err)
		}
		if row.Chain == want {
			fee, _ := strconv.ParseFloat(row.MinFee, 64)
			precision, _ := strconv.Atoi(row.WdTickS)
			return CurrencyInfo{Fee: fee, Precision: precision}, nil
		}
	}
	return CurrencyInfo{}, clierr.New(clierr.CodeConfig, "chain "+chain+" not available for "+ccy+" on okx")
}

// Withdraw requests an on-chain withdrawal (dest 4) to address. A rejected
// request returns ok=false with the exchange's message, not an error, so the
// caller can run fund accumulation and retry.
func (c *Client) Withdraw(ctx context.Context, account int, ccy string, amount, fee float64, address, chain string) (bool, string, error) {
	var resp envelope
	err := c.request(ctx, account, "POST", "/api/v5/asset/withdrawal", map[string]string{
		"ccy":    ccy,
		"amt":    strconv.FormatFloat(amount, 'f', -1, 64),
		"dest":   "4",
		"toAddr": address,
		"fee":    strconv.FormatFloat(fee, 'f', -1, 64),
		"chain":  ccy + "-" + chain,
	}, &resp)
	if err != nil {
		return false, "", err
	}
	if resp.Code != "0" {
		return false, resp.Msg, nil
	}
	return true, "", nil
}

// withdrawInternal moves funds to the main account (dest 3, no fee).
func (c *Client) withdrawInternal(ctx context.Context, account int, ccy string, amount float64) (bool, string, error) {
	var resp envelope
	err := c.request(ctx, account, "POST", "/api/v5/asset/withdrawal", map[string]string{
		"ccy":    ccy,
		"amt":    strconv.FormatFloat(amount, 'f', -1, 64),
		"dest":   "3",
		"toAddr": c.MainRecipient,
		"fee":    "0",
	}, &resp)
	if err != nil {
		return false, "", err
	}
	if resp.Code != "0" {
		return false, resp.Msg, nil
	}
	return true, "", nil
}

// SubAccounts lists the account's sub-account names, retrying on the cooldown.
func (c *Client) SubAccounts(ctx context.Context, account int) ([]string, error) {
	for {
		var resp envelope
		err := c.request(ctx, account, "GET", "/api/v5/users/subaccount/list", nil, &resp)
		if err == nil && resp.Code == "0" {
			names := make([]string, 0, len(resp.Data))
			for _, raw := range resp.Data {
				var row struct {
					SubAcct string `json:"subAcct"`
				}
				if err := json.Unmarshal(raw, &row); err != nil {
					return nil, clierr.Wrap(clierr.CodeInternal, "decode okx subaccount", err)
				}
				names = append(names, row.SubAcct)
			}
			return names, nil
		}
		if err != nil && clierr.Is(err, clierr.CodeAuth) {
			return nil, err
		}
		c.Logger.Warn("okx subaccount listing failed", "code", resp.Code, "msg", resp.Msg, "retry_in", c.RetryCooldown)
		if err := c.Sleep(ctx, c.RetryCooldown); err != nil {
			return nil, err
		}
	}
}

// SubAccountBalance returns a sub-account's funding balance for a currency.
func (c *Client) SubAccountBalance(ctx context.Context, account int, subAcct, ccy string) (float64, error) {
	for {
		var resp envelope
		err := c.request(ctx, account, "GET", "/api/v5/asset/subaccount/balances", map[string]string{
			"subAcct": subAcct,
			"ccy":     ccy,
		}, &resp)
		if err == nil && resp.Code == "0" && len(resp.Data) > 0 {
			var row struct {
				AvailBal string `json:"availBal"`
			}
			if err := json.Unmarshal(resp.Data[0], &row); err != nil {
				return 0, clierr.Wrap(clierr.CodeInternal, "decode okx subaccount balance", err)
			}
			return strconv.ParseFloat(row.AvailBal, 64)
		}
		if err != nil && clierr.Is(err, clierr.CodeAuth) {
			return 0, err
		}
		c.Logger.Warn("okx subaccount balance query failed", "sub", subAcct, "retry_in", c.RetryCooldown)
		if err := c.Sleep(ctx, c.RetryCooldown); err != nil {
			return 0, err
		}
	}
}

// transferFromSub pulls a sub-account's funding balance into the parent
// (funding to funding, type 2).
func (c *Client) transferFromSub(ctx context.Context, account int, subAcct, ccy string, amount float64) (float64, error) {
	var resp envelope
	err := c.request(ctx, account, "POST", "/api/v5/asset/transfer", map[string]string{
		"ccy":     ccy,
		"amt":     strconv.FormatFloat(amount, 'f', -1, 64),
		"from":    "6",
		"to":      "6",
		"subAcct": subAcct,
		"type":    "2",
	}, &resp)
	if err != nil {
		return 0, err
	}
	if resp.Code != "0" || len(resp.Data) == 0 {
		return 0, clierr.New(clierr.CodeUnavailable, "okx subaccount transfer rejected: "+resp.Msg)
	}
	var row struct {
		Amt string `json:"amt"`
	}
	if err := json.Unmarshal(resp.Data[0], &row); err != nil {
		return 0, clierr.Wrap(clierr.CodeInternal, "decode okx transfer", err)
	}
	return strconv.ParseFloat(row.Amt, 64)
}

// FundAccumulation sweeps every configured account: sub-account balances move
// to their parent, and auxiliary parents forward their balance to the main
// recipient via internal withdrawal.
func (c *Client) FundAccumulation(ctx context.Context, ccy string) error {
	c.Logger.Info("accumulating funds to main okx account", "ccy", ccy)
	for i := range c.Accounts {
		subs, err := c.SubAccounts(ctx, i)
		if err != nil {
			return err
		}
		var swept float64
		for _, sub := range subs {
			balance, err := c.SubAccountBalance(ctx, i, sub, ccy)
			if err != nil {
				return err
			}
			if balance <= 0 {
				continue
			}
			moved, err := c.transferFromSub(ctx, i, sub, ccy, balance)
			if err != nil {
				return err
			}
			swept += moved
			if err := c.Sleep(ctx, time.Second); err != nil {
				return err
			}
		}
		if swept > 0 {
			c.Logger.Info("swept subaccounts", "account", i, "amount", swept, "ccy", ccy)
		}

		if i == 0 {
			continue
		}
		balance, err := c.Balance(ctx, i, ccy)
		if err != nil {
			return err
		}
		if balance <= 0 {
			continue
		}
		ok, msg, err := c.withdrawInternal(ctx, i, ccy, balance)
		if err != nil {
			return err
		}
		if !ok {
			c.Logger.Warn("internal withdrawal to main account rejected", "account", i, "msg", msg)
			continue
		}
		c.Logger.Info("forwarded balance to main account", "account", i, "amount", balance, "ccy", ccy)
	}
	return nil
}

// TopUp withdraws a random amount in [min,max], rounded to the chain's
// withdrawal precision, from the main account to address. Returns the amount
// requested. Insufficient exchange balance and rejected withdrawals come back
// as CodeInsufficient and CodeUnavailable so the caller can sweep and retry.
func (c *Client) TopUp(ctx context.Context, address, ccy, network string, min, max float64) (float64, error) {
	chain, ok := ChainName(network)
	if !ok {
		return 0, clierr.New(clierr.CodeConfig, "network "+network+" has no okx chain mapping")
	}
	balance, err := c.Balance(ctx, 0, ccy)
	if err != nil {
		return 0, err
	}
	info, err := c.Currency(ctx, 0, ccy, chain)
	if err != nil {
		return 0, err
	}
	amount := roundTo(min+c.Rand.Float64()*(max-min), info.Precision)
	if balance < amount {
		return 0, clierr.New(clierr.CodeInsufficient, "insufficient funds on okx")
	}
	accepted, msg, err := c.Withdraw(ctx, 0, ccy, amount, info.Fee, address, chain)
	if err != nil {
		return 0, err
	}
	if !accepted {
		return 0, clierr.New(clierr.CodeUnavailable, "okx withdrawal rejected: "+msg)
	}
	return amount, nil
}

func roundTo(v float64, precision int) float64 {
	scale := math.Pow10(precision)
	return math.Floor(v*scale) / scale
}
