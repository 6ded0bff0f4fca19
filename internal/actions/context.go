// Package actions holds the leaf action handlers. Each handler builds one or
// more execution requests from task parameters and the static protocol
// tables, runs them through the pipeline, and maps the terminal outcome to
// its own domain semantics.
package actions

import (
	"context"
	"log/slog"
	"math/big"
	"math/rand"

	"github.com/ethereum/go-ethereum/common"
	"github.com/keremd/chainrunner/internal/amount"
	"github.com/keremd/chainrunner/internal/chains"
	"github.com/keremd/chainrunner/internal/config"
	clierr "github.com/keremd/chainrunner/internal/errors"
	"github.com/keremd/chainrunner/internal/exchange/okx"
	"github.com/keremd/chainrunner/internal/execution"
	"github.com/keremd/chainrunner/internal/journal"
	"github.com/keremd/chainrunner/internal/wallet"
)

// Run is one wallet's run context. Owned exclusively by that wallet's flow;
// the protocol tables it reaches through are read-only.
type Run struct {
	Wallet    wallet.Wallet
	Settings  config.Settings
	Logger    *slog.Logger
	Journal   *journal.Journal
	RunID     string
	Exchange  *okx.Client
	Estimator *execution.Estimator
	Rand      *rand.Rand
	Sleep     execution.Sleeper

	// Dial is injectable for tests; nil means execution.Dial.
	Dial func(ctx context.Context, network chains.Network) (execution.Backend, error)
}

// BuildEstimator parses the configured per-network gas price overrides.
func BuildEstimator(settings config.Settings) (*execution.Estimator, error) {
	manual := make(map[string]*big.Int, len(settings.CustomGasPriceGwei))
	for network, gwei := range settings.CustomGasPriceGwei {
		price, err := amount.ParseGwei(gwei)
		if err != nil {
			return nil, clierr.Wrap(clierr.CodeConfig, "gas price override for "+network, err)
		}
		manual[network] = price
	}
	return &execution.Estimator{ManualGasPrice: manual}, nil
}

func (r *Run) dial(ctx context.Context, name string) (chains.Network, execution.Backend, error) {
	network, ok := chains.Get(name)
	if !ok {
		return chains.Network{}, nil, clierr.New(clierr.CodeConfig, "unknown network "+name)
	}
	dial := r.Dial
	if dial == nil {
		dial = execution.Dial
	}
	backend, err := dial(ctx, network)
	if err != nil {
		return chains.Network{}, nil, err
	}
	return network, backend, nil
}

// pipeline builds the execution pipeline for one dialed backend, wired to the
// run's journal.
func (r *Run) pipeline(backend execution.Backend) *execution.Pipeline {
	policy := execution.RetryPolicy{
		EstimateCooldown: r.Settings.EstimateCooldown,
		SubmitCooldown:   r.Settings.SubmitCooldown,
		ConfirmTimeout:   r.Settings.TxTimeout,
		PollInterval:     r.Settings.PollInterval,
	}
	return &execution.Pipeline{
		Backend:   backend,
		Signer:    r.Wallet.Signer,
		Estimator: r.Estimator,
		Policy:    policy,
		Logger:    r.Logger,
		Sleep:     r.Sleep,
		OnResult:  r.record,
	}
}

func (r *Run) record(req execution.Request, res execution.Result) {
	if r.Journal == nil || r.RunID == "" {
		return
	}
	outcome := "success"
	switch {
	case res.Reverted:
		outcome = "reverted"
	case res.Skipped:
		outcome = "skipped"
	}
	err := r.Journal.RecordAttempt(r.RunID, journal.Attempt{
		Network:  req.Network.Name,
		Label:    req.Label,
		Outcome:  outcome,
		TxHash:   res.TxHash,
		Reason:   res.Reason,
		Attempts: res.Attempts,
	})
	if err != nil {
		r.Logger.Warn("journal write failed", "reason", err)
	}
}

// resultErr maps a terminal pipeline result to the handler's error contract.
func resultErr(res execution.Result, label string) error {
	switch {
	case res.Success:
		return nil
	case res.Skipped:
		return clierr.New(clierr.CodeInsufficient, label+": "+res.Reason)
	case res.Reverted:
		return clierr.New(clierr.CodeReverted, label+" reverted in tx "+res.TxHash)
	default:
		return clierr.New(clierr.CodeInternal, label+" finished without a terminal outcome")
	}
}

func addressBytes(addr common.Address) []byte {
	return addr.Bytes()
}
