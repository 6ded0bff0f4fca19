package execution

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	clierr "github.com/keremd/chainrunner/internal/errors"
	"github.com/keremd/chainrunner/internal/execution/signer"
)

// RetryPolicy bounds the pipeline's waits. MaxAttempts of zero means retry
// forever, which is the production default; tests set a ceiling.
type RetryPolicy struct {
	EstimateCooldown time.Duration
	SubmitCooldown   time.Duration
	ConfirmTimeout   time.Duration
	PollInterval     time.Duration
	MaxAttempts      int
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		EstimateCooldown: 10 * time.Second,
		SubmitCooldown:   30 * time.Second,
		ConfirmTimeout:   300 * time.Second,
		PollInterval:     2 * time.Second,
	}
}

// Sleeper suspends the calling flow. Injectable so tests run without
// wall-clock waits.
type Sleeper func(ctx context.Context, d time.Duration) error

func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Pipeline executes one Request through estimate, affordability gate, submit,
// and confirmation. Transient failures (estimation errors, node rejections,
// confirmation timeouts) are absorbed here with cooldowns and never surface
// to the caller; only a gate rejection or a classified receipt terminates an
// invocation.
type Pipeline struct {
	Backend   Backend
	Signer    signer.Signer
	Estimator *Estimator
	Policy    RetryPolicy
	Logger    *slog.Logger
	Sleep     Sleeper
	// OnResult observes every terminal outcome, e.g. for the run journal.
	OnResult func(Request, Result)
}

// Execute runs the request until a terminal outcome. Result.Success is the
// only signal callers should branch on; an error is returned only for fatal
// conditions (bad request, cancelled context, exhausted test retry budget).
func (p *Pipeline) Execute(ctx context.Context, req Request) (Result, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("network", req.Network.Name, "op", req.Label)

	var data []byte
	if req.Method != "" {
		packed, err := req.ABI.Pack(req.Method, req.Args...)
		if err != nil {
			return Result{}, clierr.Wrap(clierr.CodeConfig, "pack calldata for "+req.Method, err)
		}
		data = packed
	}
	value := req.Value
	if value == nil {
		value = big.NewInt(0)
	}
	from := p.Signer.Address()
	chainID := big.NewInt(req.Network.ChainID)

	attempts := 0
	for {
		attempts++
		if p.Policy.MaxAttempts > 0 && attempts > p.Policy.MaxAttempts {
			return Result{Attempts: attempts - 1}, clierr.New(clierr.CodeUnavailable, "retry budget exhausted for "+req.Label)
		}

		// Quote immediately before gating so the gate and the submission
		// share one view of current conditions.
		quote, err := p.Estimator.Quote(ctx, p.Backend, req, data, from)
		if err != nil {
			if ctx.Err() != nil {
				return Result{Attempts: attempts}, ctx.Err()
			}
			logger.Warn("fee estimation failed", "reason", err, "retry_in", p.Policy.EstimateCooldown)
			if err := sleep(ctx, p.Policy.EstimateCooldown); err != nil {
				return Result{Attempts: attempts}, err
			}
			continue
		}

		balance, err := p.Backend.BalanceAt(ctx, from, nil)
		if err != nil {
			if ctx.Err() != nil {
				return Result{Attempts: attempts}, ctx.Err()
			}
			logger.Warn("balance query failed", "reason", err, "retry_in", p.Policy.EstimateCooldown)
			if err := sleep(ctx, p.Policy.EstimateCooldown); err != nil {
				return Result{Attempts: attempts}, err
			}
			continue
		}

		if !CanAfford(balance, quote, value) {
			logger.Warn("worst-case cost exceeds balance",
				"cost_wei", quote.Cost, "value_wei", value, "balance_wei", balance)
			res := Result{Skipped: true, Reason: "insufficient native balance", Attempts: attempts}
			p.report(req, res)
			return res, nil
		}

		signed, submitErr := p.submit(ctx, req, quote, value, data, chainID)
		if submitErr != nil {
			if ctx.Err() != nil {
				return Result{Attempts: attempts}, ctx.Err()
			}
			logger.Warn("submission failed", "reason", submitErr, "retry_in", p.Policy.SubmitCooldown)
			if err := sleep(ctx, p.Policy.SubmitCooldown); err != nil {
				return Result{Attempts: attempts}, err
			}
			continue
		}
		logger.Info("transaction sent", "tx", signed.Hash().Hex())

		receipt, err := p.awaitReceipt(ctx, signed.Hash())
		if err != nil {
			return Result{Attempts: attempts}, err
		}
		if receipt == nil {
			// Bounded wait expired. Restart from estimation; the original
			// submission may still land later, which can duplicate the
			// operation. Accepted risk, not corrected here.
			logger.Warn("confirmation wait expired", "tx", signed.Hash().Hex(),
				"limit", p.Policy.ConfirmTimeout)
			continue
		}

		res := Result{TxHash: signed.Hash().Hex(), Attempts: attempts}
		if Classify(receipt) {
			logger.Info("transaction confirmed", "tx", res.TxHash)
			res.Success = true
		} else {
			logger.Error("transaction reverted on-chain", "tx", res.TxHash)
			res.Reverted = true
			res.Reason = "reverted on-chain"
		}
		p.report(req, res)
		return res, nil
	}
}

// Classify reads a finalized receipt's status flag. Pure; re-inspecting the
// same receipt always yields the same verdict.
func Classify(receipt *types.Receipt) bool {
	return receipt != nil && receipt.Status == types.ReceiptStatusSuccessful
}

func (p *Pipeline) submit(ctx context.Context, req Request, quote FeeQuote, value *big.Int, data []byte, chainID *big.Int) (*types.Transaction, error) {
	nonce, err := p.Backend.PendingNonceAt(ctx, p.Signer.Address())
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeSubmission, "fetch nonce", err)
	}
	to := req.Contract
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: quote.GasPrice,
		Gas:      quote.GasLimit,
		To:       &to,
		Value:    value,
		Data:     data,
	})
	signed, err := p.Signer.SignTx(chainID, tx)
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeSubmission, "sign transaction", err)
	}
	if err := p.Backend.SendTransaction(ctx, signed); err != nil {
		return nil, clierr.Wrap(clierr.CodeSubmission, "broadcast transaction", err)
	}
	return signed, nil
}

// awaitReceipt races inclusion against the confirmation timeout. A nil
// receipt with nil error means the timeout won.
func (p *Pipeline) awaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, p.Policy.ConfirmTimeout)
	defer cancel()
	ticker := time.NewTicker(p.Policy.PollInterval)
	defer ticker.Stop()
	for {
		receipt, err := p.Backend.TransactionReceipt(waitCtx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		// Transient polling failures are ignored until the timeout.
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, nil
		case <-ticker.C:
		}
	}
}

func (p *Pipeline) report(req Request, res Result) {
	if p.OnResult != nil {
		p.OnResult(req, res)
	}
}
