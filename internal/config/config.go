package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/keremd/chainrunner/internal/exchange/okx"
	"gopkg.in/yaml.v3"
)

// GlobalFlags are the persistent CLI flags, applied last in layering.
type GlobalFlags struct {
	ConfigPath string
	TasksPath  string
	KeysPath   string
	Addresses  string
	Yes        bool // auto-confirm retry prompts
	AutoAbort  bool // auto-decline retry prompts
	TxTimeout  string
	LogLevel   string
}

// Settings is the fully resolved runtime configuration. Defaults come first,
// then the YAML file, then environment variables, then flags.
type Settings struct {
	TasksPath     string
	KeysPath      string
	AddressesPath string
	LogLevel      string

	TxTimeout        time.Duration
	EstimateCooldown time.Duration
	SubmitCooldown   time.Duration
	RecheckCooldown  time.Duration
	PollInterval     time.Duration

	TaskDelayMin   time.Duration
	TaskDelayMax   time.Duration
	WalletDelayMin time.Duration
	WalletDelayMax time.Duration

	// StargateSlippagePct is a human percentage ("0.5"), kept as a decimal
	// string so amount math stays fixed-point safe.
	StargateSlippagePct string

	// L1GasPriceCapGwei blocks L1-dependent operations while Ethereum gas is
	// above the cap.
	L1GasPriceCapGwei   string
	L1DependentNetworks []string

	// CustomGasPriceGwei overrides the quoted gas price per network.
	CustomGasPriceGwei map[string]string

	// WithdrawAddresses maps a wallet address to its exchange deposit address.
	WithdrawAddresses map[string]string

	JournalPath     string
	JournalLockPath string

	OKXAccounts      []okx.Credentials
	OKXMainRecipient string

	Yes       bool
	AutoAbort bool
}

type fileConfig struct {
	Tasks     string `yaml:"tasks"`
	Keys      string `yaml:"keys"`
	Addresses string `yaml:"addresses"`
	LogLevel  string `yaml:"log_level"`
	Timeouts  struct {
		Transaction  string `yaml:"transaction"`
		Estimate     string `yaml:"estimate_cooldown"`
		Submit       string `yaml:"submit_cooldown"`
		Recheck      string `yaml:"recheck_cooldown"`
		PollInterval string `yaml:"poll_interval"`
	} `yaml:"timeouts"`
	Delays struct {
		TaskMin   string `yaml:"task_min"`
		TaskMax   string `yaml:"task_max"`
		WalletMin string `yaml:"wallet_min"`
		WalletMax string `yaml:"wallet_max"`
	} `yaml:"delays"`
	Stargate struct {
		SlippagePct string `yaml:"slippage_pct"`
	} `yaml:"stargate"`
	L1Gas struct {
		CapGwei  string   `yaml:"cap_gwei"`
		Networks []string `yaml:"networks"`
	} `yaml:"l1_gas"`
	GasPriceGwei map[string]string `yaml:"gas_price_gwei"`
	Withdraw     struct {
		Addresses map[string]string `yaml:"addresses"`
	} `yaml:"withdraw"`
	Journal struct {
		Path     string `yaml:"path"`
		LockPath string `yaml:"lock_path"`
	} `yaml:"journal"`
	OKX struct {
		Accounts      []okx.Credentials `yaml:"accounts"`
		MainRecipient string            `yaml:"main_recipient"`
	} `yaml:"okx"`
}

func Load(flags GlobalFlags) (Settings, error) {
	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}
	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	applyEnv(&settings)

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.TxTimeout <= 0 {
		settings.TxTimeout = 300 * time.Second
	}
	if settings.TaskDelayMax < settings.TaskDelayMin {
		return Settings{}, fmt.Errorf("task delay max below min")
	}
	if settings.WalletDelayMax < settings.WalletDelayMin {
		return Settings{}, fmt.Errorf("wallet delay max below min")
	}
	return settings, nil
}

func defaultSettings() (Settings, error) {
	journalPath, lockPath, err := defaultJournalPaths()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		LogLevel:         "info",
		TxTimeout:        300 * time.Second,
		EstimateCooldown: 10 * time.Second,
		SubmitCooldown:   30 * time.Second,
		RecheckCooldown:  60 * time.Second,
		PollInterval:     2 * time.Second,
		TaskDelayMin:     10 * time.Second,
		TaskDelayMax:     20 * time.Second,
		WalletDelayMin:   30 * time.Second,
		WalletDelayMax:   60 * time.Second,

		StargateSlippagePct: "0.5",
		L1GasPriceCapGwei:   "30",
		L1DependentNetworks: []string{"arbitrum", "optimism", "base"},
		CustomGasPriceGwei:  map[string]string{"bsc": "1.1"},
		WithdrawAddresses:   map[string]string{},

		JournalPath:     journalPath,
		JournalLockPath: lockPath,
	}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "chainrunner", "config.yaml"), nil
}

func defaultJournalPaths() (string, string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "chainrunner")
	return filepath.Join(dir, "journal.db"), filepath.Join(dir, "journal.lock"), nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Tasks != "" {
		settings.TasksPath = cfg.Tasks
	}
	if cfg.Keys != "" {
		settings.KeysPath = cfg.Keys
	}
	if cfg.Addresses != "" {
		settings.AddressesPath = cfg.Addresses
	}
	if cfg.LogLevel != "" {
		settings.LogLevel = cfg.LogLevel
	}

	durations := []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{cfg.Timeouts.Transaction, "timeouts.transaction", &settings.TxTimeout},
		{cfg.Timeouts.Estimate, "timeouts.estimate_cooldown", &settings.EstimateCooldown},
		{cfg.Timeouts.Submit, "timeouts.submit_cooldown", &settings.SubmitCooldown},
		{cfg.Timeouts.Recheck, "timeouts.recheck_cooldown", &settings.RecheckCooldown},
		{cfg.Timeouts.PollInterval, "timeouts.poll_interval", &settings.PollInterval},
		{cfg.Delays.TaskMin, "delays.task_min", &settings.TaskDelayMin},
		{cfg.Delays.TaskMax, "delays.task_max", &settings.TaskDelayMax},
		{cfg.Delays.WalletMin, "delays.wallet_min", &settings.WalletDelayMin},
		{cfg.Delays.WalletMax, "delays.wallet_max", &settings.WalletDelayMax},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	if cfg.Stargate.SlippagePct != "" {
		settings.StargateSlippagePct = cfg.Stargate.SlippagePct
	}
	if cfg.L1Gas.CapGwei != "" {
		settings.L1GasPriceCapGwei = cfg.L1Gas.CapGwei
	}
	if len(cfg.L1Gas.Networks) > 0 {
		settings.L1DependentNetworks = cfg.L1Gas.Networks
	}
	for network, price := range cfg.GasPriceGwei {
		settings.CustomGasPriceGwei[network] = price
	}
	for wallet, addr := range cfg.Withdraw.Addresses {
		settings.WithdrawAddresses[strings.ToLower(wallet)] = addr
	}
	if cfg.Journal.Path != "" {
		settings.JournalPath = cfg.Journal.Path
	}
	if cfg.Journal.LockPath != "" {
		settings.JournalLockPath = cfg.Journal.LockPath
	}
	if len(cfg.OKX.Accounts) > 0 {
		settings.OKXAccounts = cfg.OKX.Accounts
	}
	if cfg.OKX.MainRecipient != "" {
		settings.OKXMainRecipient = cfg.OKX.MainRecipient
	}
	return nil
}

func applyEnv(settings *Settings) {
	if v := os.Getenv("CHAINRUNNER_TASKS"); v != "" {
		settings.TasksPath = v
	}
	if v := os.Getenv("CHAINRUNNER_KEYS"); v != "" {
		settings.KeysPath = v
	}
	if v := os.Getenv("CHAINRUNNER_ADDRESSES"); v != "" {
		settings.AddressesPath = v
	}
	if v := os.Getenv("CHAINRUNNER_LOG_LEVEL"); v != "" {
		settings.LogLevel = v
	}
	if v := os.Getenv("CHAINRUNNER_TX_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.TxTimeout = d
		}
	}
	if v := os.Getenv("CHAINRUNNER_JOURNAL_PATH"); v != "" {
		settings.JournalPath = v
	}
	if v := os.Getenv("CHAINRUNNER_JOURNAL_LOCK_PATH"); v != "" {
		settings.JournalLockPath = v
	}
	if v := os.Getenv("CHAINRUNNER_YES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.Yes = b
		}
	}
	// A single key configured through the environment becomes the main account.
	key := os.Getenv("CHAINRUNNER_OKX_KEY")
	secret := os.Getenv("CHAINRUNNER_OKX_SECRET")
	passphrase := os.Getenv("CHAINRUNNER_OKX_PASSPHRASE")
	if key != "" && secret != "" && passphrase != "" {
		creds := okx.Credentials{Key: key, Secret: secret, Passphrase: passphrase}
		if len(settings.OKXAccounts) == 0 {
			settings.OKXAccounts = []okx.Credentials{creds}
		} else {
			settings.OKXAccounts[0] = creds
		}
	}
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.Yes && flags.AutoAbort {
		return fmt.Errorf("cannot use --yes and --auto-abort together")
	}
	if flags.TasksPath != "" {
		settings.TasksPath = flags.TasksPath
	}
	if flags.KeysPath != "" {
		settings.KeysPath = flags.KeysPath
	}
	if flags.Addresses != "" {
		settings.AddressesPath = flags.Addresses
	}
	if flags.LogLevel != "" {
		settings.LogLevel = flags.LogLevel
	}
	if flags.TxTimeout != "" {
		d, err := time.ParseDuration(flags.TxTimeout)
		if err != nil {
			return fmt.Errorf("parse --tx-timeout: %w", err)
		}
		settings.TxTimeout = d
	}
	if flags.Yes {
		settings.Yes = true
	}
	if flags.AutoAbort {
		settings.AutoAbort = true
	}
	return nil
}
