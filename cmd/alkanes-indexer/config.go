// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/jessevdk/go-flags"

	"github.com/BoostyLabs/alkanes/bitcoin/ord/runes"
	"github.com/BoostyLabs/alkanes/protorune/indexer"
	"github.com/BoostyLabs/alkanes/storage"
)

const (
	defaultConfigFilename = "alkanes.conf"
	defaultLogFilename    = "alkanes.log"
	defaultLogDirname     = "logs"
	defaultDataDirname    = "data"

	backendLevelDB = "leveldb"
	backendSQLite  = "sqlite"
)

var (
	defaultHomeDir    = btcutil.AppDataDir("alkanes", false)
	defaultConfigFile = filepath.Join(defaultHomeDir, defaultConfigFilename)
)

// netParams defines network parameters together with the runes activation height.
type netParams struct {
	*chaincfg.Params
	firstRuneHeight uint64
}

var (
	mainNetParams       = netParams{Params: &chaincfg.MainNetParams, firstRuneHeight: runes.ProtocolBlockStart}
	testNet3Params      = netParams{Params: &chaincfg.TestNet3Params, firstRuneHeight: 2_520_000}
	regressionNetParams = netParams{Params: &chaincfg.RegressionNetParams}
	sigNetParams        = netParams{Params: &chaincfg.SigNetParams}
)

// config defines global options shared by all commands.
type config struct {
	ConfigFile     string `short:"C" long:"configfile" description:"Path to configuration file"`
	HomeDir        string `short:"A" long:"appdata" description:"Application data directory"`
	DataDir        string `short:"b" long:"datadir" description:"Directory to store the index"`
	LogDir         string `long:"logdir" description:"Directory to log output"`
	Backend        string `long:"backend" description:"Storage backend of the index" choice:"leveldb" choice:"sqlite" default:"leveldb"`
	DebugLevel     string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems" default:"info"`
	TestNet3       bool   `long:"testnet" description:"Use the test network"`
	RegressionTest bool   `long:"regtest" description:"Use the regression test network"`
	SigNet         bool   `long:"signet" description:"Use the signet test network"`

	Indexer indexer.Config `group:"Indexer" namespace:"indexer"`

	params netParams
	parser *flags.Parser
}

// preConfig is parsed before the main config to find the config file.
type preConfig struct {
	ConfigFile string `short:"C" long:"configfile"`
}

// newParser returns parser of the global options with all commands registered.
func newParser(cfg *config) (*flags.Parser, error) {
	parser := flags.NewParser(cfg, flags.Default)
	cfg.parser = parser

	commands := []struct {
		name, short, long string
		data              interface{}
	}{
		{"index", "Index blocks", "Index raw blocks read from files, in the given order", &indexCommand{cfg: cfg}},
		{"trace", "Show execution traces", "Render trace of the message at the outpoint or list traces of the height", &traceCommand{cfg: cfg}},
		{"balance", "Show outpoint balances", "Print runes and protocol balances held by the outpoint", &balanceCommand{cfg: cfg}},
		{"deploy", "Build contract deployment", "Print commitment address of the binary and build the reveal transaction", &deployCommand{cfg: cfg}},
	}
	for _, command := range commands {
		if _, err := parser.AddCommand(command.name, command.short, command.long, command.data); err != nil {
			return nil, err
		}
	}

	return parser, nil
}

// loadConfig fills config from the config file and applies the command line on top of it.
// It returns the parser ready to execute the command.
func loadConfig(args []string) (*config, *flags.Parser, error) {
	cfg := &config{
		ConfigFile: defaultConfigFile,
		HomeDir:    defaultHomeDir,
		Indexer:    indexer.DefaultConfig(),
	}

	pre := preConfig{ConfigFile: defaultConfigFile}
	preParser := flags.NewParser(&pre, flags.IgnoreUnknown)
	if _, err := preParser.ParseArgs(args); err != nil {
		return nil, nil, err
	}

	parser, err := newParser(cfg)
	if err != nil {
		return nil, nil, err
	}

	err = flags.NewIniParser(parser).ParseFile(pre.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) || pre.ConfigFile != defaultConfigFile {
			return nil, nil, fmt.Errorf("failed to parse config file %q: %w", pre.ConfigFile, err)
		}
	}

	return cfg, parser, nil
}

// validate checks options after parsing and derives the network dependent values.
// Commands call it before doing any work.
func (cfg *config) validate() error {
	numNets := 0
	cfg.params = mainNetParams
	if cfg.TestNet3 {
		numNets++
		cfg.params = testNet3Params
	}
	if cfg.RegressionTest {
		numNets++
		cfg.params = regressionNetParams
	}
	if cfg.SigNet {
		numNets++
		cfg.params = sigNetParams
	}
	if numNets > 1 {
		return errors.New("the testnet, regtest and signet params can't be used together")
	}

	if option := cfg.parser.FindOptionByLongName("indexer.first-rune-height"); option == nil || !option.IsSet() {
		cfg.Indexer.FirstRuneHeight = cfg.params.firstRuneHeight
	}

	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(cfg.HomeDir, defaultDataDirname)
	}
	cfg.DataDir = filepath.Join(cfg.DataDir, cfg.params.Name)

	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.HomeDir, defaultLogDirname)
	}
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.params.Name)

	if err := initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename)); err != nil {
		return err
	}

	return parseAndSetDebugLevels(cfg.DebugLevel)
}

// openBackend opens the configured storage backend under the data directory.
func (cfg *config) openBackend() (storage.Backend, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	switch cfg.Backend {
	case backendSQLite:
		return storage.OpenSQLite(filepath.Join(cfg.DataDir, "index.sqlite"))
	case backendLevelDB:
		return storage.OpenLevelDB(filepath.Join(cfg.DataDir, "index.leveldb"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
