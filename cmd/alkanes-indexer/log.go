// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/BoostyLabs/alkanes/alkanes/fuel"
	"github.com/BoostyLabs/alkanes/alkanes/message"
	"github.com/BoostyLabs/alkanes/alkanes/trace"
	"github.com/BoostyLabs/alkanes/protorune/indexer"
)

// logWriter duplicates log output to stdout and the rotated log file.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}

	return len(p), nil
}

var (
	// backendLog is the logging backend used to create all subsystem loggers.
	backendLog = btclog.NewBackend(logWriter{})

	// logRotator is nil until initLogRotator is called.
	logRotator *rotator.Rotator

	log     = backendLog.Logger("ALKN")
	fuelLog = backendLog.Logger("FUEL")
	ixdrLog = backendLog.Logger("IXDR")
	msgsLog = backendLog.Logger("MSGS")
	trceLog = backendLog.Logger("TRCE")
)

func init() {
	fuel.UseLogger(fuelLog)
	indexer.UseLogger(ixdrLog)
	message.UseLogger(msgsLog)
	trace.UseLogger(trceLog)
}

// subsystemLoggers maps each subsystem identifier to its logger.
var subsystemLoggers = map[string]btclog.Logger{
	"ALKN": log,
	"FUEL": fuelLog,
	"IXDR": ixdrLog,
	"MSGS": msgsLog,
	"TRCE": trceLog,
}

// initLogRotator initializes the rotating log file. It must be called before
// the package-global log rotator variables are used.
func initLogRotator(logFile string) error {
	if err := os.MkdirAll(filepath.Dir(logFile), 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}

	if logRotator != nil {
		logRotator.Close()
	}
	logRotator = r

	return nil
}

// supportedSubsystems returns sorted subsystem identifiers.
func supportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)

	return subsystems
}

// parseAndSetDebugLevels applies either a global level or a list of
// SUBSYS=level pairs separated by commas.
func parseAndSetDebugLevels(debugLevel string) error {
	if !strings.Contains(debugLevel, "=") && !strings.Contains(debugLevel, ",") {
		level, ok := btclog.LevelFromString(debugLevel)
		if !ok {
			return fmt.Errorf("the specified debug level [%v] is invalid", debugLevel)
		}

		for _, logger := range subsystemLoggers {
			logger.SetLevel(level)
		}

		return nil
	}

	for _, pair := range strings.Split(debugLevel, ",") {
		fields := strings.Split(pair, "=")
		if len(fields) != 2 {
			return fmt.Errorf("the specified debug level contains an invalid subsystem/level pair [%v]", pair)
		}

		logger, ok := subsystemLoggers[fields[0]]
		if !ok {
			return fmt.Errorf("the specified subsystem [%v] is invalid, supported subsystems %v",
				fields[0], supportedSubsystems())
		}

		level, ok := btclog.LevelFromString(fields[1])
		if !ok {
			return fmt.Errorf("the specified debug level [%v] is invalid", fields[1])
		}

		logger.SetLevel(level)
	}

	return nil
}
