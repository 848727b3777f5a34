package node

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the parsed, validated form of the line-oriented KEY=VALUE
// configuration file (spec §6).
type Config struct {
	Seed            string
	ProtocolVersion uint32
	Port            uint16
	StorePath       string
	StartDateIBD    int64
}

const (
	keySeed            = "SEED"
	keyProtocolVersion = "PROTOCOL_VERSION"
	keyPort            = "PORT"
	keyStorePath       = "STORE_PATH"
	keyStartDateIBD    = "START_DATE_IBD"
)

// LoadConfig reads and validates the configuration file at path.
// Missing or malformed values fail with ErrConfigMissingValue or
// ErrConfigInvalid (spec §6).
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return Config{}, fmt.Errorf("%w: parse: %v", ErrConfigInvalid, err)
	}
	return parseConfig(values)
}

func parseConfig(values map[string]string) (Config, error) {
	var cfg Config

	seed, ok := values[keySeed]
	if !ok || seed == "" {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigMissingValue, keySeed)
	}
	cfg.Seed = seed

	pv, ok := values[keyProtocolVersion]
	if !ok || pv == "" {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigMissingValue, keyProtocolVersion)
	}
	pvNum, err := strconv.ParseUint(pv, 10, 32)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrConfigInvalid, keyProtocolVersion, err)
	}
	cfg.ProtocolVersion = uint32(pvNum)

	port, ok := values[keyPort]
	if !ok || port == "" {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigMissingValue, keyPort)
	}
	portNum, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrConfigInvalid, keyPort, err)
	}
	cfg.Port = uint16(portNum)

	// StorePath and StartDateIBD default rather than hard-fail, since
	// spec.md §8 scenario 1 ("config happy path") only exercises SEED,
	// PROTOCOL_VERSION, PORT for the missing-key failure case.
	if sp, ok := values[keyStorePath]; ok && sp != "" {
		cfg.StorePath = sp
	} else {
		cfg.StorePath = "."
	}

	if sd, ok := values[keyStartDateIBD]; ok && sd != "" {
		sdNum, err := strconv.ParseInt(sd, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrConfigInvalid, keyStartDateIBD, err)
		}
		cfg.StartDateIBD = sdNum
	}

	return cfg, nil
}
