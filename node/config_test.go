package node

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.env")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigHappyPath(t *testing.T) {
	path := writeConfigFile(t, "SEED=testnet-seed.bitcoin.jonasschnelli.ch\nPROTOCOL_VERSION=70015\nPORT=18333\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "testnet-seed.bitcoin.jonasschnelli.ch", cfg.Seed)
	require.Equal(t, uint32(70015), cfg.ProtocolVersion)
	require.Equal(t, uint16(18333), cfg.Port)
	require.Equal(t, ".", cfg.StorePath)
}

func TestLoadConfigMissingValueFails(t *testing.T) {
	path := writeConfigFile(t, "PROTOCOL_VERSION=70015\nPORT=18333\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrConfigMissingValue)
}

func TestLoadConfigInvalidPortFails(t *testing.T) {
	path := writeConfigFile(t, "SEED=seed.example\nPROTOCOL_VERSION=70015\nPORT=not-a-number\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrConfigInvalid)
}

func TestLoadConfigOptionalFields(t *testing.T) {
	path := writeConfigFile(t, "SEED=seed.example\nPROTOCOL_VERSION=70015\nPORT=18333\nSTORE_PATH=/var/spvnode\nSTART_DATE_IBD=1600000000\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/var/spvnode", cfg.StorePath)
	require.Equal(t, int64(1600000000), cfg.StartDateIBD)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.env"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrConfigInvalid)
}
