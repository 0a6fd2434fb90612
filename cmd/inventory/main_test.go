package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jacentio/inventory/boltstore"
	"github.com/jacentio/inventory/store"
	"github.com/jacentio/inventory/urn"
)

var (
	vpcA = urn.New("123456789012", "us-east-1", "ec2", "vpc", "vpc-aaaa")
	vpcB = urn.New("123456789012", "us-east-1", "ec2", "vpc", "vpc-bbbb")
)

// testEnv writes a bolt-backed config file and returns its path and the
// database path.
func testEnv(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "inventory.db")
	configFile := filepath.Join(dir, "inventory.toml")
	content := fmt.Sprintf("[store]\nbackend = \"bolt\"\npath = %q\n\n[log]\nlevel = \"error\"\n", dbPath)
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0600))
	return configFile, dbPath
}

// seedStore writes resources into the database and closes it so the
// command under test can open the file.
func seedStore(t *testing.T, dbPath string, fn func(ctx context.Context, s *boltstore.Store)) {
	t.Helper()
	s, err := boltstore.Open(dbPath, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()
	ctx := context.Background()
	require.NoError(t, s.Init(ctx))
	fn(ctx, s)
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInit_CreatesDatabase(t *testing.T) {
	configFile, dbPath := testEnv(t)

	_, err := execute(t, "init", "--config", configFile)
	require.NoError(t, err)
	assert.FileExists(t, dbPath)

	_, err = execute(t, "init", "--config", configFile)
	assert.NoError(t, err, "init is idempotent")
}

func TestGet(t *testing.T) {
	configFile, dbPath := testEnv(t)
	seedStore(t, dbPath, func(ctx context.Context, s *boltstore.Store) {
		require.NoError(t, s.WriteResource(ctx, vpcA, map[string]any{"VpcId": "vpc-aaaa"}))
		require.NoError(t, s.WriteSecondaryAttribute(ctx, vpcA, "vpc_enable_dns_support", map[string]any{
			"EnableDnsSupport": map[string]any{"Value": true},
		}))
	})

	out, err := execute(t, "get", vpcA.String(), "--config", configFile)
	require.NoError(t, err)

	var got resourceView
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, vpcA.String(), got.URN)
	assert.Equal(t, "vpc-aaaa", got.Payload["VpcId"])
	require.Len(t, got.SecondaryAttributes, 1)
	assert.Equal(t, "vpc_enable_dns_support", got.SecondaryAttributes[0].Type)
}

func TestGet_YAML(t *testing.T) {
	configFile, dbPath := testEnv(t)
	seedStore(t, dbPath, func(ctx context.Context, s *boltstore.Store) {
		require.NoError(t, s.WriteResource(ctx, vpcA, map[string]any{"VpcId": "vpc-aaaa"}))
	})

	out, err := execute(t, "get", vpcA.String(), "--config", configFile, "--output", "yaml")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, vpcA.String(), got["urn"])
}

func TestGet_NotFound(t *testing.T) {
	configFile, _ := testEnv(t)

	_, err := execute(t, "get", vpcA.String(), "--config", configFile)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGet_InvalidURN(t *testing.T) {
	configFile, _ := testEnv(t)

	_, err := execute(t, "get", "not-a-urn", "--config", configFile)
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	configFile, dbPath := testEnv(t)
	seedStore(t, dbPath, func(ctx context.Context, s *boltstore.Store) {
		require.NoError(t, s.WriteResource(ctx, vpcA, map[string]any{"VpcId": "vpc-aaaa"}))
		require.NoError(t, s.WriteResource(ctx, vpcB, map[string]any{"VpcId": "vpc-bbbb"}))
		require.NoError(t, s.WriteSecondaryAttribute(ctx, vpcA, "vpc_enable_dns_support", map[string]any{"v": true}))
	})

	out, err := execute(t, "query", "--config", configFile, "--service", "ec2", "--type", "vpc", "--account", "123456789012")
	require.NoError(t, err)

	var got []resourceView
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	for _, v := range got {
		assert.Empty(t, v.SecondaryAttributes)
	}

	out, err = execute(t, "query", "--config", configFile, "--urn", vpcA.String())
	require.NoError(t, err)
	got = nil
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Len(t, got[0].SecondaryAttributes, 1)
}

func TestQuery_Load(t *testing.T) {
	configFile, dbPath := testEnv(t)
	seedStore(t, dbPath, func(ctx context.Context, s *boltstore.Store) {
		require.NoError(t, s.WriteResource(ctx, vpcA, map[string]any{"VpcId": "vpc-aaaa"}))
		require.NoError(t, s.WriteSecondaryAttribute(ctx, vpcA, "vpc_enable_dns_support", map[string]any{"v": true}))
	})

	out, err := execute(t, "query", "--config", configFile, "--account", "123456789012", "--load")
	require.NoError(t, err)

	var got []resourceView
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Len(t, got[0].SecondaryAttributes, 1)
}

func TestQuery_IndexUnavailable(t *testing.T) {
	configFile, _ := testEnv(t)

	_, err := execute(t, "query", "--config", configFile, "--region", "us-east-1")
	assert.ErrorIs(t, err, store.ErrIndexUnavailable)
}

func TestQuery_EmptyResultIsList(t *testing.T) {
	configFile, _ := testEnv(t)

	out, err := execute(t, "query", "--config", configFile, "--account", "123456789012")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))
}

func TestExport(t *testing.T) {
	configFile, dbPath := testEnv(t)
	seedStore(t, dbPath, func(ctx context.Context, s *boltstore.Store) {
		require.NoError(t, s.WriteResource(ctx, vpcA, map[string]any{"VpcId": "vpc-aaaa"}))
		require.NoError(t, s.WriteSecondaryAttribute(ctx, vpcA, "vpc_enable_dns_support", map[string]any{"v": true}))
	})

	out, err := execute(t, "export", "--config", configFile)
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, vpcA.String(), rec["_urn"])
	}
}

func TestDelete(t *testing.T) {
	configFile, dbPath := testEnv(t)
	seedStore(t, dbPath, func(ctx context.Context, s *boltstore.Store) {
		require.NoError(t, s.WriteResource(ctx, vpcA, nil))
		require.NoError(t, s.WriteResource(ctx, vpcB, nil))
	})

	_, err := execute(t, "delete", vpcA.String(), "--config", configFile)
	require.NoError(t, err)

	_, err = execute(t, "get", vpcA.String(), "--config", configFile)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = execute(t, "get", vpcB.String(), "--config", configFile)
	assert.NoError(t, err)
}

func TestReconcile(t *testing.T) {
	configFile, dbPath := testEnv(t)
	seedStore(t, dbPath, func(ctx context.Context, s *boltstore.Store) {
		require.NoError(t, s.WriteResource(ctx, vpcA, nil))
		require.NoError(t, s.WriteResource(ctx, vpcB, nil))
	})

	out, err := execute(t, "reconcile", "--config", configFile,
		"--service", "ec2", "--type", "vpc", "--account", "123456789012", "--region", "us-east-1",
		"--keep", vpcA.String())
	require.NoError(t, err)

	var got reconcileResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 1, got.Deleted)

	_, err = execute(t, "get", vpcB.String(), "--config", configFile)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReconcile_RequiresScope(t *testing.T) {
	configFile, _ := testEnv(t)

	_, err := execute(t, "reconcile", "--config", configFile, "--service", "ec2", "--type", "vpc")
	assert.Error(t, err)
}

func TestUnknownOutputFormat(t *testing.T) {
	configFile, _ := testEnv(t)

	_, err := execute(t, "export", "--config", configFile, "--output", "xml")
	assert.Error(t, err)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "export", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestParseURNList(t *testing.T) {
	got, err := parseURNList(vpcA.String() + ", " + vpcB.String() + ",")
	require.NoError(t, err)
	assert.Equal(t, []urn.URN{vpcA, vpcB}, got)

	got, err = parseURNList("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseURNList("bogus")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatJSON, reconcileResult{Deleted: 2}))
	assert.JSONEq(t, `{"deleted": 2}`, buf.String())

	buf.Reset()
	require.NoError(t, render(&buf, formatYAML, reconcileResult{Deleted: 2}))
	assert.Equal(t, "deleted: 2\n", buf.String())

	assert.Error(t, render(&buf, "xml", nil))
}

func TestFlagsOverrideConfig(t *testing.T) {
	configFile, _ := testEnv(t)
	otherDB := filepath.Join(t.TempDir(), "other.db")
	seedStore(t, otherDB, func(ctx context.Context, s *boltstore.Store) {
		require.NoError(t, s.WriteResource(ctx, vpcA, nil))
	})

	_, err := execute(t, "get", vpcA.String(), "--config", configFile)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = execute(t, "get", vpcA.String(), "--config", configFile, "--db", otherDB)
	assert.NoError(t, err)
}

func TestFlagsWithoutConfigFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "inventory.db")
	seedStore(t, dbPath, func(ctx context.Context, s *boltstore.Store) {
		require.NoError(t, s.WriteResource(ctx, vpcA, nil))
	})

	_, err := execute(t, "get", vpcA.String(), "--backend", "bolt", "--db", dbPath)
	assert.NoError(t, err)
}
