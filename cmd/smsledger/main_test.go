package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/storage"
	"github.com/Veraticus/smsledger/internal/telemetry"
	"github.com/Veraticus/smsledger/internal/testutil/messages"
)

type harness struct {
	t      *testing.T
	dir    string
	dbPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("SMSLEDGER_LOCATION", "UTC")
	return &harness{t: t, dir: dir, dbPath: filepath.Join(dir, "test.db")}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	viper.Reset()
	cfgFile = ""

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", h.dbPath, "--log-level", "error"}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) withIdentity() {
	h.t.Setenv("SMSLEDGER_BACKEND_USER_ID", "user-1")
	h.t.Setenv("SMSLEDGER_BACKEND_ACCOUNT_ID", "acct-1")
}

func (h *harness) writeInbox(lines ...string) string {
	h.t.Helper()
	path := filepath.Join(h.dir, "inbox.jsonl")
	require.NoError(h.t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func inboxLine(t *testing.T, id string, f messages.Fixture) string {
	t.Helper()
	data, err := json.Marshal(messages.Message(id, f))
	require.NoError(t, err)
	return string(data)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "smsledger dev")
}

func TestInvalidLogLevel(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("--log-level", "loud", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestParseJSON(t *testing.T) {
	h := newHarness(t)
	f := messages.FixtureAmazonDebit

	out, err := h.run("parse", "--json", "--sender", f.Sender, f.Body)
	require.NoError(t, err)

	var got resultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Relevant)
	assert.Empty(t, got.Error)
	require.NotNil(t, got.Transaction)
	assert.Equal(t, model.TransactionDebit, got.Transaction.Type)
	require.NotNil(t, got.Transaction.Amount)
	assert.Equal(t, "500", got.Transaction.Amount.String())
	assert.NotEmpty(t, got.MessageID)
}

func TestParseIrrelevant(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("parse", "--json", "--sender", "PROMO", "Get 50% off today!")
	require.NoError(t, err)

	var got resultJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.Relevant)
	assert.Nil(t, got.Transaction)
	assert.NotEmpty(t, got.Error)
}

func TestParseRejectsBadReceiptTime(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("parse", "--received", "yesterday", "Rs.10 debited")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--received")
}

func TestScanStatistics(t *testing.T) {
	h := newHarness(t)
	path := h.writeInbox(
		inboxLine(t, "m1", messages.FixtureAmazonDebit),
		inboxLine(t, "m2", messages.FixturePromo),
		"# comment lines are skipped",
		inboxLine(t, "m3", messages.FixtureCredit),
	)

	out, err := h.run("scan", "--json", "--quiet", path)
	require.NoError(t, err)

	var report struct {
		Results    []resultJSON            `json:"results"`
		Statistics model.ParsingStatistics `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Empty(t, report.Results)
	assert.Equal(t, 3, report.Statistics.Total)
	assert.Equal(t, 2, report.Statistics.Relevant)
	assert.Equal(t, 2, report.Statistics.Successful)
}

func TestScanMissingFile(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("scan", filepath.Join(h.dir, "nope.jsonl"))
	require.Error(t, err)
}

func TestSettingsCommands(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("settings", "set", "popup_duration", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings saved")

	_, err = h.run("settings", "trust", "add", "VM-SBIINB", "vm-sbiinb", "MPESA")
	require.NoError(t, err)
	_, err = h.run("settings", "trust", "remove", "mpesa")
	require.NoError(t, err)
	_, err = h.run("settings", "category", "set", "Amazon", "cat-shopping")
	require.NoError(t, err)

	s := h.storedSettings()
	assert.Equal(t, 10, s.PopupDurationSeconds)
	assert.Equal(t, []string{"VM-SBIINB"}, s.TrustedSenders)
	assert.Equal(t, map[string]string{"Amazon": "cat-shopping"}, s.AutoCategories)

	_, err = h.run("settings", "category", "remove", "walmart")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSettingsSetRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown key", []string{"colour", "blue"}, common.ErrInvalidInput},
		{"not a number", []string{"minimum_amount", "lots"}, common.ErrInvalidInput},
		{"out of range", []string{"popup_duration", "1"}, model.ErrInvalidSettings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.run(append([]string{"settings", "set"}, tt.args...)...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSettingsEnable(t *testing.T) {
	t.Run("requires identity", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.run("settings", "enable")
		require.ErrorIs(t, err, common.ErrMissingConfig)
		assert.False(t, h.storedSettings().Enabled)
	})

	t.Run("denied message access", func(t *testing.T) {
		h := newHarness(t)
		h.withIdentity()
		t.Setenv("SMSLEDGER_PLATFORM_SMS_PERMISSION", "denied")

		_, err := h.run("settings", "enable")
		require.ErrorIs(t, err, common.ErrPermissionDenied)
		assert.False(t, h.storedSettings().Enabled)
	})

	t.Run("granted", func(t *testing.T) {
		h := newHarness(t)
		h.withIdentity()

		_, err := h.run("settings", "enable")
		require.NoError(t, err)
		assert.True(t, h.storedSettings().Enabled)

		_, err = h.run("settings", "disable")
		require.NoError(t, err)
		assert.False(t, h.storedSettings().Enabled)
	})

	t.Run("access revoked before watch", func(t *testing.T) {
		h := newHarness(t)
		h.withIdentity()
		_, err := h.run("settings", "enable")
		require.NoError(t, err)
		require.True(t, h.storedSettings().Enabled)

		t.Setenv("SMSLEDGER_PLATFORM_SMS_PERMISSION", "denied")
		path := h.writeInbox(inboxLine(t, "m1", messages.FixtureAmazonDebit))

		_, err = h.run("watch", "--no-tui", "--exit-when-done", "--input", path)
		require.ErrorIs(t, err, common.ErrPermissionDenied)
		assert.False(t, h.storedSettings().Enabled)
	})
}

func TestPermissionsCommands(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("permissions", "request", "sms")
	require.NoError(t, err)
	assert.Contains(t, out, "sms permission granted")

	out, err = h.run("permissions", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "granted")

	_, err = h.run("permissions", "request", "camera")
	require.Error(t, err)
}

func TestMigrateStatus(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations pending")

	out, err = h.run("migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated database")

	out, err = h.run("migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")
}

func TestWatchConsumesInbox(t *testing.T) {
	h := newHarness(t)
	h.withIdentity()
	_, err := h.run("settings", "enable")
	require.NoError(t, err)

	path := h.writeInbox(
		inboxLine(t, "m1", messages.FixtureAmazonDebit),
		inboxLine(t, "m2", messages.FixturePromo),
		inboxLine(t, "m1", messages.FixtureAmazonDebit),
	)

	_, err = h.run("watch", "--no-tui", "--auto-confirm", "--exit-when-done", "--input", path)
	require.NoError(t, err)

	store := h.openStore()
	outcome, err := store.MessageOutcome(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, telemetry.OutcomeSubmitted, outcome)

	outcome, err = store.MessageOutcome(context.Background(), "m2")
	require.NoError(t, err)
	assert.Equal(t, telemetry.OutcomeIrrelevant, outcome)
}

func TestWatchDisabledExitsWhenDone(t *testing.T) {
	h := newHarness(t)
	path := h.writeInbox(inboxLine(t, "m1", messages.FixtureAmazonDebit))

	out, err := h.run("watch", "--no-tui", "--exit-when-done", "--input", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Monitoring is disabled")

	_, err = h.openStore().MessageOutcome(context.Background(), "m1")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestHistory(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("history")
	require.NoError(t, err)
	assert.Contains(t, out, "No submissions recorded")

	out, err = h.run("history", "--reports")
	require.NoError(t, err)
	assert.Contains(t, out, "No extraction reports")
}

func (h *harness) openStore() *storage.SQLiteStorage {
	h.t.Helper()
	store, err := storage.NewSQLiteStorage(h.dbPath)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = store.Close() })
	return store
}

func (h *harness) storedSettings() model.MonitorSettings {
	h.t.Helper()
	raw, err := h.openStore().Get(context.Background(), "sms_monitor_settings")
	require.NoError(h.t, err)

	var s model.MonitorSettings
	require.NoError(h.t, json.Unmarshal(raw, &s))
	return s
}

func TestApplySetting(t *testing.T) {
	s := model.DefaultMonitorSettings()

	require.NoError(t, applySetting(&s, "minimum-confidence", "0.8"))
	require.NoError(t, applySetting(&s, "use_overlay", "false"))
	require.NoError(t, applySetting(&s, "keyword_filters", "debited,credited"))
	require.NoError(t, applySetting(&s, "exclude_keywords", ""))

	assert.InDelta(t, 0.8, s.MinimumConfidence, 1e-9)
	assert.False(t, s.UseOverlay)
	assert.Equal(t, []string{"debited", "credited"}, s.KeywordFilters)
	assert.Empty(t, s.ExcludeKeywords)
}
