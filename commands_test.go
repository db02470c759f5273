package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Command Table Tests ---

func TestParseCommandTable_Lookup(t *testing.T) {
	table, err := parseCommandTable([]byte(mockCommandTableYAML))
	require.NoError(t, err)

	tests := []struct {
		name string
		path []string
		want []string
	}{
		{"scalar leaf", []string{CmdKeyWifi, CmdKeyStatus}, []string{"wifi status"}},
		{"boolean key", []string{CmdKeyWifi, "true"}, []string{"wifi on"}},
		{"nested band", []string{CmdKeyWifi, CmdKeyBands, Band5GHz, "false"}, []string{"wl -i wl1 down"}},
		{"sequence leaf", []string{CmdKeyWifi, CmdKeyBands, Band6GHz, "true"}, []string{"pcb_cli", "WiFi.Radio.3.Enable=1"}},
		{"placeholder kept", []string{CmdKeyWifi, CmdKeyCounters, CmdKeyStationInfo, Band2_4GHz}, []string{"wl -i wl0 sta_info STATION"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Lookup(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommandTable_NotFound(t *testing.T) {
	table, err := parseCommandTable([]byte(`
WIFI:
  status: "wifi status"
  empty:
  nested_list: [["a"], "b"]
  counters:
    2.4GHz: "c"
`))
	require.NoError(t, err)

	paths := [][]string{
		{"MISSING"},
		{CmdKeyWifi, "nope"},
		{CmdKeyWifi, CmdKeyStatus, "deeper"},
		{CmdKeyWifi, CmdKeyCounters},
		{CmdKeyWifi, "empty"},
		{CmdKeyWifi, "nested_list"},
	}
	for _, p := range paths {
		_, err := table.Lookup(p)
		assert.ErrorIs(t, err, ErrCommandNotFound, "path %v", p)
		assert.False(t, table.Has(p))
	}
}

func TestParseCommandTable_Malformed(t *testing.T) {
	for _, src := range []string{"WIFI: [unclosed", "- a\n- b\n", "just a string", ""} {
		_, err := parseCommandTable([]byte(src))
		assert.ErrorIs(t, err, ErrCommandTable, "source %q", src)
	}
}

func TestLoadCommandTable(t *testing.T) {
	path := writeTempFile(t, "commands.yml", mockCommandTableYAML)
	table, err := loadCommandTable(path)
	require.NoError(t, err)
	assert.True(t, table.Has([]string{CmdKeyWifi, CmdKeyStatus}))

	_, err = loadCommandTable(path + ".missing")
	assert.ErrorIs(t, err, ErrCommandTable)
}

// --- Dispatcher Tests ---

func TestDispatcher_ExecuteSubstitutesStation(t *testing.T) {
	tr := newFakeTransport(map[string]string{"wl -i wl0 sta_info " + mockStationMAC: "idle 3"})
	d := newTestDispatcher(t, tr)

	out, err := d.ExecuteText(context.Background(),
		[]string{CmdKeyWifi, CmdKeyCounters, CmdKeyStationInfo, Band2_4GHz}, mockStationMAC)
	require.NoError(t, err)
	assert.Equal(t, "idle 3", out)

	opened, closed := tr.sessionCounts()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)
}

func TestDispatcher_SubShellSwitchesToNoWait(t *testing.T) {
	tr := newFakeTransport(nil)
	d := newTestDispatcher(t, tr)

	outs, err := d.Execute(context.Background(), []string{CmdKeyWifi, CmdKeyBands, Band6GHz, "true"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"", ""}, outs)
	assert.Equal(t, []string{"pcb_cli"}, tr.sentCommands())
	assert.Equal(t, []string{"WiFi.Radio.3.Enable=1"}, tr.noWaitCommands())
}

func TestDispatcher_CommandNotFoundOpensNoSession(t *testing.T) {
	tr := newFakeTransport(nil)
	d := newTestDispatcher(t, tr)

	_, err := d.Execute(context.Background(), []string{CmdKeyWifi, "bogus"}, "")
	assert.ErrorIs(t, err, ErrCommandNotFound)
	opened, _ := tr.sessionCounts()
	assert.Equal(t, 0, opened)
}

func TestDispatcher_ClosesSessionOnSendError(t *testing.T) {
	tr := newFakeTransport(nil)
	tr.respond = func(string) (string, error) { return "", transportError("read", errors.New("reset")) }
	d := newTestDispatcher(t, tr)

	_, err := d.Execute(context.Background(), []string{CmdKeyWifi, CmdKeyStatus}, "")
	assert.ErrorIs(t, err, ErrTransport)
	opened, closed := tr.sessionCounts()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)
}

func TestDispatcher_OpenError(t *testing.T) {
	tr := newFakeTransport(nil)
	tr.openErr = transportError("dial", errors.New("refused"))
	d := newTestDispatcher(t, tr)

	_, err := d.ExecuteText(context.Background(), []string{CmdKeyWifi, CmdKeyStatus}, "")
	assert.ErrorIs(t, err, ErrTransport)
}

func TestDispatcher_CancelledContext(t *testing.T) {
	tr := newFakeTransport(nil)
	d := newTestDispatcher(t, tr)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Execute(ctx, []string{CmdKeyWifi, CmdKeyStatus}, "")
	assert.ErrorIs(t, err, ErrTransport)
	opened, _ := tr.sessionCounts()
	assert.Equal(t, 0, opened)
}
