package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"serve", "coins", "heatmap", "coin", "history", "watch"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("subcommand %q not registered: %v", name, err)
		}
	}
}

func TestHeatmapCmd_RejectsBadDimension(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"heatmap", "--dimension", "color"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "unknown dimension") {
		t.Fatalf("expected dimension error, got %v", err)
	}
}

func TestViewFlags_State(t *testing.T) {
	v := viewFlags{dimension: "change", timeframe: "1w", hovered: "btc", query: "bit"}
	st, err := v.state()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if st.Dimension != "price_change" || st.Timeframe != "7d" || st.HoveredID != "btc" || st.Query != "bit" {
		t.Fatalf("unexpected state: %+v", st)
	}
}
