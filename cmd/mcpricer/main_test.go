package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wyfcoding/mcpricer/pricing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPriceCommandPrintsPricesAndHistograms(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "price",
		"--paths", "200", "--steps", "12",
		"--variants", "lookback_call,european_put",
		"--put-strike", "95",
		"--histogram-dir", dir,
	)
	if err != nil {
		t.Fatalf("price failed: %v", err)
	}

	for _, want := range []string{"Price of Lookback Call Option: $", "Price of European Put Option: $"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Lookback Call") > strings.Index(out, "European Put") {
		t.Errorf("price lines not in request order:\n%s", out)
	}
	for _, name := range []string{"lookback_call.png", "european_put.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("histogram %s not written: %v", name, err)
		}
	}
}

func TestPriceCommandJSONIsDeterministic(t *testing.T) {
	run := func() pricing.Result {
		out, err := execute(t, "price", "--json", "--paths", "150", "--steps", "8", "--seed", "9")
		if err != nil {
			t.Fatalf("price failed: %v", err)
		}
		var res pricing.Result
		if err := json.Unmarshal([]byte(out), &res); err != nil {
			t.Fatalf("invalid JSON output %q: %v", out, err)
		}
		return res
	}

	a, b := run(), run()
	if len(a.Estimates) != 2 || a.Seed != 9 {
		t.Fatalf("unexpected result: %+v", a)
	}
	for i := range a.Estimates {
		if a.Estimates[i].Value != b.Estimates[i].Value {
			t.Errorf("estimate %d not reproducible: %v vs %v", i, a.Estimates[i].Value, b.Estimates[i].Value)
		}
	}
}

func TestPriceCommandRejectsInvalidInput(t *testing.T) {
	if _, err := execute(t, "price", "--paths", "0"); err == nil {
		t.Error("expected error for zero paths")
	}
	if _, err := execute(t, "price", "--variants", "rainbow"); err == nil {
		t.Error("expected error for unknown variant")
	}
}

func TestVariantsCommand(t *testing.T) {
	out, err := execute(t, "variants")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"average_strike_call", "lookback_put", "european_call", "110"} {
		if !strings.Contains(out, want) {
			t.Errorf("variants output missing %q:\n%s", want, out)
		}
	}
}
