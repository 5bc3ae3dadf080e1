package testutil

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"testing"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/principal"
	logsvc "github.com/trezcool/shule/services/logger"
)

// NewTestConfig loads the configuration with test-friendly settings.
func NewTestConfig(t *testing.T) *core.Config {
	conf, err := core.NewConfig()
	if err != nil {
		t.Fatalf("NewTestConfig() failed: %v", err)
	}
	conf.TestMode = true
	core.Conf = conf
	return conf
}

// NewTestLogger returns a logger that swallows all output.
func NewTestLogger() core.Logger {
	return logsvc.NewConsoleLogger(log.New(ioutil.Discard, "", 0))
}

func CreatePrincipal(
	t *testing.T,
	repo principal.Repository,
	email, pwd string,
	profile principal.Profile,
	isActive bool,
	createdAt ...time.Time,
) principal.Principal {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if profile == nil {
		profile = principal.Profile{}
	}
	prin := principal.Principal{
		ID:        email, // stable, readable IDs in tests
		Email:     email,
		Profile:   profile,
		IsActive:  &isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := prin.SetPassword(pwd); err != nil {
			t.Fatalf("CreatePrincipal() failed: %v", err)
		}
	}
	prin, err := repo.CreatePrincipal(context.Background(), prin)
	if err != nil {
		t.Fatalf("CreatePrincipal() failed: %v", err)
	}
	return prin
}

// JSONDiff renders a line diff of two JSON documents after normalization;
// it returns "" when they are equivalent.
func JSONDiff(t *testing.T, got, want []byte) string {
	normalize := func(data []byte) string {
		var obj interface{}
		if err := json.Unmarshal(data, &obj); err != nil {
			return string(data)
		}
		out, err := json.MarshalIndent(obj, "", "  ")
		if err != nil {
			t.Fatalf("JSONDiff() failed: %v", err)
		}
		return string(out)
	}

	gotStr, wantStr := normalize(got), normalize(want)
	if gotStr == wantStr {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(wantStr),
		B:        difflib.SplitLines(gotStr),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	if err != nil {
		t.Fatalf("JSONDiff() failed: %v", err)
	}
	return diff
}
