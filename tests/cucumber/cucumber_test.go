//go:build cucumber
// +build cucumber

package cucumber

import (
	"path/filepath"
	"testing"

	"github.com/cucumber/godog"
)

func TestCucumberFeatures(t *testing.T) {
	options := godog.Options{
		Format:   "pretty",
		Paths:    []string{filepath.Join("features")},
		Strict:   true,
		TestingT: t,
	}

	suite := godog.TestSuite{
		Name:                "cotbench-features",
		ScenarioInitializer: InitializeScenario,
		Options:             &options,
	}

	if suite.Run() != 0 {
		t.Fatalf("cucumber features failed")
	}
}
