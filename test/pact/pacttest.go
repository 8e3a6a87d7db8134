//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "bookstore-api"
	ConsumerName = "bookstore-web"

	StateBooksBaseline = "books baseline"
	StateBookExists    = "book with id 101 exists"
	StateBookMissing   = "no book with id 404"
)

const (
	ExistingBookID int64 = 101
	MissingBookID  int64 = 404
)

const (
	exampleTitle    = "Palpasa Cafe"
	exampleAuthor   = "Narayan Wagle"
	exampleCategory = "fiction"
	examplePrice    = int64(45000)
	exampleQuantity = 12
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the storefront consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleBookPayload provides stable test data for pact interactions.
func ExampleBookPayload() map[string]any {
	return map[string]any{
		"id":       ExistingBookID,
		"title":    exampleTitle,
		"author":   exampleAuthor,
		"category": exampleCategory,
		"price":    examplePrice,
		"quantity": exampleQuantity,
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
