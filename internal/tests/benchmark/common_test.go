package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/yndnr/fp4-go/internal/core/domain"
	"github.com/yndnr/fp4-go/internal/storage/memory"
	"github.com/yndnr/fp4-go/pkg/token"
)

// SeizureCounts defines the store sizes for benchmarking.
var SeizureCounts = []int{1000, 10000, 50000, 100000}

// SmallCounts for quick benchmarks.
var SmallCounts = []int{1000, 5000, 10000}

const benchSecret = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

func newSeizureInput(i int) *domain.SeizureInput {
	return &domain.SeizureInput{
		Reference:  fmt.Sprintf("BENCH-%06d", i),
		Location:   "Port of Vancouver",
		SeizedOn:   fmt.Sprintf("2024-%02d-%02d", i%12+1, i%28+1),
		ReportedOn: "2024-12-31",
		Substances: []domain.SubstanceInput{
			{Name: fmt.Sprintf("substance-%d", i%20), Category: domain.CategoryControlled, Amount: float64(i%100 + 1), Unit: domain.UnitGrams},
			{Name: "cannabis", Category: domain.CategoryCannabis, Amount: 1.5, Unit: domain.UnitKilograms},
		},
	}
}

// prefillSeizures creates count seizures owned by a single account.
func prefillSeizures(ctx context.Context, b *testing.B, store *memory.Store, count int) *domain.Account {
	b.Helper()
	account, err := store.FindOrCreateAccount(ctx, "bench@example.gc.ca")
	if err != nil {
		b.Fatalf("FindOrCreateAccount failed: %v", err)
	}
	for i := 0; i < count; i++ {
		if _, err := store.CreateSeizure(ctx, account.ID, newSeizureInput(i)); err != nil {
			b.Fatalf("CreateSeizure failed: %v", err)
		}
	}
	return account
}

// prefillDigests stores count digests and returns the raw tokens.
func prefillDigests(ctx context.Context, b *testing.B, store *memory.Store, count int) []string {
	b.Helper()
	account, err := store.FindOrCreateAccount(ctx, "bench@example.gc.ca")
	if err != nil {
		b.Fatalf("FindOrCreateAccount failed: %v", err)
	}
	tokens := make([]string, count)
	for i := range tokens {
		raw, err := token.Generate()
		if err != nil {
			b.Fatalf("Generate failed: %v", err)
		}
		tokens[i] = raw.String()
		if err := store.SaveDigest(ctx, token.Digest(tokens[i]), account.ID); err != nil {
			b.Fatalf("SaveDigest failed: %v", err)
		}
	}
	return tokens
}

// reportMemory reports heap usage after a GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.HeapAlloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithCounts runs a benchmark function with various store sizes.
func runWithCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("seizures_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
