package search_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/nicholidev/eco-mentor/job"
	"github.com/nicholidev/eco-mentor/search"
)

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func mustJob(t *testing.T, op string, p search.Payload, channelID, languageCode string) *job.Job {
	t.Helper()
	j, err := search.NewJob(op, p, channelID, languageCode)
	if err != nil {
		t.Fatalf("NewJob(%q) failed: %v", op, err)
	}
	return j
}

func decodeAll(t *testing.T, jobs []*job.Job) []search.Payload {
	t.Helper()
	payloads := make([]search.Payload, len(jobs))
	for i, j := range jobs {
		p, err := search.DecodePayload(j)
		if err != nil {
			t.Fatalf("DecodePayload(%q) failed: %v", j.Name, err)
		}
		payloads[i] = p
	}
	return payloads
}

// fakeAncestry resolves collection depth from a fixed map.
type fakeAncestry struct {
	depths map[string]int
	err    error
}

func (a *fakeAncestry) Depth(_ context.Context, collectionID string) (int, error) {
	if a.err != nil {
		return 0, a.err
	}
	return a.depths[collectionID], nil
}

// ──────────────────────────────────────────────────
// UpdateIndexBuffer
// ──────────────────────────────────────────────────

func TestUpdateIndexBuffer_Accepts(t *testing.T) {
	t.Parallel()
	b := search.NewUpdateIndexBuffer()

	tests := []struct {
		name string
		job  *job.Job
		want bool
	}{
		{"update product", mustJob(t, search.OpUpdateProduct, search.Payload{}, "", ""), true},
		{"update variants", mustJob(t, search.OpUpdateVariants, search.Payload{}, "", ""), true},
		{"update variants by id", mustJob(t, search.OpUpdateVariantsByID, search.Payload{}, "", ""), true},
		{"delete product", mustJob(t, search.OpDeleteProduct, search.Payload{}, "", ""), true},
		{"reindex", mustJob(t, search.OpReindex, search.Payload{}, "", ""), true},
		{"collection filters belong to the other buffer", mustJob(t, search.OpApplyCollectionFilters, search.Payload{}, "", ""), false},
		{"other queue", &job.Job{Name: search.OpUpdateProduct, Queue: "default"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Accepts(tt.job); got != tt.want {
				t.Errorf("Accepts() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdateIndexBuffer_Collect_DedupesProductIDs(t *testing.T) {
	t.Parallel()
	b := search.NewUpdateIndexBuffer()

	batch := []*job.Job{
		mustJob(t, search.OpUpdateProduct, search.Payload{ProductIDs: []string{"1"}}, "", ""),
		mustJob(t, search.OpUpdateProduct, search.Payload{ProductIDs: []string{"2"}}, "", ""),
		mustJob(t, search.OpUpdateProduct, search.Payload{ProductIDs: []string{"1"}}, "", ""),
		mustJob(t, search.OpUpdateProduct, search.Payload{ProductIDs: []string{"3"}}, "", ""),
	}

	collected, err := b.Collect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(collected) != 1 {
		t.Fatalf("expected 1 collected job, got %d", len(collected))
	}
	got := decodeAll(t, collected)[0].ProductIDs
	want := []string{"1", "2", "3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ProductIDs = %v, want %v", got, want)
	}
}

func TestUpdateIndexBuffer_Collect_ReindexSupersedes(t *testing.T) {
	t.Parallel()
	b := search.NewUpdateIndexBuffer()

	batch := []*job.Job{
		mustJob(t, search.OpUpdateProduct, search.Payload{ProductIDs: []string{"1"}}, "", ""),
		mustJob(t, search.OpUpdateVariants, search.Payload{VariantIDs: []string{"v1", "v2"}}, "", ""),
		mustJob(t, search.OpReindex, search.Payload{}, "", ""),
		mustJob(t, search.OpUpdateProduct, search.Payload{ProductIDs: []string{"2"}}, "", ""),
	}

	collected, err := b.Collect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(collected) != 1 {
		t.Fatalf("expected only the reindex job, got %d jobs", len(collected))
	}
	if collected[0].Name != search.OpReindex {
		t.Errorf("collected job = %q, want %q", collected[0].Name, search.OpReindex)
	}
}

func TestUpdateIndexBuffer_Collect_ReindexScopedToChannel(t *testing.T) {
	t.Parallel()
	b := search.NewUpdateIndexBuffer()

	// Reindex for channel eu must not supersede updates for channel us.
	batch := []*job.Job{
		mustJob(t, search.OpReindex, search.Payload{}, "eu", ""),
		mustJob(t, search.OpUpdateProduct, search.Payload{ProductIDs: []string{"1"}}, "us", ""),
	}

	collected, err := b.Collect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(collected) != 2 {
		t.Fatalf("expected 2 collected jobs, got %d", len(collected))
	}
	if collected[0].Name != search.OpReindex || collected[0].ChannelID != "eu" {
		t.Errorf("first job = %q/%q, want reindex/eu", collected[0].Name, collected[0].ChannelID)
	}
	if collected[1].Name != search.OpUpdateProduct || collected[1].ChannelID != "us" {
		t.Errorf("second job = %q/%q, want update-product/us", collected[1].Name, collected[1].ChannelID)
	}
}

func TestUpdateIndexBuffer_Collect_ChannelWideReindexCoversLanguages(t *testing.T) {
	t.Parallel()
	b := search.NewUpdateIndexBuffer()

	// A reindex with an empty language code rebuilds every language on its
	// channel, so language-scoped work for that channel is redundant. This
	// is the shape tax-rate events produce: the reindex carries no language
	// while per-entity updates do.
	batch := []*job.Job{
		mustJob(t, search.OpReindex, search.Payload{}, "eu", ""),
		mustJob(t, search.OpUpdateProduct, search.Payload{ProductIDs: []string{"1"}}, "eu", "en"),
		mustJob(t, search.OpUpdateVariants, search.Payload{VariantIDs: []string{"v1"}}, "eu", "de"),
		mustJob(t, search.OpReindex, search.Payload{}, "eu", "en"),
		mustJob(t, search.OpUpdateProduct, search.Payload{ProductIDs: []string{"2"}}, "us", "en"),
	}

	collected, err := b.Collect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(collected) != 2 {
		t.Fatalf("expected 2 collected jobs, got %d", len(collected))
	}
	if collected[0].Name != search.OpReindex || collected[0].ChannelID != "eu" || collected[0].LanguageCode != "" {
		t.Errorf("first job = %q %q/%q, want channel-wide reindex for eu",
			collected[0].Name, collected[0].ChannelID, collected[0].LanguageCode)
	}
	if collected[1].Name != search.OpUpdateProduct || collected[1].ChannelID != "us" {
		t.Errorf("second job = %q/%q, want update-product/us", collected[1].Name, collected[1].ChannelID)
	}
}

func TestUpdateIndexBuffer_Collect_GroupsByOpAndScope(t *testing.T) {
	t.Parallel()
	b := search.NewUpdateIndexBuffer()

	batch := []*job.Job{
		mustJob(t, search.OpUpdateProduct, search.Payload{ProductIDs: []string{"1"}}, "eu", "en"),
		mustJob(t, search.OpUpdateVariants, search.Payload{VariantIDs: []string{"v1"}}, "eu", "en"),
		mustJob(t, search.OpUpdateProduct, search.Payload{ProductIDs: []string{"2"}}, "eu", "de"),
		mustJob(t, search.OpUpdateVariants, search.Payload{VariantIDs: []string{"v2"}}, "eu", "en"),
	}

	collected, err := b.Collect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	// (update-product, eu, en), (update-variants, eu, en), (update-product, eu, de)
	if len(collected) != 3 {
		t.Fatalf("expected 3 collected jobs, got %d", len(collected))
	}
	variants := decodeAll(t, collected)[1].VariantIDs
	if !reflect.DeepEqual(variants, []string{"v1", "v2"}) {
		t.Errorf("merged VariantIDs = %v, want [v1 v2]", variants)
	}
	if collected[2].LanguageCode != "de" {
		t.Errorf("third job language = %q, want de", collected[2].LanguageCode)
	}
}

func TestUpdateIndexBuffer_Collect_Pure(t *testing.T) {
	t.Parallel()
	b := search.NewUpdateIndexBuffer()

	batch := []*job.Job{
		mustJob(t, search.OpUpdateProduct, search.Payload{ProductIDs: []string{"1", "2"}}, "", ""),
		mustJob(t, search.OpUpdateProduct, search.Payload{ProductIDs: []string{"2", "3"}}, "", ""),
	}

	first, err := b.Collect(context.Background(), batch)
	if err != nil {
		t.Fatalf("first Collect failed: %v", err)
	}
	second, err := b.Collect(context.Background(), batch)
	if err != nil {
		t.Fatalf("second Collect failed: %v", err)
	}
	if !reflect.DeepEqual(decodeAll(t, first), decodeAll(t, second)) {
		t.Error("Collect is not a pure function of its input batch")
	}
}

// ──────────────────────────────────────────────────
// CollectionFilterBuffer
// ──────────────────────────────────────────────────

func TestCollectionFilterBuffer_Accepts(t *testing.T) {
	t.Parallel()
	b := search.NewCollectionFilterBuffer(nil)

	if !b.Accepts(mustJob(t, search.OpApplyCollectionFilters, search.Payload{}, "", "")) {
		t.Error("expected buffer to accept collection filter jobs")
	}
	if b.Accepts(mustJob(t, search.OpUpdateProduct, search.Payload{}, "", "")) {
		t.Error("expected buffer to reject index update jobs")
	}
}

func TestCollectionFilterBuffer_Collect_ParentBeforeChild(t *testing.T) {
	t.Parallel()
	ancestry := &fakeAncestry{depths: map[string]int{
		"parent": 0,
		"child":  1,
	}}
	b := search.NewCollectionFilterBuffer(ancestry)

	// Child arrives first; emitted order must still be parent before child.
	batch := []*job.Job{
		mustJob(t, search.OpApplyCollectionFilters, search.Payload{CollectionIDs: []string{"child"}}, "", ""),
		mustJob(t, search.OpApplyCollectionFilters, search.Payload{CollectionIDs: []string{"parent"}}, "", ""),
	}

	collected, err := b.Collect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(collected) != 2 {
		t.Fatalf("expected 2 collected jobs, got %d", len(collected))
	}
	payloads := decodeAll(t, collected)
	if payloads[0].CollectionIDs[0] != "parent" || payloads[1].CollectionIDs[0] != "child" {
		t.Errorf("emitted order = [%s %s], want [parent child]",
			payloads[0].CollectionIDs[0], payloads[1].CollectionIDs[0])
	}
}

func TestCollectionFilterBuffer_Collect_Dedupes(t *testing.T) {
	t.Parallel()
	b := search.NewCollectionFilterBuffer(nil)

	batch := []*job.Job{
		mustJob(t, search.OpApplyCollectionFilters, search.Payload{CollectionIDs: []string{"c1"}}, "", ""),
		mustJob(t, search.OpApplyCollectionFilters, search.Payload{CollectionIDs: []string{"c1"}}, "", ""),
		mustJob(t, search.OpApplyCollectionFilters, search.Payload{CollectionIDs: []string{"c2"}}, "", ""),
	}

	collected, err := b.Collect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(collected) != 2 {
		t.Fatalf("expected 2 collected jobs, got %d", len(collected))
	}
}

func TestCollectionFilterBuffer_Collect_NilAncestryKeepsArrivalOrder(t *testing.T) {
	t.Parallel()
	b := search.NewCollectionFilterBuffer(nil)

	batch := []*job.Job{
		mustJob(t, search.OpApplyCollectionFilters, search.Payload{CollectionIDs: []string{"b"}}, "", ""),
		mustJob(t, search.OpApplyCollectionFilters, search.Payload{CollectionIDs: []string{"a"}}, "", ""),
	}

	collected, err := b.Collect(context.Background(), batch)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	payloads := decodeAll(t, collected)
	if payloads[0].CollectionIDs[0] != "b" || payloads[1].CollectionIDs[0] != "a" {
		t.Error("expected arrival order to be preserved without an ancestry resolver")
	}
}

func TestCollectionFilterBuffer_Collect_DepthError(t *testing.T) {
	t.Parallel()
	ancestry := &fakeAncestry{err: errors.New("collection tree unavailable")}
	b := search.NewCollectionFilterBuffer(ancestry)

	batch := []*job.Job{
		mustJob(t, search.OpApplyCollectionFilters, search.Payload{CollectionIDs: []string{"c1"}}, "", ""),
	}
	if _, err := b.Collect(context.Background(), batch); err == nil {
		t.Fatal("expected Collect to fail when depth resolution fails")
	}
}
