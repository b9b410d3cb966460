package historyservice

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/prophist/internal/apperr"
	"github.com/starford/prophist/internal/models"
	"github.com/starford/prophist/internal/testutil"
)

const asset = "Assets/Player.prefab"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// playerHistory commits five revisions, oldest first:
// r1 speed 1, r2 speed 1, r3 speed 2, r4 broken, r5 speed 2.
func playerHistory() *testutil.FakeHistory {
	h := testutil.NewFakeHistory()
	h.Commit("r1000000", "alice", "add player", asset, testutil.PlayerPrefab("0", "0", "1"))
	h.Commit("r2000000", "bob", "move player", asset, testutil.PlayerPrefab("5", "0", "1"))
	h.Commit("r3000000", "alice", "faster", asset, testutil.PlayerPrefab("5", "0", "2"))
	h.Commit("r4000000", "carol", "bad merge", asset, "--- !u!4 &400\nTransform: {\n")
	h.Commit("r5000000", "carol", "fix merge", asset, testutil.PlayerPrefab("5", "0", "2"))
	return h
}

func ids(entries []models.TimelineEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Revision.ID[:2] + "=" + e.Display()
	}
	return out
}

func TestPropertyHistory(t *testing.T) {
	svc := NewService(playerHistory(), WithLogger(quietLogger()), WithConcurrency(2))
	res, err := svc.PropertyHistory(context.Background(), Request{
		Asset: asset, AnchorID: "11400000", Path: "speed",
	})
	if err != nil {
		t.Fatalf("PropertyHistory: %v", err)
	}
	if res.Scanned != 5 {
		t.Errorf("scanned = %d, want 5", res.Scanned)
	}
	got := ids(res.Entries)
	if len(got) != 4 {
		t.Fatalf("entries = %v, want 4", got)
	}
	want := []string{"r5=2", "r4=", "r3=2", "r2=1"}
	for i, w := range want {
		if w == "r4=" {
			if res.Entries[i].Outcome != models.OutcomeParseFailure {
				t.Errorf("entries[%d] outcome = %s, want parse_failure", i, res.Entries[i].Outcome)
			}
			continue
		}
		if got[i] != w {
			t.Errorf("entries[%d] = %q, want %q", i, got[i], w)
		}
	}
}

func TestPropertyHistory_IndexedPath(t *testing.T) {
	h := testutil.NewFakeHistory()
	h.Commit("r1000000", "a", "add", asset, testutil.PlayerPrefab("0", "0", "1"))
	svc := NewService(h, WithLogger(quietLogger()))
	res, err := svc.PropertyHistory(context.Background(), Request{
		Asset: asset, AnchorID: "11400000", Path: "items.Array.data[2]",
	})
	if err != nil {
		t.Fatalf("PropertyHistory: %v", err)
	}
	if got := ids(res.Entries); !cmp.Equal(got, []string{"r1=30"}) {
		t.Errorf("entries = %v", got)
	}
	if res.Path != "items.Array.data[2]" {
		t.Errorf("path = %q", res.Path)
	}
}

func TestPropertyHistory_Limit(t *testing.T) {
	svc := NewService(playerHistory(), WithLogger(quietLogger()))
	res, err := svc.PropertyHistory(context.Background(), Request{
		Asset: asset, AnchorID: "400", Path: "m_LocalPosition.x", Limit: 2,
	})
	if err != nil {
		t.Fatalf("PropertyHistory: %v", err)
	}
	if res.Scanned != 2 {
		t.Errorf("scanned = %d, want 2", res.Scanned)
	}
}

func TestPropertyHistory_ContentErrorIsAbsent(t *testing.T) {
	h := playerHistory()
	h.ContentErr["r5000000"] = errors.New("object missing")
	svc := NewService(h, WithLogger(quietLogger()))
	res, err := svc.PropertyHistory(context.Background(), Request{
		Asset: asset, AnchorID: "11400000", Path: "speed",
	})
	if err != nil {
		t.Fatalf("PropertyHistory: %v", err)
	}
	first := res.Entries[0]
	if first.Outcome != models.OutcomeContentAbsent || first.Display() != models.AbsentText {
		t.Errorf("first entry = %+v, want content absent", first)
	}
}

func TestPropertyHistory_NoRevisions(t *testing.T) {
	svc := NewService(testutil.NewFakeHistory(), WithLogger(quietLogger()))
	res, err := svc.PropertyHistory(context.Background(), Request{
		Asset: "Assets/Nope.prefab", AnchorID: "1", Path: "m_Name",
	})
	if err != nil {
		t.Fatalf("PropertyHistory: %v", err)
	}
	if res.Entries == nil || len(res.Entries) != 0 {
		t.Errorf("entries = %#v, want empty non-nil", res.Entries)
	}
}

func TestPropertyHistory_HistoryError(t *testing.T) {
	h := testutil.NewFakeHistory()
	h.RevisionsErr = apperr.ErrNotRepository
	svc := NewService(h, WithLogger(quietLogger()))
	_, err := svc.PropertyHistory(context.Background(), Request{Asset: asset, AnchorID: "1", Path: "x"})
	if !errors.Is(err, apperr.ErrNotRepository) {
		t.Errorf("err = %v, want ErrNotRepository", err)
	}
}

func TestPropertyHistory_Cancelled(t *testing.T) {
	h := testutil.NewFakeHistory()
	h.Commit("r1", "a", "s", asset, "x: 1")
	h.ContentErr["r1"] = context.Canceled
	svc := NewService(h, WithLogger(quietLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.PropertyHistory(ctx, Request{Asset: asset, AnchorID: "1", Path: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		ok   bool
	}{
		{"valid", Request{Asset: "a", AnchorID: "1", Path: "m_Name"}, true},
		{"missing asset", Request{AnchorID: "1", Path: "m_Name"}, false},
		{"missing anchor", Request{Asset: "a", Path: "m_Name"}, false},
		{"missing path", Request{Asset: "a", AnchorID: "1"}, false},
		{"bad path", Request{Asset: "a", AnchorID: "1", Path: "items[x]"}, false},
		{"negative limit", Request{Asset: "a", AnchorID: "1", Path: "m_Name", Limit: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate: %v", err)
			}
			if !tt.ok && !errors.Is(err, apperr.ErrInvalidRequest) {
				t.Errorf("err = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestRevisions(t *testing.T) {
	svc := NewService(playerHistory())
	revs, err := svc.Revisions(context.Background(), asset, 3)
	if err != nil {
		t.Fatalf("Revisions: %v", err)
	}
	if len(revs) != 3 || revs[0].ID != "r5000000" {
		t.Errorf("revs = %+v", revs)
	}
	if _, err := svc.Revisions(context.Background(), "", 0); !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Errorf("empty asset err = %v", err)
	}
}

func TestObjects(t *testing.T) {
	svc := NewService(playerHistory())

	res, err := svc.Objects(context.Background(), asset, "")
	if err != nil {
		t.Fatalf("Objects: %v", err)
	}
	if res.Revision.ID != "r5000000" {
		t.Errorf("revision = %q, want newest", res.Revision.ID)
	}
	var anchors []string
	for _, o := range res.Objects {
		anchors = append(anchors, o.AnchorID+":"+o.TypeName)
	}
	want := []string{"100:GameObject", "400:Transform", "11400000:MonoBehaviour"}
	if diff := cmp.Diff(want, anchors); diff != "" {
		t.Errorf("objects mismatch (-want +got):\n%s", diff)
	}

	if _, err := svc.Objects(context.Background(), asset, "r4000000"); !errors.Is(err, apperr.ErrInvalidDocument) {
		t.Errorf("broken revision err = %v, want ErrInvalidDocument", err)
	}
	if _, err := svc.Objects(context.Background(), asset, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown revision err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Objects(context.Background(), "Assets/Nope.prefab", ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown asset err = %v, want ErrNotFound", err)
	}
}

func TestObjects_ResolvesNamedRevision(t *testing.T) {
	hist := playerHistory()
	hist.SetRef("main", "r3000000")
	svc := NewService(hist)

	res, err := svc.Objects(context.Background(), asset, "main")
	if err != nil {
		t.Fatalf("Objects: %v", err)
	}
	if res.Revision.ID != "r3000000" {
		t.Errorf("revision = %q, want the resolved id", res.Revision.ID)
	}
	if n := hist.ContentCalls("main", asset); n != 0 {
		t.Errorf("content read by name %d times, want only by id", n)
	}
	if n := hist.ContentCalls("r3000000", asset); n != 1 {
		t.Errorf("content calls at resolved id = %d, want 1", n)
	}
}

func TestObjects_OptionLikeRevision(t *testing.T) {
	hist := playerHistory()
	svc := NewService(hist)
	_, err := svc.Objects(context.Background(), asset, "--output=/tmp/x")
	if !errors.Is(err, apperr.ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
	if n := hist.ContentCalls("--output=/tmp/x", asset); n != 0 {
		t.Errorf("content calls = %d, want 0", n)
	}
}
