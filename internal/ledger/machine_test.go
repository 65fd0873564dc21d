package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeStore struct {
	records []TransactionRecord
	err     error
}

func (f *fakeStore) SaveTransaction(_ context.Context, rec TransactionRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func newTestMachine(store *fakeStore) *Machine {
	return NewMachine(NewRecorder(store))
}

func hasChoice(r Reply, key string) bool {
	for _, c := range r.Choices {
		if c.Key == key {
			return true
		}
	}
	return false
}

func cmd(kind CommandKind, arg string) Command {
	return Command{Kind: kind, Arg: arg}
}

func TestManualFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	m := newTestMachine(store)
	const uid = int64(42)

	r := m.HandleCommand(ctx, uid, cmd(CmdNewTransaction, ""))
	if !hasChoice(r, TagMethodManual) || !hasChoice(r, TagMethodPhoto) {
		t.Fatalf("method prompt missing choices: %+v", r.Choices)
	}

	r = m.HandleCommand(ctx, uid, cmd(CmdMethodManual, ""))
	if !hasChoice(r, TagPickType) {
		t.Fatalf("type prompt missing type choices: %+v", r.Choices)
	}

	r = m.HandleCommand(ctx, uid, cmd(CmdPickType, string(TypeExpense)))
	found := false
	for _, c := range r.Choices {
		if c.Key == TagPickCategory && c.Data == "Groceries" {
			found = true
		}
		if c.Key == TagPickCategory {
			if got, ok := CategoryOfType(TypeExpense, c.Data); !ok || got.Type != TypeExpense {
				t.Fatalf("category keyboard offers %q outside expense set", c.Data)
			}
		}
	}
	if !found {
		t.Fatal("category keyboard missing Groceries")
	}

	m.HandleCommand(ctx, uid, cmd(CmdPickCategory, "Groceries"))

	r, handled := m.HandleText(ctx, uid, "250")
	if !handled {
		t.Fatal("amount text not handled")
	}
	if !hasChoice(r, TagSkipDescription) {
		t.Fatalf("description prompt missing skip: %+v", r.Choices)
	}
	if hasChoice(r, TagKeepDescription) {
		t.Fatal("manual flow must not offer keep-detected-text")
	}

	_, handled = m.HandleText(ctx, uid, "weekly shopping")
	if !handled {
		t.Fatal("description text not handled")
	}

	if len(store.records) != 1 {
		t.Fatalf("saved %d records, want 1", len(store.records))
	}
	rec := store.records[0]
	if rec.UserID != uid || rec.Type != TypeExpense || rec.CategoryName != "Groceries" {
		t.Fatalf("record fields wrong: %+v", rec)
	}
	if rec.Amount != 25000 {
		t.Fatalf("amount = %d, want 25000", rec.Amount)
	}
	if rec.Description != "weekly shopping" {
		t.Fatalf("description = %q", rec.Description)
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Fatalf("record missing identity: %+v", rec)
	}

	if m.InFlow(uid) {
		t.Fatal("session survived successful save")
	}
}

func TestPhotoFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	m := newTestMachine(store)
	const uid = int64(7)

	m.HandleCommand(ctx, uid, cmd(CmdNewTransaction, ""))
	m.HandleCommand(ctx, uid, cmd(CmdMethodPhoto, ""))

	const text = "Total Rs 430.00 Thank you"
	r := m.HandlePhoto(ctx, uid, text, true)
	if !strings.Contains(r.Text, "₹430.00") {
		t.Fatalf("detected-amount reply = %q", r.Text)
	}
	if !hasChoice(r, TagPickType) {
		t.Fatalf("photo reply missing type choices: %+v", r.Choices)
	}

	m.HandleCommand(ctx, uid, cmd(CmdPickType, string(TypeExpense)))
	r = m.HandleCommand(ctx, uid, cmd(CmdPickCategory, "Food & Dining"))
	if !strings.Contains(r.Text, "₹430.00") {
		t.Fatalf("amount step not skipped, got %q", r.Text)
	}
	if !hasChoice(r, TagKeepDescription) {
		t.Fatal("photo flow missing keep-detected-text choice")
	}

	m.HandleCommand(ctx, uid, cmd(CmdKeepDescription, ""))

	if len(store.records) != 1 {
		t.Fatalf("saved %d records, want 1", len(store.records))
	}
	rec := store.records[0]
	if rec.Amount != 43000 {
		t.Fatalf("amount = %d, want 43000", rec.Amount)
	}
	if rec.CategoryName != "Food & Dining" {
		t.Fatalf("category = %q", rec.CategoryName)
	}
	if rec.Description != text {
		t.Fatalf("description = %q, want recognized text", rec.Description)
	}
}

func TestPhotoFlowSkipDescription(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	m := newTestMachine(store)
	const uid = int64(8)

	m.HandleCommand(ctx, uid, cmd(CmdNewTransaction, ""))
	m.HandleCommand(ctx, uid, cmd(CmdMethodPhoto, ""))
	m.HandlePhoto(ctx, uid, "Rs 99.50", true)
	m.HandleCommand(ctx, uid, cmd(CmdPickType, string(TypeExpense)))
	m.HandleCommand(ctx, uid, cmd(CmdPickCategory, "Shopping"))
	m.HandleCommand(ctx, uid, cmd(CmdSkipDescription, ""))

	if len(store.records) != 1 {
		t.Fatalf("saved %d records, want 1", len(store.records))
	}
	if store.records[0].Description != "" {
		t.Fatalf("skip kept description %q", store.records[0].Description)
	}
}

func TestPhotoUnreadable(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(&fakeStore{})
	const uid = int64(9)

	m.HandleCommand(ctx, uid, cmd(CmdNewTransaction, ""))
	m.HandleCommand(ctx, uid, cmd(CmdMethodPhoto, ""))

	r := m.HandlePhoto(ctx, uid, "", false)
	if !strings.Contains(r.Text, "No readable text") {
		t.Fatalf("unexpected reply: %q", r.Text)
	}
	if s := m.session(uid); s == nil || s.Step != StepPhotoUpload {
		t.Fatal("session must stay at photo upload after unreadable image")
	}

	// Text present but no extractable amount: same recovery point.
	r = m.HandlePhoto(ctx, uid, "thank you come again", true)
	if !strings.Contains(r.Text, "Could not extract") {
		t.Fatalf("unexpected reply: %q", r.Text)
	}
	if s := m.session(uid); s == nil || s.Step != StepPhotoUpload {
		t.Fatal("session must stay at photo upload after failed extraction")
	}

	// A second photo can still succeed.
	r = m.HandlePhoto(ctx, uid, "Total 55", true)
	if !hasChoice(r, TagPickType) {
		t.Fatalf("retry photo did not advance: %+v", r)
	}
}

func TestPhotoWithoutPhotoMethod(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(&fakeStore{})
	const uid = int64(10)

	r := m.HandlePhoto(ctx, uid, "Rs 10", true)
	if !strings.Contains(r.Text, "Photo Entry") {
		t.Fatalf("no-session photo reply = %q", r.Text)
	}

	m.HandleCommand(ctx, uid, cmd(CmdNewTransaction, ""))
	m.HandleCommand(ctx, uid, cmd(CmdMethodManual, ""))
	r = m.HandlePhoto(ctx, uid, "Rs 10", true)
	if !strings.Contains(r.Text, "Photo Entry") {
		t.Fatalf("manual-session photo reply = %q", r.Text)
	}
	if s := m.session(uid); s == nil || s.Step != StepType {
		t.Fatal("photo during manual flow must not mutate session")
	}
}

func TestBackNavigationClearsDownstream(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(&fakeStore{})
	const uid = int64(11)

	m.HandleCommand(ctx, uid, cmd(CmdNewTransaction, ""))
	m.HandleCommand(ctx, uid, cmd(CmdMethodManual, ""))
	m.HandleCommand(ctx, uid, cmd(CmdPickType, string(TypeExpense)))
	m.HandleCommand(ctx, uid, cmd(CmdPickCategory, "Fuel"))

	r := m.HandleCommand(ctx, uid, cmd(CmdBackToCategory, ""))
	if !hasChoice(r, TagPickCategory) {
		t.Fatalf("back-to-category did not show categories: %+v", r.Choices)
	}
	if s := m.session(uid); s.CategoryName != "" || s.Step != StepCategory {
		t.Fatalf("category not cleared: %+v", s)
	}

	m.HandleCommand(ctx, uid, cmd(CmdBackToType, ""))
	if s := m.session(uid); s.Step != StepType || s.CategoryName != "" {
		t.Fatalf("back-to-type state wrong: %+v", s)
	}

	m.HandleCommand(ctx, uid, cmd(CmdBackToMethod, ""))
	if s := m.session(uid); s.Step != StepMethod || s.Type != "" {
		t.Fatalf("back-to-method did not clear type: %+v", s)
	}
}

func TestSwitchingTypeClearsCategory(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(&fakeStore{})
	const uid = int64(12)

	m.HandleCommand(ctx, uid, cmd(CmdNewTransaction, ""))
	m.HandleCommand(ctx, uid, cmd(CmdMethodManual, ""))
	m.HandleCommand(ctx, uid, cmd(CmdPickType, string(TypeExpense)))
	m.HandleCommand(ctx, uid, cmd(CmdBackToType, ""))
	m.HandleCommand(ctx, uid, cmd(CmdPickType, string(TypeIncome)))

	r := m.HandleCommand(ctx, uid, cmd(CmdPickCategory, "Salary"))
	if r.Text == "" {
		t.Fatal("income category pick produced empty reply")
	}
	if s := m.session(uid); s.CategoryName != "Salary" {
		t.Fatalf("category = %q, want Salary", s.CategoryName)
	}
}

func TestStaleCategoryDestroysSession(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(&fakeStore{})
	const uid = int64(13)

	m.HandleCommand(ctx, uid, cmd(CmdNewTransaction, ""))
	m.HandleCommand(ctx, uid, cmd(CmdMethodManual, ""))
	m.HandleCommand(ctx, uid, cmd(CmdPickType, string(TypeIncome)))

	// Groceries is an expense category; this press cannot come from the
	// income keyboard.
	r := m.HandleCommand(ctx, uid, cmd(CmdPickCategory, "Groceries"))
	if !strings.Contains(r.Text, "Session expired") {
		t.Fatalf("stale category reply = %q", r.Text)
	}
	if m.InFlow(uid) {
		t.Fatal("session must be destroyed after integrity failure")
	}
}

func TestSaveFailureRetry(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{err: errors.New("db down")}
	m := newTestMachine(store)
	const uid = int64(14)

	m.HandleCommand(ctx, uid, cmd(CmdNewTransaction, ""))
	m.HandleCommand(ctx, uid, cmd(CmdMethodManual, ""))
	m.HandleCommand(ctx, uid, cmd(CmdPickType, string(TypeSaving)))
	m.HandleCommand(ctx, uid, cmd(CmdPickCategory, "Emergency Fund"))
	m.HandleText(ctx, uid, "1000")

	r, _ := m.HandleText(ctx, uid, "monthly deposit")
	if !hasChoice(r, TagRetrySave) {
		t.Fatalf("failure reply missing retry: %+v", r.Choices)
	}
	if !m.InFlow(uid) {
		t.Fatal("session must survive a failed save")
	}
	if s := m.session(uid); s.Step != StepSave {
		t.Fatalf("step = %q, want save", s.Step)
	}

	store.err = nil
	r = m.HandleCommand(ctx, uid, cmd(CmdRetrySave, ""))
	if !strings.Contains(r.Text, "saved successfully") {
		t.Fatalf("retry reply = %q", r.Text)
	}
	if len(store.records) != 1 {
		t.Fatalf("saved %d records, want 1", len(store.records))
	}
	if store.records[0].Description != "monthly deposit" {
		t.Fatalf("retry lost data: %+v", store.records[0])
	}
	if m.InFlow(uid) {
		t.Fatal("session survived successful retry")
	}
}

func TestExpiredSession(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(&fakeStore{})
	const uid = int64(15)

	for _, k := range []CommandKind{
		CmdMethodManual, CmdPickType, CmdPickCategory,
		CmdSkipDescription, CmdRetrySave, CmdBackToType,
	} {
		r := m.HandleCommand(ctx, uid, cmd(k, "x"))
		if !strings.Contains(r.Text, "Session expired") {
			t.Fatalf("kind %d without session: %q", k, r.Text)
		}
	}
}

func TestTextOutsideFlowIgnored(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(&fakeStore{})

	if _, handled := m.HandleText(ctx, 16, "hello"); handled {
		t.Fatal("text without session must be ignored")
	}

	m.HandleCommand(ctx, 16, cmd(CmdNewTransaction, ""))
	if _, handled := m.HandleText(ctx, 16, "hello"); handled {
		t.Fatal("text at method step must be ignored")
	}
}

func TestInvalidAmountReprompts(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(&fakeStore{})
	const uid = int64(17)

	m.HandleCommand(ctx, uid, cmd(CmdNewTransaction, ""))
	m.HandleCommand(ctx, uid, cmd(CmdMethodManual, ""))
	m.HandleCommand(ctx, uid, cmd(CmdPickType, string(TypeExpense)))
	m.HandleCommand(ctx, uid, cmd(CmdPickCategory, "Utilities"))

	for _, bad := range []string{"abc", "-5", "0"} {
		r, handled := m.HandleText(ctx, uid, bad)
		if !handled || !strings.Contains(r.Text, "Invalid amount") {
			t.Fatalf("input %q: handled=%v reply=%q", bad, handled, r.Text)
		}
		if s := m.session(uid); s.Step != StepAmount {
			t.Fatalf("input %q advanced step to %q", bad, s.Step)
		}
	}

	if r, _ := m.HandleText(ctx, uid, "42"); !hasChoice(r, TagSkipDescription) {
		t.Fatalf("valid amount after failures did not advance: %+v", r)
	}
}

func TestStepMismatchReprompts(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(&fakeStore{})
	const uid = int64(18)

	m.HandleCommand(ctx, uid, cmd(CmdNewTransaction, ""))
	m.HandleCommand(ctx, uid, cmd(CmdMethodManual, ""))

	// Pressing a category button while at the type step re-prompts the
	// current step without mutating state.
	r := m.HandleCommand(ctx, uid, cmd(CmdPickCategory, "Groceries"))
	if !hasChoice(r, TagPickType) {
		t.Fatalf("mismatch did not re-prompt type step: %+v", r.Choices)
	}
	if s := m.session(uid); s.Step != StepType || s.CategoryName != "" {
		t.Fatalf("mismatch mutated session: %+v", s)
	}
}

func TestMainMenuAbandonsFlow(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	m := newTestMachine(store)
	const uid = int64(19)

	m.HandleCommand(ctx, uid, cmd(CmdNewTransaction, ""))
	m.HandleCommand(ctx, uid, cmd(CmdMethodManual, ""))
	r := m.HandleCommand(ctx, uid, cmd(CmdMainMenu, ""))
	if !hasChoice(r, TagNewTransaction) {
		t.Fatalf("main menu missing new transaction: %+v", r.Choices)
	}
	if m.InFlow(uid) {
		t.Fatal("main menu must destroy the session")
	}
	if len(store.records) != 0 {
		t.Fatal("abandoned flow must not save")
	}
}

func TestNewTransactionRestartsFlow(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(&fakeStore{})
	const uid = int64(20)

	m.HandleCommand(ctx, uid, cmd(CmdNewTransaction, ""))
	m.HandleCommand(ctx, uid, cmd(CmdMethodManual, ""))
	m.HandleCommand(ctx, uid, cmd(CmdPickType, string(TypeExpense)))

	m.HandleCommand(ctx, uid, cmd(CmdNewTransaction, ""))
	if s := m.session(uid); s.Step != StepMethod || s.Type != "" {
		t.Fatalf("restart kept stale state: %+v", s)
	}
}

func TestSessionsAreIsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	m := newTestMachine(store)

	m.HandleCommand(ctx, 100, cmd(CmdNewTransaction, ""))
	m.HandleCommand(ctx, 100, cmd(CmdMethodManual, ""))

	m.HandleCommand(ctx, 200, cmd(CmdNewTransaction, ""))
	m.HandleCommand(ctx, 200, cmd(CmdMethodPhoto, ""))

	if s := m.session(100); s.Method != MethodManual {
		t.Fatalf("user 100 method = %q", s.Method)
	}
	if s := m.session(200); s.Method != MethodPhoto {
		t.Fatalf("user 200 method = %q", s.Method)
	}

	m.HandleCommand(ctx, 100, cmd(CmdMainMenu, ""))
	if m.session(200) == nil {
		t.Fatal("destroying user 100 removed user 200 session")
	}
}

func TestStubsDoNotTouchSessions(t *testing.T) {
	ctx := context.Background()
	m := newTestMachine(&fakeStore{})
	const uid = int64(21)

	m.HandleCommand(ctx, uid, cmd(CmdNewTransaction, ""))
	for _, k := range []CommandKind{CmdViewSummary, CmdAnalytics, CmdSettings} {
		r := m.HandleCommand(ctx, uid, cmd(k, ""))
		if !strings.Contains(r.Text, "coming soon") {
			t.Fatalf("stub reply = %q", r.Text)
		}
		if !hasChoice(r, TagMainMenu) {
			t.Fatalf("stub missing back button: %+v", r.Choices)
		}
	}
	if !m.InFlow(uid) {
		t.Fatal("stub handler destroyed an active session")
	}
}

func TestParseCommand(t *testing.T) {
	c, ok := ParseCommand(TagPickType, "expense")
	if !ok || c.Kind != CmdPickType || c.Arg != "expense" {
		t.Fatalf("ParseCommand(type) = %+v, %v", c, ok)
	}
	if _, ok := ParseCommand("no_such_tag", ""); ok {
		t.Fatal("unknown tag must not parse")
	}
}
