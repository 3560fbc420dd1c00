package main

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuapare/dualview/internal/loop"
	"github.com/joshuapare/dualview/pkg/layout"
	"github.com/joshuapare/dualview/pkg/types"
)

func TestStartupSyncsTreeToList(t *testing.T) {
	h := NewTestHelper(t)

	if got := h.ListLabels(); !slices.Equal(got, []string{"ann", "bob"}) {
		t.Errorf("list = %v, want [ann bob]", got)
	}
	if got := h.TreeSelection(); got != "home" {
		t.Errorf("tree selection = %q, want home", got)
	}
	if got := h.TreeLabels(); slices.Contains(got, "etc") {
		t.Errorf("minitree materialized a sibling: %v", got)
	}
	if err := h.model.tree.CheckInvariants(); err != nil {
		t.Error(err)
	}
}

func TestListEnterAndBack(t *testing.T) {
	h := NewTestHelper(t)
	h.SendKey(tea.KeyTab)
	if h.model.focusedPane != ListPane {
		t.Fatalf("expected ListPane focus after Tab")
	}

	h.SendKey(tea.KeyDown) // first row: ann
	h.SendKey(tea.KeyEnter)
	if got := h.ListLabels(); !slices.Equal(got, []string{"docs", "music"}) {
		t.Errorf("list after enter = %v", got)
	}
	if got := h.TreeSelection(); got != "ann" {
		t.Errorf("tree selection = %q, want ann", got)
	}

	h.SendKey(tea.KeyBackspace)
	if got := h.ListLabels(); !slices.Equal(got, []string{"ann", "bob"}) {
		t.Errorf("list after backspace = %v", got)
	}
	if got := h.TreeSelection(); got != "home" {
		t.Errorf("tree selection = %q, want home", got)
	}
}

func TestTreeNavigationMovesList(t *testing.T) {
	h := NewTestHelper(t)

	fetches := h.mem.Fetches("/home")
	h.SendKey(tea.KeyRight) // expand home from the list's listing
	if got := h.mem.Fetches("/home"); got != fetches {
		t.Errorf("expanding home fetched it again: %d -> %d", fetches, got)
	}
	if !h.model.tree.IsExpanded(h.model.tree.Selection()) {
		t.Fatalf("home not expanded")
	}
	if got := h.TreeLabels(); !slices.Equal(got[len(got)-2:], []string{"ann", "bob"}) {
		t.Errorf("tree rows = %v", got)
	}

	h.SendKey(tea.KeyDown)
	if got := h.TreeSelection(); got != "ann" {
		t.Fatalf("tree selection = %q, want ann", got)
	}
	if got := h.ListLabels(); !slices.Equal(got, []string{"docs", "music"}) {
		t.Errorf("list = %v, want ann's children", got)
	}

	h.SendKey(tea.KeyLeft) // collapsed row: go to parent
	if got := h.TreeSelection(); got != "home" {
		t.Errorf("tree selection = %q, want home", got)
	}
	h.SendKey(tea.KeyLeft) // expanded row: collapse
	if h.model.tree.IsExpanded(h.model.tree.Selection()) {
		t.Errorf("home still expanded")
	}
}

func TestToggles(t *testing.T) {
	h := NewTestHelper(t)

	h.SendKeyRune('m')
	if h.model.tree.Minitree() {
		t.Error("minitree still on")
	}
	if !strings.Contains(h.model.statusMessage, "Minitree off") {
		t.Errorf("status = %q", h.model.statusMessage)
	}

	h.SendKeyRune('.')
	if !h.model.tree.ShowHidden() || !h.model.list.ShowHidden() {
		t.Error("hidden toggle did not reach both views")
	}

	h.SendKeyRune('s')
	if got := h.model.tree.SyncPolicy(); got != types.SyncFull {
		t.Errorf("policy = %v, want full", got)
	}
	h.SendKeyRune('s')
	if got := h.model.tree.SyncPolicy(); got != types.SyncNone {
		t.Errorf("policy = %v, want none after wrapping", got)
	}
}

func TestCopyPath(t *testing.T) {
	var copied []string
	orig := writeClipboard
	writeClipboard = func(s string) error { copied = append(copied, s); return nil }
	t.Cleanup(func() { writeClipboard = orig })

	h := NewTestHelper(t)
	h.SendKeyRune('c')
	if !slices.Equal(copied, []string{"/home"}) {
		t.Errorf("copied = %v", copied)
	}
	if h.model.statusMessage != "Copied /home" {
		t.Errorf("status = %q", h.model.statusMessage)
	}

	// The list pane without a selection copies its location.
	h.SendKey(tea.KeyTab)
	h.SendKeyRune('c')
	if copied[len(copied)-1] != "/home" {
		t.Errorf("copied = %v", copied)
	}

	writeClipboard = func(string) error { return errors.New("no clipboard") }
	h.SendKeyRune('c')
	if !strings.Contains(h.model.statusMessage, "Copy failed") {
		t.Errorf("status = %q", h.model.statusMessage)
	}
}

func TestForgetAndAddRoot(t *testing.T) {
	h := NewTestHelper(t)

	h.SendKeyRune('x')
	if got := h.model.statusMessage; got != "Forgot home" {
		t.Errorf("status = %q", got)
	}
	if slices.Contains(h.TreeLabels(), "home") {
		t.Errorf("home still shown: %v", h.TreeLabels())
	}

	h.SendKeyRune('a')
	if n := len(h.model.tree.Roots()); n != 2 {
		t.Fatalf("roots = %d, want 2", n)
	}
	if got := h.TreeSelection(); got != "home" {
		t.Errorf("tree selection = %q, want the new root", got)
	}
}

func TestWatchEventsReachViews(t *testing.T) {
	h := NewTestHelper(t)
	h.mem.Add("/home/carol")
	if got := h.ListLabels(); !slices.Contains(got, "carol") {
		t.Errorf("list = %v, want carol", got)
	}

	h.mem.Remove("/home/bob")
	if got := h.ListLabels(); slices.Contains(got, "bob") {
		t.Errorf("list = %v, bob was deleted", got)
	}
}

func TestLoopMessagesDrainQueue(t *testing.T) {
	h := NewTestHelper(t)
	l := loop.New(4)
	t.Cleanup(l.Stop)
	h.model.loop = l

	var ran []int
	l.Post(func() { ran = append(ran, 1) })
	l.Post(func() { ran = append(ran, 2) })

	msg := waitForLoop(l)()
	cmd := h.update(msg)
	if !slices.Equal(ran, []int{1, 2}) {
		t.Errorf("ran = %v", ran)
	}
	if cmd == nil {
		t.Error("loop message did not re-arm the loop command")
	}
	if h.model.Init() == nil {
		t.Error("Init without a loop command")
	}
}

func TestQuitAndHelpKeys(t *testing.T) {
	h := NewTestHelper(t)

	h.SendKeyRune('?')
	if !h.model.showHelp {
		t.Fatal("help not shown")
	}
	h.SendKeyRune('m') // ignored while help is open
	if !h.model.tree.Minitree() {
		t.Error("key leaked through the help overlay")
	}
	h.SendKey(tea.KeyEsc)
	if h.model.showHelp {
		t.Error("help still shown after esc")
	}

	if cmd := h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}); cmd == nil {
		t.Error("q returned no command")
	} else if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestCloseSavesLayout(t *testing.T) {
	h := NewTestHelper(t)
	path := filepath.Join(t.TempDir(), "state", "layout.json")
	h.model.layoutPath = path

	if err := h.model.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	l, err := layout.Load(path)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if len(l.Roots) != 1 || l.Roots[0].Node.Location != "/" {
		t.Errorf("roots = %+v", l.Roots)
	}
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		args    []string
		want    cliArgs
		wantErr bool
	}{
		{args: nil, want: cliArgs{}},
		{args: []string{"-d", "/tmp"}, want: cliArgs{debug: true, location: "/tmp"}},
		{args: []string{"--db", "x.db", "--no-restore"}, want: cliArgs{db: "x.db", noRestore: true}},
		{args: []string{"--db"}, wantErr: true},
		{args: []string{"a", "b"}, wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseArgs(tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseArgs(%v) error = %v", tt.args, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseArgs(%v) = %+v, want %+v", tt.args, got, tt.want)
		}
	}
}
