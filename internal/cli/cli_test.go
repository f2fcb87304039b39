package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"taskboard-cli/internal/apitest"
	"taskboard-cli/internal/model"
	"taskboard-cli/internal/perm"
	"taskboard-cli/internal/store"
)

type cliEnv struct {
	srv     *apitest.Server
	dataDir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	return &cliEnv{srv: srv, dataDir: t.TempDir()}
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (stdout []byte, stderr []byte, err error) {
	t.Helper()
	full := append([]string{"--api-url", e.srv.URL, "--data-dir", e.dataDir}, args...)
	return runCLI(t, stdin, full)
}

// login signs username in through the login command.
func (e *cliEnv) login(t *testing.T, username, password string) {
	t.Helper()
	if _, stderr, err := e.run(t, password+"\n", "login", "--username", username, "--password-file", "-"); err != nil {
		t.Fatalf("login %s: %v (stderr=%s)", username, err, stderr)
	}
}

func runCLI(t *testing.T, stdin string, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

func decodeData(t *testing.T, b []byte, into any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("expected JSON envelope; got %q (%v)", string(b), err)
	}
	if err := json.Unmarshal(env.Data, into); err != nil {
		t.Fatalf("decode data %s: %v", string(env.Data), err)
	}
}

func TestLogin_StoresTokenAndPrintsUser(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	alice := e.srv.AddUser("alice", "pw")

	out, stderr, err := e.run(t, "pw\n", "login", "--username", " alice ", "--password-file", "-")
	if err != nil {
		t.Fatalf("login: %v (stderr=%s)", err, stderr)
	}
	var got model.User
	decodeData(t, out, &got)
	if got != alice {
		t.Fatalf("expected %#v; got %#v", alice, got)
	}

	st := store.Store{Dir: e.dataDir}
	tok, err := st.AccessToken(t.Context())
	if err != nil || tok == "" {
		t.Fatalf("expected stored token; got %q (%v)", tok, err)
	}
	if name, _ := st.LastUsername(t.Context()); name != "alice" {
		t.Fatalf("expected last username alice; got %q", name)
	}
}

func TestLogin_PasswordFileAndLastUsername(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	e.srv.AddUser("alice", "pw")
	e.login(t, "alice", "pw")

	pwFile := filepath.Join(t.TempDir(), "pw")
	if err := os.WriteFile(pwFile, []byte("pw\n"), 0o600); err != nil {
		t.Fatalf("write password file: %v", err)
	}
	// No --username: the last one used is reused.
	out, stderr, err := e.run(t, "", "login", "--password-file", pwFile)
	if err != nil {
		t.Fatalf("login: %v (stderr=%s)", err, stderr)
	}
	var got model.User
	decodeData(t, out, &got)
	if got.Username != "alice" {
		t.Fatalf("expected alice; got %#v", got)
	}
}

func TestLogin_BadPassword(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	e.srv.AddUser("alice", "pw")

	out, stderr, err := e.run(t, "nope\n", "login", "--username", "alice", "--password-file", "-")
	if err == nil {
		t.Fatalf("expected login failure")
	}
	if len(out) != 0 {
		t.Fatalf("expected no stdout on failure; got %q", string(out))
	}
	if !strings.Contains(string(stderr), "check username and password") {
		t.Fatalf("expected credentials hint; got %q", string(stderr))
	}
	if tok, _ := (store.Store{Dir: e.dataDir}).AccessToken(t.Context()); tok != "" {
		t.Fatalf("expected no token stored; got %q", tok)
	}
}

func TestRegister_CreatesProfile(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	out, stderr, err := e.run(t, "secret\n", "register", "--username", "carol", "--password-file", "-")
	if err != nil {
		t.Fatalf("register: %v (stderr=%s)", err, stderr)
	}
	var got struct {
		Username string        `json:"username"`
		Profile  model.Profile `json:"profile"`
	}
	decodeData(t, out, &got)
	if got.Username != "carol" || got.Profile.ID == 0 || got.Profile.Img != nil {
		t.Fatalf("unexpected register output: %#v", got)
	}
	if ps := e.srv.ProfilesSnapshot(); len(ps) != 1 || ps[0].UserProfile != got.Profile.UserProfile {
		t.Fatalf("expected one server profile; got %#v", ps)
	}

	// Taken username fails with a validation message.
	_, stderr, err = e.run(t, "secret\n", "register", "--username", "carol", "--password-file", "-")
	if err == nil || !strings.Contains(string(stderr), "already exists") {
		t.Fatalf("expected duplicate username error; got %v (stderr=%s)", err, stderr)
	}
}

func TestTasks_UnauthenticatedHintsLogin(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	_, stderr, err := e.run(t, "", "tasks", "list")
	if err == nil {
		t.Fatalf("expected auth failure")
	}
	if !strings.Contains(string(stderr), "taskboard login") {
		t.Fatalf("expected login hint; got %q", string(stderr))
	}
}

func TestTasks_CreateListShowUpdateDelete(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	alice := e.srv.AddUser("alice", "pw")
	bob := e.srv.AddUser("bob", "pw")
	e.srv.AddCategory("Backend")
	ops := e.srv.AddCategory("Ops")
	e.login(t, "alice", "pw")

	out, stderr, err := e.run(t, "", "tasks", "create",
		"--task", "Write docs", "--description", "Explain **setup**", "--criteria", "README merged",
		"--estimate", "3", "--category", "2")
	if err != nil {
		t.Fatalf("create: %v (stderr=%s)", err, stderr)
	}
	var created model.Task
	decodeData(t, out, &created)
	if created.ID == 0 || created.Owner != alice.ID || created.Responsible != alice.ID {
		t.Fatalf("expected task owned by and assigned to alice; got %#v", created)
	}
	if created.Status != model.StatusNotStarted || created.CategoryItem != ops.Item || created.Estimate != 3 {
		t.Fatalf("unexpected created fields: %#v", created)
	}

	out, _, err = e.run(t, "", "tasks", "show", "1")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var shown model.Task
	decodeData(t, out, &shown)
	if shown != created {
		t.Fatalf("show: expected %#v; got %#v", created, shown)
	}

	out, stderr, err = e.run(t, "", "tasks", "update", "1", "--status", "2", "--responsible", "2")
	if err != nil {
		t.Fatalf("update: %v (stderr=%s)", err, stderr)
	}
	var updated model.Task
	decodeData(t, out, &updated)
	if updated.Status != "2" || updated.Responsible != bob.ID || updated.ResponsibleUsername != "bob" {
		t.Fatalf("unexpected update result: %#v", updated)
	}
	// Unset flags keep their values.
	if updated.Task != created.Task || updated.Estimate != created.Estimate || updated.Category != created.Category {
		t.Fatalf("update changed fields it was not asked to: %#v", updated)
	}

	out, stderr, err = e.run(t, "", "tasks", "delete", "1")
	if err != nil {
		t.Fatalf("delete: %v (stderr=%s)", err, stderr)
	}
	var del map[string]any
	decodeData(t, out, &del)
	if del["deleted"] != true || del["id"] != float64(1) {
		t.Fatalf("unexpected delete output: %#v", del)
	}
	if ids := e.srv.TaskIDs(); len(ids) != 0 {
		t.Fatalf("expected no tasks left; got %v", ids)
	}

	_, stderr, err = e.run(t, "", "tasks", "show", "1")
	var nf notFoundError
	if !errors.As(err, &nf) || !strings.Contains(string(stderr), "task not found: 1") {
		t.Fatalf("expected not found; got %v (stderr=%s)", err, stderr)
	}
}

func TestTasks_ListSortAndFilter(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	alice := e.srv.AddUser("alice", "pw")
	e.srv.AddCategory("Backend")
	for _, tc := range []struct {
		name string
		days int
	}{{"alpha", 3}, {"beta", 1}, {"gamma", 2}} {
		e.srv.AddTask(alice.ID, model.TaskDraft{Task: tc.name, Status: "1", Category: 1, Estimate: tc.days, Responsible: alice.ID})
	}
	e.login(t, "alice", "pw")

	estimates := func(args ...string) []int {
		t.Helper()
		out, stderr, err := e.run(t, "", append([]string{"tasks", "list"}, args...)...)
		if err != nil {
			t.Fatalf("list %v: %v (stderr=%s)", args, err, stderr)
		}
		var ts []model.Task
		decodeData(t, out, &ts)
		got := make([]int, len(ts))
		for i, tk := range ts {
			got[i] = tk.Estimate
		}
		return got
	}

	tests := []struct {
		args []string
		want []int
	}{
		{args: nil, want: []int{3, 1, 2}},
		{args: []string{"--sort", "estimate"}, want: []int{3, 2, 1}},
		{args: []string{"--sort", "Estimate", "--asc"}, want: []int{1, 2, 3}},
		{args: []string{"--filter", "GAM"}, want: []int{2}},
		{args: []string{"--filter", "nothing-matches"}, want: []int{}},
	}
	for _, tt := range tests {
		got := estimates(tt.args...)
		if len(got) != len(tt.want) {
			t.Fatalf("list %v: expected %v; got %v", tt.args, tt.want, got)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("list %v: expected %v; got %v", tt.args, tt.want, got)
			}
		}
	}

	_, stderr, err := e.run(t, "", "tasks", "list", "--sort", "priority")
	if err == nil || !strings.Contains(string(stderr), "unknown sort column") {
		t.Fatalf("expected unknown column error; got %v (stderr=%s)", err, stderr)
	}
}

func TestTasks_ForeignTaskIsReadOnly(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	e.srv.AddUser("alice", "pw")
	bob := e.srv.AddUser("bob", "pw")
	e.srv.AddCategory("Backend")
	e.srv.AddTask(bob.ID, model.TaskDraft{Task: "bob's", Status: "1", Category: 1, Estimate: 1, Responsible: bob.ID})
	e.login(t, "alice", "pw")

	if _, _, err := e.run(t, "", "tasks", "show", "1"); err != nil {
		t.Fatalf("show foreign task: %v", err)
	}
	for _, args := range [][]string{
		{"tasks", "update", "1", "--status", "3"},
		{"tasks", "delete", "1"},
	} {
		_, stderr, err := e.run(t, "", args...)
		if !errors.Is(err, perm.ErrNotOwner) {
			t.Fatalf("%v: expected ErrNotOwner; got %v", args, err)
		}
		if !strings.Contains(string(stderr), "bob") {
			t.Fatalf("%v: expected owner in message; got %q", args, string(stderr))
		}
	}
	for _, req := range e.srv.Requests() {
		if strings.HasPrefix(req, "PUT ") || strings.HasPrefix(req, "DELETE ") {
			t.Fatalf("expected no write requests; got %v", e.srv.Requests())
		}
	}
}

func TestTasks_CreateValidation(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	e.srv.AddUser("alice", "pw")
	e.login(t, "alice", "pw")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing fields", args: []string{"--task", "x"}, want: "required"},
		{name: "estimate", args: []string{"--task", "x", "--description", "d", "--criteria", "c", "--estimate", "0"}, want: "at least 1"},
		{name: "status", args: []string{"--task", "x", "--description", "d", "--criteria", "c", "--status", "9"}, want: "invalid --status"},
	}
	for _, tt := range tests {
		_, stderr, err := e.run(t, "", append([]string{"tasks", "create"}, tt.args...)...)
		if err == nil || !strings.Contains(string(stderr), tt.want) {
			t.Fatalf("%s: expected %q; got %v (stderr=%s)", tt.name, tt.want, err, stderr)
		}
	}
	if ids := e.srv.TaskIDs(); len(ids) != 0 {
		t.Fatalf("expected nothing created; got %v", ids)
	}
}

func TestWhoamiAndLogout(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	alice := e.srv.AddUser("alice", "pw")
	e.login(t, "alice", "pw")

	out, stderr, err := e.run(t, "", "whoami")
	if err != nil {
		t.Fatalf("whoami: %v (stderr=%s)", err, stderr)
	}
	var who whoami
	decodeData(t, out, &who)
	if who.User != alice || who.UserID != alice.ID || who.ExpiresAt == nil {
		t.Fatalf("unexpected whoami: %#v", who)
	}

	if _, _, err := e.run(t, "", "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, stderr, err = e.run(t, "", "whoami")
	if err == nil || !strings.Contains(string(stderr), "not logged in") {
		t.Fatalf("expected not logged in; got %v (stderr=%s)", err, stderr)
	}
	if name, _ := (store.Store{Dir: e.dataDir}).LastUsername(t.Context()); name != "alice" {
		t.Fatalf("logout should keep the last username; got %q", name)
	}
}

func TestCategoriesUsersProfiles(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	e.srv.AddUser("alice", "pw")
	e.srv.AddUser("bob", "pw")
	e.login(t, "alice", "pw")

	out, stderr, err := e.run(t, "", "categories", "create", "  Ops  ")
	if err != nil {
		t.Fatalf("categories create: %v (stderr=%s)", err, stderr)
	}
	var cat model.Category
	decodeData(t, out, &cat)
	if cat.Item != "Ops" {
		t.Fatalf("expected trimmed label; got %#v", cat)
	}

	out, _, err = e.run(t, "", "--format", "text", "categories", "list")
	if err != nil {
		t.Fatalf("categories list: %v", err)
	}
	if !strings.Contains(string(out), "Ops") || strings.Contains(string(out), `"data"`) {
		t.Fatalf("expected a text table; got %q", string(out))
	}

	out, _, err = e.run(t, "", "users", "list")
	if err != nil {
		t.Fatalf("users list: %v", err)
	}
	var users []model.User
	decodeData(t, out, &users)
	if len(users) != 2 || users[1].Username != "bob" {
		t.Fatalf("unexpected users: %#v", users)
	}

	img := filepath.Join(t.TempDir(), "me.png")
	if err := os.WriteFile(img, []byte("\x89PNG fake"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	out, stderr, err = e.run(t, "", "profiles", "set-avatar", img)
	if err != nil {
		t.Fatalf("set-avatar: %v (stderr=%s)", err, stderr)
	}
	var p model.Profile
	decodeData(t, out, &p)
	if p.Img == nil || !strings.HasSuffix(*p.Img, "/media/me.png") {
		t.Fatalf("expected uploaded avatar; got %#v", p)
	}

	out, _, err = e.run(t, "", "profiles", "list")
	if err != nil {
		t.Fatalf("profiles list: %v", err)
	}
	var ps []model.Profile
	decodeData(t, out, &ps)
	if len(ps) != 1 || ps[0].ID != p.ID {
		t.Fatalf("expected the one created profile; got %#v", ps)
	}

	_, _, err = e.run(t, "", "profiles", "set-avatar", filepath.Join(t.TempDir(), "missing.png"))
	if err == nil {
		t.Fatalf("expected error for missing image")
	}
}

func TestUnknownFormat(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	e.srv.AddUser("alice", "pw")
	e.login(t, "alice", "pw")

	if _, _, err := e.run(t, "", "--format", "yaml", "users", "list"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestDocs(t *testing.T) {
	t.Parallel()

	e := newCLIEnv(t)
	out, _, err := e.run(t, "", "docs")
	if err != nil {
		t.Fatalf("docs: %v", err)
	}
	var list struct {
		Topics []string `json:"topics"`
	}
	decodeData(t, out, &list)
	if len(list.Topics) == 0 {
		t.Fatalf("expected topics")
	}

	out, _, err = e.run(t, "", "docs", "scripting", "--raw")
	if err != nil || !strings.HasPrefix(string(out), "# Scripting") {
		t.Fatalf("expected raw markdown; got %q (%v)", string(out), err)
	}

	if _, _, err := e.run(t, "", "docs", "nope"); err == nil {
		t.Fatalf("expected unknown topic error")
	}
}
