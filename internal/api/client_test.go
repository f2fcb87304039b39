package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskboard-cli/internal/apitest"
	"taskboard-cli/internal/model"
)

type staticTokens string

func (s staticTokens) AccessToken(context.Context) (string, error) { return string(s), nil }

func newTestClient(t *testing.T) (*apitest.Server, *Client, model.User) {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	me := srv.AddUser("alice", "pw")
	c := NewClient(srv.URL+"/", staticTokens(srv.Token(me.ID)), nil)
	return srv, c, me
}

func TestClient_SendsJWTHeader(t *testing.T) {
	t.Parallel()

	srv, c, me := newTestClient(t)
	got, err := c.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if got != me {
		t.Fatalf("expected %#v; got %#v", me, got)
	}
	hdrs := srv.AuthHeaders()
	if len(hdrs) != 1 || !strings.HasPrefix(hdrs[0], "JWT ") {
		t.Fatalf("expected one JWT auth header; got %#v", hdrs)
	}
}

func TestClient_LoginDoesNotSendAuth(t *testing.T) {
	t.Parallel()

	srv, c, _ := newTestClient(t)
	tp, err := c.Login(context.Background(), model.Credentials{Username: "alice", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tp.Access == "" || tp.Refresh == "" {
		t.Fatalf("expected token pair; got %#v", tp)
	}
	if h := srv.AuthHeaders()[0]; h != "" {
		t.Fatalf("login must not carry an Authorization header; got %q", h)
	}

	_, err = c.Login(context.Background(), model.Credentials{Username: "alice", Password: "wrong"})
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError for bad credentials; got %v", err)
	}
}

func TestClient_TaskCRUDRoundTrip(t *testing.T) {
	t.Parallel()

	srv, c, me := newTestClient(t)
	cat := srv.AddCategory("Backend")
	ctx := context.Background()

	draft := model.TaskDraft{Task: "Write docs", Description: "d", Criteria: "c", Status: "1", Category: cat.ID, Estimate: 3, Responsible: me.ID}
	created, err := c.CreateTask(ctx, draft)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.ID == 0 || created.Draft() != (model.TaskDraft{ID: created.ID, Task: "Write docs", Description: "d", Criteria: "c", Status: "1", Category: cat.ID, Estimate: 3, Responsible: me.ID}) {
		t.Fatalf("created task does not echo submitted fields: %#v", created)
	}
	if created.CategoryItem != "Backend" || created.OwnerUsername != "alice" || created.StatusName == "" {
		t.Fatalf("expected server-derived labels; got %#v", created)
	}

	upd := created.Draft()
	upd.Status = "2"
	updated, err := c.UpdateTask(ctx, upd)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Status != "2" || updated.ID != created.ID {
		t.Fatalf("unexpected update result: %#v", updated)
	}

	list, err := c.Tasks(ctx)
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(list) != 1 || list[0] != updated {
		t.Fatalf("expected list to hold the updated task; got %#v", list)
	}

	if err := c.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if ids := srv.TaskIDs(); len(ids) != 0 {
		t.Fatalf("expected no tasks after delete; got %v", ids)
	}
}

func TestClient_UpdateTaskRequiresID(t *testing.T) {
	t.Parallel()

	_, c, _ := newTestClient(t)
	if _, err := c.UpdateTask(context.Background(), model.TaskDraft{Task: "x"}); err == nil {
		t.Fatalf("expected error for id 0")
	}
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	t.Parallel()

	srv, c, _ := newTestClient(t)
	ctx := context.Background()

	// 401 => AuthError.
	anon := NewClient(srv.URL, staticTokens(""), nil)
	_, err := anon.Tasks(ctx)
	if Kind(err) != KindAuth {
		t.Fatalf("expected auth error; got %v (%v)", Kind(err), err)
	}

	// 400 with field errors => ValidationError.
	_, err = c.CreateTask(ctx, model.TaskDraft{Task: "", Estimate: 0})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError; got %v", err)
	}
	if len(ve.Fields["task"]) == 0 || len(ve.Fields["estimate"]) == 0 {
		t.Fatalf("expected task and estimate field errors; got %#v", ve.Fields)
	}

	// 5xx => StatusError.
	srv.FailNext(http.MethodGet, "/api/users/", http.StatusBadGateway)
	_, err = c.Users(ctx)
	if Kind(err) != KindServer {
		t.Fatalf("expected server error; got %v (%v)", Kind(err), err)
	}

	// Connection refused => TransportError.
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()
	_, err = NewClient(deadURL, staticTokens("x"), nil).Categories(ctx)
	var te *TransportError
	if !errors.As(err, &te) || Kind(err) != KindTransport {
		t.Fatalf("expected TransportError; got %v", err)
	}
}

func TestClient_TimeoutIsTransportError(t *testing.T) {
	t.Parallel()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(slow.Close)

	c := NewClient(slow.URL, staticTokens("x"), nil, WithTimeout(20*time.Millisecond))
	_, err := c.Tasks(context.Background())
	if Kind(err) != KindTransport {
		t.Fatalf("expected transport error on timeout; got %v", err)
	}
}

func TestClient_ProfileCreateAndUpload(t *testing.T) {
	t.Parallel()

	srv, c, me := newTestClient(t)
	ctx := context.Background()

	p, err := c.CreateProfile(ctx)
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if p.UserProfile != me.ID || p.Img != nil {
		t.Fatalf("expected empty profile for %d; got %#v", me.ID, p)
	}

	img := filepath.Join(t.TempDir(), "avatar.png")
	if err := os.WriteFile(img, []byte("\x89PNG fake"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	up, err := c.UpdateProfile(ctx, p.ID, img)
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if up.Img == nil || !strings.HasSuffix(*up.Img, "/media/avatar.png") {
		t.Fatalf("expected uploaded avatar url; got %#v", up.Img)
	}
	if got := srv.ProfilesSnapshot(); len(got) != 1 || got[0].Img == nil {
		t.Fatalf("expected server profile updated; got %#v", got)
	}

	if _, err := c.UpdateProfile(ctx, p.ID, filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatalf("expected error for missing avatar file")
	}
}

func TestClient_Categories(t *testing.T) {
	t.Parallel()

	_, c, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := c.CreateCategory(ctx, "Ops"); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	cats, err := c.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 1 || cats[0].Item != "Ops" {
		t.Fatalf("unexpected categories: %#v", cats)
	}
}

func TestFieldsFromBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want map[string][]string
	}{
		{name: "object of lists", in: `{"task":["blank"]}`, want: map[string][]string{"task": {"blank"}}},
		{name: "object of strings", in: `{"detail":"nope"}`, want: map[string][]string{"detail": {"nope"}}},
		{name: "list", in: `["a","b"]`, want: map[string][]string{"non_field_errors": {"a", "b"}}},
		{name: "text", in: `bad request`, want: map[string][]string{"non_field_errors": {"bad request"}}},
		{name: "empty", in: ``, want: nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := fieldsFromBody([]byte(tt.in))
			if len(got) != len(tt.want) {
				t.Fatalf("got %#v want %#v", got, tt.want)
			}
			for k, v := range tt.want {
				if strings.Join(got[k], "|") != strings.Join(v, "|") {
					t.Fatalf("field %q: got %#v want %#v", k, got[k], v)
				}
			}
		})
	}
}
