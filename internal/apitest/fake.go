// Package apitest provides an in-memory fake of the task-board REST API for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"taskboard-cli/internal/model"

	"github.com/golang-jwt/jwt/v4"
)

var signingKey = []byte("apitest-signing-key")

type account struct {
	user     model.User
	password string
}

// Server is a fake API backed by maps. Safe for concurrent use.
type Server struct {
	*httptest.Server

	mu sync.Mutex

	nextUserID     int
	nextProfileID  int
	nextTaskID     int
	nextCategoryID int

	accounts   []account
	profiles   []model.Profile
	tasks      []model.Task // insertion order
	categories []model.Category

	// failures maps "METHOD /path/" to a status code returned once.
	failures map[string]int

	requests    []string
	authHeaders []string

	TokenTTL time.Duration
	Now      func() time.Time
}

func NewServer() *Server {
	s := &Server{
		nextUserID:     1,
		nextProfileID:  1,
		nextTaskID:     1,
		nextCategoryID: 1,
		failures:       map[string]int{},
		TokenTTL:       time.Hour,
		Now:            func() time.Time { return time.Date(2025, 12, 21, 9, 0, 0, 0, time.UTC) },
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// AddUser registers an account directly and returns it.
func (s *Server) AddUser(username, password string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, password)
}

func (s *Server) addUserLocked(username, password string) model.User {
	u := model.User{ID: s.nextUserID, Username: username}
	s.nextUserID++
	s.accounts = append(s.accounts, account{user: u, password: password})
	return u
}

// AddCategory seeds a category.
func (s *Server) AddCategory(item string) model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := model.Category{ID: s.nextCategoryID, Item: item}
	s.nextCategoryID++
	s.categories = append(s.categories, c)
	return c
}

// AddTask seeds a task owned by owner.
func (s *Server) AddTask(owner int, d model.TaskDraft) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.nextTaskID
	s.nextTaskID++
	t := s.readTaskLocked(d, owner, "")
	s.tasks = append(s.tasks, t)
	return t
}

// Token issues an access token for user id as the real server would.
func (s *Server) Token(userID int) string {
	now := s.Now()
	claims := jwt.MapClaims{
		"user_id":    userID,
		"token_type": "access",
		"exp":        now.Add(s.TokenTTL).Unix(),
		"iat":        now.Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return tok
}

// FailNext makes the next request to method+path answer with status.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

func (s *Server) TaskIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.ID)
	}
	return out
}

// Requests returns "METHOD /path/" of every request so far, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// AuthHeaders returns the Authorization header of every request so far, in order.
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeaders...)
}

func (s *Server) ProfilesSnapshot() []model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Profile(nil), s.profiles...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := r.Method + " " + r.URL.Path
	s.requests = append(s.requests, key)
	s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))

	if status, ok := s.failures[key]; ok {
		delete(s.failures, key)
		writeJSON(w, status, map[string]string{"detail": "injected failure"})
		return
	}

	path := r.URL.Path
	switch {
	case path == "/authen/jwt/create/" && r.Method == http.MethodPost:
		s.handleLogin(w, r)
		return
	case path == "/api/create/" && r.Method == http.MethodPost:
		s.handleRegister(w, r)
		return
	}

	me, ok := s.authenticate(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	switch {
	case path == "/api/loginuser/" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, me)
	case path == "/api/users/" && r.Method == http.MethodGet:
		users := make([]model.User, 0, len(s.accounts))
		for _, a := range s.accounts {
			users = append(users, a.user)
		}
		writeJSON(w, http.StatusOK, users)
	case path == "/api/category/":
		s.handleCategories(w, r)
	case path == "/api/profile/":
		s.handleProfiles(w, r, me)
	case strings.HasPrefix(path, "/api/profile/"):
		s.handleProfile(w, r, me, strings.TrimPrefix(path, "/api/profile/"))
	case path == "/api/tasks/":
		s.handleTasks(w, r, me)
	case strings.HasPrefix(path, "/api/tasks/"):
		s.handleTask(w, r, me, strings.TrimPrefix(path, "/api/tasks/"))
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
	}
}

func (s *Server) authenticate(r *http.Request) (model.User, bool) {
	h := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(h, "JWT ")
	if !ok || strings.TrimSpace(raw) == "" {
		return model.User{}, false
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return signingKey, nil },
		jwt.WithoutClaimsValidation())
	if err != nil {
		return model.User{}, false
	}
	if exp, ok := claims["exp"].(float64); ok && s.Now().Unix() >= int64(exp) {
		return model.User{}, false
	}
	idf, _ := claims["user_id"].(float64)
	for _, a := range s.accounts {
		if a.user.ID == int(idf) {
			return a.user, true
		}
	}
	return model.User{}, false
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	for _, a := range s.accounts {
		if a.user.Username == creds.Username && a.password == creds.Password {
			writeJSON(w, http.StatusOK, model.TokenPair{
				Access:  s.Token(a.user.ID),
				Refresh: "refresh-" + strconv.Itoa(a.user.ID),
			})
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	fields := map[string][]string{}
	if strings.TrimSpace(creds.Username) == "" {
		fields["username"] = append(fields["username"], "This field may not be blank.")
	}
	if strings.TrimSpace(creds.Password) == "" {
		fields["password"] = append(fields["password"], "This field may not be blank.")
	}
	for _, a := range s.accounts {
		if a.user.Username == creds.Username {
			fields["username"] = append(fields["username"], "A user with that username already exists.")
		}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}
	writeJSON(w, http.StatusCreated, s.addUserLocked(creds.Username, creds.Password))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, append([]model.Category{}, s.categories...))
	case http.MethodPost:
		var body struct {
			Item string `json:"item"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Item) == "" {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"item": {"This field may not be blank."}})
			return
		}
		c := model.Category{ID: s.nextCategoryID, Item: body.Item}
		s.nextCategoryID++
		s.categories = append(s.categories, c)
		writeJSON(w, http.StatusCreated, c)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request, me model.User) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, append([]model.Profile{}, s.profiles...))
	case http.MethodPost:
		var body struct {
			Img *string `json:"img"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		p := model.Profile{ID: s.nextProfileID, UserProfile: me.ID, Img: body.Img}
		s.nextProfileID++
		s.profiles = append(s.profiles, p)
		writeJSON(w, http.StatusCreated, p)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, me model.User, rest string) {
	id, err := strconv.Atoi(strings.TrimSuffix(rest, "/"))
	if err != nil || r.Method != http.MethodPut {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"img": {"Upload a valid image."}})
		return
	}
	for i, p := range s.profiles {
		if p.ID != id {
			continue
		}
		if p.UserProfile != me.ID {
			writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
			return
		}
		if files := r.MultipartForm.File["img"]; len(files) > 0 {
			url := s.URL + "/media/" + files[0].Filename
			p.Img = &url
		}
		s.profiles[i] = p
		writeJSON(w, http.StatusOK, p)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request, me model.User) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, append([]model.Task{}, s.tasks...))
	case http.MethodPost:
		d, ok := decodeDraft(w, r)
		if !ok {
			return
		}
		d.ID = s.nextTaskID
		s.nextTaskID++
		t := s.readTaskLocked(d, me.ID, "")
		s.tasks = append(s.tasks, t)
		writeJSON(w, http.StatusCreated, t)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request, me model.User, rest string) {
	id, err := strconv.Atoi(strings.TrimSuffix(rest, "/"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	idx := -1
	for i, t := range s.tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	cur := s.tasks[idx]
	if cur.Owner != me.ID && r.Method != http.MethodGet {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, cur)
	case http.MethodPut:
		d, ok := decodeDraft(w, r)
		if !ok {
			return
		}
		d.ID = id
		t := s.readTaskLocked(d, cur.Owner, cur.CreatedAt)
		s.tasks[idx] = t
		writeJSON(w, http.StatusOK, t)
	case http.MethodDelete:
		s.tasks = append(s.tasks[:idx:idx], s.tasks[idx+1:]...)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (model.TaskDraft, bool) {
	var d model.TaskDraft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return d, false
	}
	fields := map[string][]string{}
	if strings.TrimSpace(d.Task) == "" {
		fields["task"] = []string{"This field may not be blank."}
	}
	if d.Estimate < 1 {
		fields["estimate"] = []string{"Ensure this value is greater than or equal to 1."}
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, fields)
		return d, false
	}
	return d, true
}

func (s *Server) readTaskLocked(d model.TaskDraft, owner int, createdAt string) model.Task {
	now := s.Now().Format(time.RFC3339)
	if createdAt == "" {
		createdAt = now
	}
	t := model.Task{
		ID:          d.ID,
		Task:        d.Task,
		Description: d.Description,
		Criteria:    d.Criteria,
		Status:      d.Status,
		StatusName:  model.StatusLabel(d.Status),
		Category:    d.Category,
		Estimate:    d.Estimate,
		Responsible: d.Responsible,
		Owner:       owner,
		CreatedAt:   createdAt,
		UpdatedAt:   now,
	}
	for _, c := range s.categories {
		if c.ID == d.Category {
			t.CategoryItem = c.Item
		}
	}
	for _, a := range s.accounts {
		if a.user.ID == d.Responsible {
			t.ResponsibleUsername = a.user.Username
		}
		if a.user.ID == owner {
			t.OwnerUsername = a.user.Username
		}
	}
	return t
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintln(w, `{"detail":"encode failed"}`)
	}
}
