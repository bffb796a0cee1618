package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/khaled-muhammad/moveit-cli/pkg/domain"
)

func TestCreateBeam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/beams/create/" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(CreateBeamResponse{ //nolint:errcheck
			BeamID:  "3fa85f64-5717-4562-b3fc-2c963f66afa6",
			BeamKey: "sekrit",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	beam, err := c.CreateBeam(context.Background())
	if err != nil {
		t.Fatalf("CreateBeam() error: %v", err)
	}
	if beam.BeamID != "3fa85f64-5717-4562-b3fc-2c963f66afa6" {
		t.Errorf("BeamID = %q", beam.BeamID)
	}
	if beam.BeamKey != "sekrit" {
		t.Errorf("BeamKey = %q, want %q", beam.BeamKey, "sekrit")
	}
}

func TestBeamNotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/notes/beam_notes/" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("beam_id"); got != "3fa85f64-5717-4562-b3fc-2c963f66afa6" {
			t.Errorf("beam_id param = %q", got)
		}
		json.NewEncoder(w).Encode([]domain.Note{ //nolint:errcheck
			{Content: "milk", NoteType: "text"},
			{Title: "screenshot", NoteType: "image"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	notes, err := c.BeamNotes(context.Background(), "3fa85f64-5717-4562-b3fc-2c963f66afa6")
	if err != nil {
		t.Fatalf("BeamNotes() error: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("got %d notes, want 2", len(notes))
	}
	if notes[1].NoteType != "image" {
		t.Errorf("notes[1].NoteType = %q, want image", notes[1].NoteType)
	}
}

func TestRefreshReplayOn401(t *testing.T) {
	var meCalls, refreshCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/me":
			meCalls++
			if meCalls == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"detail": "token expired"}) //nolint:errcheck
				return
			}
			json.NewEncoder(w).Encode(map[string]*domain.User{"user": {Username: "khaled"}}) //nolint:errcheck
		case "/auth/refresh/":
			refreshCalls++
			json.NewEncoder(w).Encode(map[string]bool{"success": true}) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	me, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error: %v", err)
	}
	if me.Username != "khaled" {
		t.Errorf("Username = %q, want khaled", me.Username)
	}
	if meCalls != 2 || refreshCalls != 1 {
		t.Errorf("meCalls = %d, refreshCalls = %d; want 2 and 1", meCalls, refreshCalls)
	}
}

func TestRefreshFailureFiresAuthExpiredOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "token expired"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	var fired int
	c.OnAuthExpired(func() { fired++ })

	if _, err := c.Me(context.Background()); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Me() error = %v, want ErrSessionExpired", err)
	}
	if _, err := c.Me(context.Background()); err == nil {
		t.Fatal("second Me() should still fail")
	}
	if fired != 1 {
		t.Errorf("auth-expired handler fired %d times, want 1", fired)
	}
}

func TestLogin401DoesNotRefresh(t *testing.T) {
	var refreshCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh/" {
			refreshCalls++
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid credentials."}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Login(context.Background(), LoginRequest{Username: "khaled", Password: "wrong"})
	if err == nil {
		t.Fatal("expected error for bad credentials")
	}
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Errorf("error = %v, want HTTP 401", err)
	}
	if refreshCalls != 0 {
		t.Errorf("refresh called %d times on login failure, want 0", refreshCalls)
	}
}

func TestLoginSetsCookiesForLaterCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login/":
			http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "tok", Path: "/"})
			json.NewEncoder(w).Encode(map[string]*domain.User{"user": {Username: "khaled"}}) //nolint:errcheck
		case "/auth/me":
			if ck, err := r.Cookie("access_token"); err != nil || ck.Value != "tok" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"detail": "no token"}) //nolint:errcheck
				return
			}
			json.NewEncoder(w).Encode(map[string]*domain.User{"user": {Username: "khaled"}}) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Login(context.Background(), LoginRequest{Username: "khaled", Password: "pw"}); err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	me, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() after login error: %v", err)
	}
	if me.Username != "khaled" {
		t.Errorf("Username = %q", me.Username)
	}
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload/" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer f.Close() //nolint:errcheck
		if hdr.Filename != "cat.png" {
			t.Errorf("filename = %q, want cat.png", hdr.Filename)
		}
		w.Write([]byte("https://files.example/abc123\n")) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Upload(context.Background(), "cat.png", strings.NewReader("pngbytes"))
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if res.URL != "https://files.example/abc123" {
		t.Errorf("URL = %q", res.URL)
	}
}

func TestShareLifecycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/beams/share/" && r.Method == http.MethodPost:
			var req ShareBeamRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(domain.BeamShare{ //nolint:errcheck
				ID: 7, BeamID: req.BeamID, SharedWith: req.Username, Permission: req.Permission,
			})
		case r.URL.Path == "/beams/unshare/7/" && r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/beams/update-share/7/" && r.Method == http.MethodPut:
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
			if body["permission"] != domain.PermissionEdit {
				t.Errorf("permission = %q, want edit", body["permission"])
			}
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	share, err := c.ShareBeam(context.Background(), ShareBeamRequest{
		BeamID: "3fa85f64-5717-4562-b3fc-2c963f66afa6", Username: "sara", Permission: domain.PermissionView,
	})
	if err != nil {
		t.Fatalf("ShareBeam() error: %v", err)
	}
	if share.ID != 7 || share.SharedWith != "sara" {
		t.Errorf("share = %+v", share)
	}
	if err := c.UpdateShare(context.Background(), 7, domain.PermissionEdit); err != nil {
		t.Fatalf("UpdateShare() error: %v", err)
	}
	if err := c.Unshare(context.Background(), 7); err != nil {
		t.Fatalf("Unshare() error: %v", err)
	}
}

func TestErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to upload to external service"}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.SharedWithMe(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsStatus(err, http.StatusBadGateway) {
		t.Errorf("IsStatus(err, 502) = false for %v", err)
	}
	if !strings.Contains(err.Error(), "Failed to upload") {
		t.Errorf("error = %q, want server message preserved", err.Error())
	}
}
