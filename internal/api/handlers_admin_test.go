// Parfour - Charity Golf Tournament Platform
// Copyright 2026 Parfour Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parfour/parfour

package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/parfour/parfour/internal/identity"
	"github.com/parfour/parfour/internal/media"
	"github.com/parfour/parfour/internal/sponsors"
)

func TestSponsorCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	rec := env.do(t, http.MethodPost, "/api/v1/admin/sponsors",
		`{"name":"Fairway Motors","tier":"gold","website_url":"https://fairway.example"}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	id, _ := dataField(t, resp, "id").(string)
	if id == "" {
		t.Fatal("created sponsor has no ID")
	}

	rec = env.do(t, http.MethodGet, "/api/v1/sponsors", "", nil)
	var list struct {
		Data []sponsors.Sponsor `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].Name != "Fairway Motors" {
		t.Fatalf("list = %+v", list.Data)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/admin/sponsors/"+id, "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/sponsors", "", nil)
	list.Data = nil
	_ = json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list.Data) != 0 {
		t.Errorf("sponsor survives delete: %+v", list.Data)
	}
}

func TestSponsorValidationOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	rec := env.do(t, http.MethodPost, "/api/v1/admin/sponsors",
		`{"name":"","tier":"diamond"}`, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error.Code != ErrCodeValidation {
		t.Errorf("error code = %q", resp.Error.Code)
	}
}

func TestWinnerCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	rec := env.do(t, http.MethodPost, "/api/v1/admin/winners",
		`{"year":2025,"division":"Mixed Scramble","names":["Pat","Chris"]}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/winners", "", nil)
	var list struct {
		Data []sponsors.Winner `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].Year != 2025 {
		t.Fatalf("list = %+v", list.Data)
	}
}

func TestUpdateFundsPersistsAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	rec := env.do(t, http.MethodPut, "/api/v1/admin/funds",
		`{"total_cents":1250000,"goal_cents":5000000}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/funds", "", nil)
	resp := decodeEnvelope(t, rec)
	if total, _ := dataField(t, resp, "total_cents").(float64); total != 1250000 {
		t.Errorf("total_cents = %v, want 1250000", total)
	}
}

func TestUpdateFundsRejectsNegative(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	rec := env.do(t, http.MethodPut, "/api/v1/admin/funds",
		`{"total_cents":-5,"goal_cents":0}`, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListUsersPassesPaging(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	var gotPage, gotPerPage int
	env.identity.listUsersFn = func(page, perPage int) (*identity.UsersPage, error) {
		gotPage, gotPerPage = page, perPage
		return &identity.UsersPage{Users: []identity.User{{ID: "u1", Email: "a@example.org"}}}, nil
	}

	rec := env.do(t, http.MethodGet, "/api/v1/admin/users?page=3&per_page=25", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotPage != 3 || gotPerPage != 25 {
		t.Errorf("paging = (%d, %d), want (3, 25)", gotPage, gotPerPage)
	}
}

func TestUpdateUserRole(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	rec := env.do(t, http.MethodPut, "/api/v1/admin/users/u42/role", `{"role":"admin"}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPut, "/api/v1/admin/users/u42/role", `{"role":"owner"}`, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown role status = %d, want 400", rec.Code)
	}
}

func TestUploadPhoto(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "logo.png")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("fake image bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if publicID, _ := dataField(t, resp, "public_id").(string); publicID != "sponsors/logo.png" {
		t.Errorf("public_id = %q", publicID)
	}
}

func TestUploadPhotoMediaNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	env.media.uploadFn = func(string) (*media.Asset, error) {
		return nil, &media.MissingCredentialError{Missing: []string{"api_secret"}}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "logo.png")
	_, _ = part.Write([]byte("x"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Error.Code != ErrCodeMediaNotConfigured {
		t.Errorf("error code = %q", resp.Error.Code)
	}
}

func TestListPhotosPassesFolder(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	var gotFolder string
	var gotMax int
	env.media.listFn = func(folder string, maxResults int) ([]media.Asset, error) {
		gotFolder = folder
		gotMax = maxResults
		return []media.Asset{{PublicID: "sponsors/logo", SecureURL: "https://media.example/logo"}}, nil
	}

	rec := env.do(t, http.MethodGet, "/api/v1/admin/photos?folder=sponsors&per_page=25", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if gotFolder != "sponsors" || gotMax != 25 {
		t.Errorf("List called with folder=%q max=%d", gotFolder, gotMax)
	}
	if body := rec.Body.String(); !strings.Contains(body, "sponsors/logo") {
		t.Errorf("body missing listed asset: %s", body)
	}
}

func TestListPhotosMediaNotConfigured(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	env.media.listFn = func(string, int) ([]media.Asset, error) {
		return nil, &media.MissingCredentialError{Missing: []string{"cloud_name"}}
	}

	rec := env.do(t, http.MethodGet, "/api/v1/admin/photos", "", cookie)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503, body %s", rec.Code, rec.Body.String())
	}
}

func TestDeletePhoto(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	rec := env.do(t, http.MethodDelete, "/api/v1/admin/photos/sponsors%2Flogo", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	env.media.mu.Lock()
	deleted := append([]string(nil), env.media.deleted...)
	env.media.mu.Unlock()
	if len(deleted) != 1 || deleted[0] != "sponsors/logo" {
		t.Errorf("deleted = %v", deleted)
	}
}

func TestBatchDeletePartialFailure(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	env.media.deleteFn = func(publicID string) error {
		if publicID == "bad" {
			return fmt.Errorf("upstream said no")
		}
		return nil
	}

	rec := env.do(t, http.MethodPost, "/api/v1/admin/photos/batch-delete",
		`{"public_ids":["good-1","bad","good-2"]}`, cookie)
	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207, body %s", rec.Code, rec.Body.String())
	}

	resp := decodeEnvelope(t, rec)
	if resp.Error.Code != ErrCodePartialBatchFailure {
		t.Errorf("error code = %q", resp.Error.Code)
	}
}

func TestBatchDeleteAllFailed(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	env.media.deleteFn = func(string) error {
		return fmt.Errorf("upstream down")
	}

	rec := env.do(t, http.MethodPost, "/api/v1/admin/photos/batch-delete",
		`{"public_ids":["a","b"]}`, cookie)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestBatchDeleteAllSucceed(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	rec := env.do(t, http.MethodPost, "/api/v1/admin/photos/batch-delete",
		`{"public_ids":["a","b","c"]}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestBatchDeleteRequiresIDs(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.signIn(t, "admin")

	rec := env.do(t, http.MethodPost, "/api/v1/admin/photos/batch-delete",
		`{"public_ids":[]}`, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
