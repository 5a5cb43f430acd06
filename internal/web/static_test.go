// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package web_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/farmgate/internal/web"
)

func TestHandler(t *testing.T) {
	files := fstest.MapFS{
		"index.html":           {Data: []byte("home")},
		"login.html":           {Data: []byte("login")},
		"dashboard/index.html": {Data: []byte("dashboard")},
		"images/logo.png":      {Data: []byte("png")},
	}
	handler := web.NewHandler(files)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"root", http.MethodGet, "/", http.StatusOK, "home"},
		{"html_page", http.MethodGet, "/login", http.StatusOK, "login"},
		{"directory_index", http.MethodGet, "/dashboard", http.StatusOK, "dashboard"},
		{"client_route", http.MethodGet, "/blogs/fresh-tomatoes", http.StatusOK, "home"},
		{"asset", http.MethodGet, "/images/logo.png", http.StatusOK, "png"},
		{"missing_asset", http.MethodGet, "/images/missing.png", http.StatusNotFound, ""},
		{"post", http.MethodPost, "/login", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, recorder.Body.String())
			}
		})
	}
}
