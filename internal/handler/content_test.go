package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/portfolio/internal/handler"
	"github.com/sakif/portfolio/internal/repository/sqlite"
)

func TestContentHandler_HandleGet(t *testing.T) {
	env := newTestEnv(t)
	sha := env.seed(t, "data/content/site.json", siteJSON)
	h := env.contentHandler()

	t.Run("existing document", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/api/admin/content?key=site", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp handler.DocumentResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp.OK)
		assert.Equal(t, "data/content/site.json", resp.Path)
		assert.Equal(t, sha, resp.SHA)
		assert.JSONEq(t, siteJSON, string(resp.Content))
	})

	t.Run("unknown key", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/api/admin/content?key=secrets", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation_error", errorBody(t, rec).Error)
	})

	t.Run("missing document", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/api/admin/content?key=resume", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", errorBody(t, rec).Error)
	})
}

func TestContentHandler_HandleSave(t *testing.T) {
	post := func(h *handler.ContentHandler, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/content", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.HandleSave(rec, req)
		return rec
	}

	t.Run("saves with the loaded revision", func(t *testing.T) {
		env := newTestEnv(t)
		sha := env.seed(t, "data/content/site.json", siteJSON)

		rec := post(env.contentHandler(), `{"key":"site","data":{"name":"Jane Q. Doe","email":"jane@example.com","location":"Montreal","socials":{}},"sha":"`+sha+`"}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp handler.DocumentResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotEqual(t, sha, resp.SHA)

		file, err := env.store.Read(context.Background(), "data/content/site.json")
		require.NoError(t, err)
		assert.Equal(t, resp.SHA, file.SHA)
		assert.Equal(t, sqlite.BlobSHA(file.Content), file.SHA)
		assert.Contains(t, string(file.Content), "\n  \"name\": \"Jane Q. Doe\",\n")
		assert.True(t, strings.HasSuffix(string(file.Content), "}\n"))
	})

	t.Run("content is accepted as an alias of data", func(t *testing.T) {
		env := newTestEnv(t)

		rec := post(env.contentHandler(), `{"key":"resume","content":{"resumeUrl":"/resume/view"}}`)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("stale revision conflicts", func(t *testing.T) {
		env := newTestEnv(t)
		stale := env.seed(t, "data/content/site.json", siteJSON)
		env.seed(t, "data/content/site.json", `{"name":"Someone else"}`)

		rec := post(env.contentHandler(), `{"key":"site","data":{"name":"Jane"},"sha":"`+stale+`"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := errorBody(t, rec)
		assert.Equal(t, "conflict", resp.Error)
		assert.Contains(t, resp.Message, "reload and try again")
	})

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{"key":`},
		{name: "unknown key", body: `{"key":"users","data":{}}`},
		{name: "missing data", body: `{"key":"site"}`},
		{name: "null data", body: `{"key":"site","data":null}`},
		{name: "not an object", body: `{"key":"site","data":[1,2]}`},
		{name: "wrong field type", body: `{"key":"site","data":{"name":5}}`},
		{name: "bad seo enum", body: `{"key":"seo","data":{"openGraph":{"type":"movie"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			rec := post(env.contentHandler(), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "validation_error", errorBody(t, rec).Error)
		})
	}
}
