package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/mixpost-api/configs"
	"github.com/maheshrc27/mixpost-api/internal/metrics"
	"github.com/maheshrc27/mixpost-api/internal/models"
	"github.com/maheshrc27/mixpost-api/internal/repository/repotest"
	"github.com/maheshrc27/mixpost-api/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type noopScheduler struct{}

func (noopScheduler) SchedulePost(context.Context, int64, time.Time) error { return nil }

type testServer struct {
	app    *fiber.App
	db     *repotest.DB
	tmpDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log, _ := test.NewNullLogger()
	db := repotest.New()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = db.Users().Create(context.Background(), nil, &models.User{Name: "Jane", Email: "jane@example.com", Password: string(hash)})
	require.NoError(t, err)

	cfg := &config.Config{
		AppEnv:     "testing",
		AppVersion: "1.2.3",
		APIPrefix:  "api/mixpost",
		Token:      config.Token{AbilitiesEnabled: true},
		Pagination: config.Pagination{DefaultPerPage: 20, MaxPerPage: 100},
		Media: config.Media{
			LocalRoot:       t.TempDir(),
			PublicURL:       "http://localhost:3000/storage/media",
			MaxFileSizeKB:   1024,
			ThumbWidth:      430,
			DownloadTimeout: 5 * time.Second,
			TempDir:         t.TempDir(),
		},
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	storage := service.NewLocalStorage(cfg.Media.LocalRoot, cfg.Media.PublicURL)
	uploader := service.NewMediaUploader(log, storage, db.Media(), cfg.Media.MaxFileSizeKB, cfg.Media.ThumbWidth)
	downloader := service.NewDownloader(cfg.Media.DownloadTimeout, cfg.Media.MaxFileSizeKB, cfg.Media.TempDir)
	posts := service.NewPostService(log, time.UTC, db.Transactor(), db.Posts(), db.Accounts(), db.Tags(),
		db.PostAccounts(), db.PostTags(), db.PostVersions(), noopScheduler{}, m)

	srv := NewServer(cfg, log, m, registry, Services{
		Tokens:   service.NewTokenService(log, cfg.Token, db.Users(), db.Tokens(), m),
		Posts:    posts,
		Media:    service.NewMediaService(log, db.Media(), uploader, downloader, []service.Storage{storage}, m),
		Accounts: service.NewAccountService(log, db.Accounts()),
		Tags:     service.NewTagService(log, db.Tags()),
	})

	return &testServer{app: srv.App(), db: db, tmpDir: cfg.Media.TempDir}
}

type result struct {
	Status int
	Body   map[string]any
	Raw    string
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) result {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, "/api/mixpost"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.send(t, req)
}

func (s *testServer) send(t *testing.T, req *http.Request) result {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	res := result{Status: resp.StatusCode, Raw: string(raw)}
	_ = json.Unmarshal(raw, &res.Body)
	return res
}

func (s *testServer) token(t *testing.T, abilities ...string) string {
	t.Helper()
	body := map[string]any{"email": "jane@example.com", "password": "secret", "token_name": "tests"}
	if len(abilities) > 0 {
		body["abilities"] = abilities
	}
	res := s.do(t, http.MethodPost, "/auth/tokens", "", body)
	require.Equal(t, http.StatusCreated, res.Status, res.Raw)
	return res.Body["data"].(map[string]any)["token"].(string)
}

func data(t *testing.T, res result) map[string]any {
	t.Helper()
	d, ok := res.Body["data"].(map[string]any)
	require.True(t, ok, res.Raw)
	return d
}

func TestIssueToken(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, http.MethodPost, "/auth/tokens", "", map[string]any{
		"email": "jane@example.com", "password": "secret", "token_name": "ci",
	})
	require.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, true, res.Body["success"])
	assert.Equal(t, "API token created successfully", res.Body["message"])
	d := data(t, res)
	assert.Equal(t, "Bearer", d["token_type"])
	assert.Equal(t, []any{"*"}, d["abilities"])

	res = s.do(t, http.MethodPost, "/auth/tokens", "", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, false, res.Body["success"])
	errors := res.Body["errors"].(map[string]any)
	assert.Equal(t, []any{"Email address is required"}, errors["email"])
	assert.Equal(t, "Email address is required", res.Body["message"])
	assert.Contains(t, errors, "password")
	assert.Contains(t, errors, "token_name")

	res = s.do(t, http.MethodPost, "/auth/tokens", "", "{not json")
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, "The given data was invalid.", res.Body["message"])

	res = s.do(t, http.MethodPost, "/auth/tokens", "", map[string]any{
		"email": "jane@example.com", "password": "wrong", "token_name": "ci",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, "The provided credentials are incorrect.", res.Body["message"])
}

func TestTokenManagement(t *testing.T) {
	s := newTestServer(t)
	first := s.token(t)
	second := s.token(t)

	res := s.do(t, http.MethodGet, "/auth/tokens", first, nil)
	require.Equal(t, http.StatusOK, res.Status)
	list := res.Body["data"].([]any)
	require.Len(t, list, 2)
	assert.NotContains(t, list[0].(map[string]any), "token")

	res = s.do(t, http.MethodDelete, "/auth/tokens/current", second, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Current token revoked successfully", res.Body["message"])

	res = s.do(t, http.MethodGet, "/auth/tokens", second, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = s.do(t, http.MethodDelete, "/auth/tokens/999", first, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "Token not found", res.Body["message"])

	id, _, _ := strings.Cut(first, "|")
	res = s.do(t, http.MethodDelete, "/auth/tokens/"+id, first, nil)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Token deleted successfully", res.Body["message"])
}

func TestHealthRequiresToken(t *testing.T) {
	s := newTestServer(t)

	res := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Unauthenticated. Please provide a valid API token.", res.Body["message"])

	res = s.do(t, http.MethodGet, "/health", s.token(t), nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "ok", res.Body["status"])
	assert.Equal(t, "1.2.3", res.Body["version"])
	_, err := time.Parse(time.RFC3339, res.Body["timestamp"].(string))
	assert.NoError(t, err)

	res = s.do(t, http.MethodGet, "/health", s.token(t, "posts.index"), nil)
	assert.Equal(t, http.StatusForbidden, res.Status)
}

func TestPostLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t)
	account := s.db.AddAccount("Acme", "twitter")

	res := s.do(t, http.MethodPost, "/posts", token, map[string]any{
		"accounts": []int64{account.ID},
		"versions": []map[string]any{{
			"is_original": true,
			"content":     []map[string]any{{"body": "Launch day"}},
		}},
	})
	require.Equal(t, http.StatusCreated, res.Status, res.Raw)
	assert.Equal(t, "Post created successfully", res.Body["message"])
	created := data(t, res)
	assert.Equal(t, "draft", created["status"])
	postUUID := created["uuid"].(string)

	res = s.do(t, http.MethodPost, "/posts", token, map[string]any{"versions": []any{}})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Contains(t, res.Body["errors"], "versions")

	res = s.do(t, http.MethodGet, "/posts/"+postUUID, token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Len(t, data(t, res)["accounts"], 1)

	date := time.Now().UTC().AddDate(1, 0, 0).Format("2006-01-02")
	res = s.do(t, http.MethodPost, "/posts/"+postUUID+"/schedule", token, map[string]any{"date": date, "time": "10:00"})
	require.Equal(t, http.StatusOK, res.Status, res.Raw)
	assert.Equal(t, "Post scheduled successfully", res.Body["message"])
	assert.Equal(t, "scheduled", data(t, res)["status"])

	res = s.do(t, http.MethodPost, "/posts/"+postUUID+"/schedule", token, map[string]any{"date": "2001-01-01", "time": "10:00"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, "The scheduled date and time must be in the future.", res.Body["message"])

	res = s.do(t, http.MethodPost, "/posts/"+postUUID+"/publish", token, nil)
	require.Equal(t, http.StatusOK, res.Status, res.Raw)
	assert.Equal(t, "Post queued for immediate publishing", res.Body["message"])

	res = s.do(t, http.MethodPost, "/posts/"+postUUID+"/duplicate", token, nil)
	require.Equal(t, http.StatusCreated, res.Status)
	assert.Equal(t, "Post duplicated successfully", res.Body["message"])
	dupUUID := data(t, res)["uuid"].(string)

	res = s.do(t, http.MethodDelete, "/posts/"+dupUUID, token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Post deleted successfully", res.Body["message"])

	res = s.do(t, http.MethodGet, "/posts/"+dupUUID, token, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "Post not found", res.Body["message"])
}

func TestPostGuardsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t)
	published := s.db.AddPost(models.PostStatusPublished, models.ScheduleStatusPending, nil)

	res := s.do(t, http.MethodDelete, "/posts/"+published.UUID, token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, "Cannot delete posts that have already been published or failed", res.Body["message"])

	res = s.do(t, http.MethodPut, "/posts/"+published.UUID, token, map[string]any{
		"versions": []map[string]any{{"is_original": true, "content": []map[string]any{{"body": "x"}}}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Contains(t, res.Body["errors"], "in_history")

	draft := s.db.AddPost(models.PostStatusDraft, models.ScheduleStatusPending, nil)
	res = s.do(t, http.MethodDelete, "/posts", token, map[string]any{"posts": []string{draft.UUID, published.UUID}})
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "1 posts deleted successfully", res.Body["message"])

	res = s.do(t, http.MethodDelete, "/posts", token, map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
}

func TestPostListPagination(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t)
	for i := 0; i < 3; i++ {
		s.db.AddPost(models.PostStatusDraft, models.ScheduleStatusPending, nil)
	}
	s.db.AddPost(models.PostStatusFailed, models.ScheduleStatusPending, nil)

	res := s.do(t, http.MethodGet, "/posts?per_page=2&page=2", token, nil)
	require.Equal(t, http.StatusOK, res.Status, res.Raw)
	assert.Len(t, res.Body["data"], 2)

	meta := res.Body["meta"].(map[string]any)
	assert.Equal(t, 2.0, meta["current_page"])
	assert.Equal(t, 2.0, meta["last_page"])
	assert.Equal(t, 2.0, meta["per_page"])
	assert.Equal(t, 4.0, meta["total"])
	assert.Equal(t, 3.0, meta["from"])
	assert.Equal(t, 4.0, meta["to"])

	links := res.Body["links"].(map[string]any)
	assert.Equal(t, "http://example.com/api/mixpost/posts?page=1", links["first"])
	assert.Equal(t, "http://example.com/api/mixpost/posts?page=1", links["prev"])
	assert.Nil(t, links["next"])

	res = s.do(t, http.MethodGet, "/posts?status=failed", token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Len(t, res.Body["data"], 1)

	res = s.do(t, http.MethodGet, "/posts?status=bogus", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)

	res = s.do(t, http.MethodGet, "/posts?accounts[]=x", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
}

func TestMediaUploadAndDelete(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "pixel.gif")
	require.NoError(t, err)
	// Smallest valid GIF.
	_, err = part.Write([]byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/mixpost/media", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	res := s.send(t, req)
	require.Equal(t, http.StatusCreated, res.Status, res.Raw)
	assert.Equal(t, "Media uploaded successfully", res.Body["message"])
	media := data(t, res)
	assert.Equal(t, "image/gif", media["mime_type"])

	res = s.do(t, http.MethodGet, "/media", token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Len(t, res.Body["data"], 1)

	res = s.do(t, http.MethodPost, "/media", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, "The file field is required.", res.Body["message"])

	res = s.do(t, http.MethodDelete, "/media/"+media["uuid"].(string), token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Media deleted successfully", res.Body["message"])

	res = s.do(t, http.MethodDelete, "/media", token, map[string]any{"media": []int64{12345}})
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "0 media files deleted successfully", res.Body["message"])

	res = s.do(t, http.MethodPost, "/media/download", token, map[string]any{"url": "not a url"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
}

func TestMediaDownload(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t)

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 8, 8))))

	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/images/cover.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(img.Bytes())
		case "/huge.png":
			_, _ = w.Write(bytes.Repeat([]byte{0xff}, 2<<20))
		default:
			http.NotFound(w, r)
		}
	}))
	defer remote.Close()

	res := s.do(t, http.MethodPost, "/media/download", token, map[string]any{"url": remote.URL + "/images/cover.png"})
	require.Equal(t, http.StatusCreated, res.Status, res.Raw)
	assert.Equal(t, "Media downloaded successfully", res.Body["message"])
	media := data(t, res)
	assert.Equal(t, "cover.png", media["name"])
	assert.Equal(t, "image/png", media["mime_type"])

	res = s.do(t, http.MethodPost, "/media/download", token, map[string]any{"url": remote.URL + "/gone.png"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, "Failed to download file from URL", res.Body["message"])

	res = s.do(t, http.MethodPost, "/media/download", token, map[string]any{"url": remote.URL + "/huge.png"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, map[string]any{"file": []any{"The file must not be greater than 1024 kilobytes."}}, res.Body["errors"])

	entries, err := os.ReadDir(s.tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	res = s.do(t, http.MethodGet, "/media", token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Len(t, res.Body["data"], 1)
}

func TestAccountsAndTags(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t)
	account := s.db.AddAccount("Acme", "twitter")

	res := s.do(t, http.MethodGet, "/accounts", token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Len(t, res.Body["data"], 1)

	res = s.do(t, http.MethodPut, "/accounts/"+account.UUID, token, map[string]any{"name": "Renamed"})
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Account updated successfully", res.Body["message"])
	assert.Equal(t, "Renamed", data(t, res)["name"])

	res = s.do(t, http.MethodPost, "/tags", token, map[string]any{"name": "news", "hex_color": "#112233"})
	require.Equal(t, http.StatusCreated, res.Status, res.Raw)
	assert.Equal(t, "Tag created successfully", res.Body["message"])
	tagID := int64(data(t, res)["id"].(float64))

	res = s.do(t, http.MethodPost, "/tags", token, map[string]any{"name": "news"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, map[string]any{"name": []any{"The name has already been taken."}}, res.Body["errors"])

	res = s.do(t, http.MethodPost, "/tags", token, map[string]any{"name": "bad", "hex_color": "red"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)

	res = s.do(t, http.MethodPut, fmt.Sprintf("/tags/%d", tagID), token, map[string]any{"name": "updates"})
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Tag updated successfully", res.Body["message"])

	res = s.do(t, http.MethodDelete, fmt.Sprintf("/tags/%d", tagID), token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Tag deleted successfully", res.Body["message"])

	res = s.do(t, http.MethodDelete, "/accounts/"+account.UUID, token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Account deleted successfully", res.Body["message"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/health", "", nil)
	s.token(t)

	res := s.send(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.Raw, `mixpost_api_http_requests_total{method="GET",route="health",status="401"} 1`)
	assert.Contains(t, res.Raw, `mixpost_api_http_requests_total{method="POST",route="auth.tokens.create",status="201"} 1`)
}
