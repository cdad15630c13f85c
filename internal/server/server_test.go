package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"podlib/internal/cache"
	"podlib/internal/config"
	"podlib/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupServer builds a server over an in-memory database and a bare Fiber app
// with only the API routes registered.
func setupServer(t *testing.T, cfg *config.Config) (*Server, *fiber.App) {
	t.Helper()

	if cfg == nil {
		cfg = &config.Config{}
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "test-secret-key"
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cache.SetClient(nil)

	srv := NewServerWithDeps(cfg, db, nil)
	app := fiber.New()
	srv.SetupRoutes(app)
	return srv, app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func signupAndLogin(t *testing.T, app *fiber.App, name, email, password string) string {
	t.Helper()

	resp, body := doJSON(t, app, "POST", "/api/signup", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["success"])

	resp, body = doJSON(t, app, "POST", "/api/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestSignup(t *testing.T) {
	_, app := setupServer(t, nil)

	tests := []struct {
		name           string
		requestBody    map[string]string
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "Valid signup",
			requestBody: map[string]string{
				"name": "Ana", "email": "a@x.com", "password": "pw",
			},
			expectedStatus: fiber.StatusOK,
		},
		{
			name: "Duplicate email",
			requestBody: map[string]string{
				"name": "Ana Again", "email": "a@x.com", "password": "other",
			},
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "DUPLICATE_EMAIL",
		},
		{
			name: "Missing name",
			requestBody: map[string]string{
				"email": "b@x.com", "password": "pw",
			},
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name: "Missing password",
			requestBody: map[string]string{
				"name": "B", "email": "b@x.com",
			},
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name: "Invalid email",
			requestBody: map[string]string{
				"name": "B", "email": "not-an-email", "password": "pw",
			},
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, app, "POST", "/api/signup", "", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, body["code"])
			} else {
				assert.Equal(t, true, body["success"])
			}
		})
	}
}

func TestLogin(t *testing.T) {
	_, app := setupServer(t, nil)

	resp, body := doJSON(t, app, "POST", "/api/signup", "", map[string]string{
		"name": "Ana", "email": "a@x.com", "password": "pw",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, "POST", "/api/login", "", map[string]string{
		"email": "a@x.com", "password": "pw",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, "Ana", body["name"])
	assert.Equal(t, "a@x.com", body["email"])

	resp, body = doJSON(t, app, "POST", "/api/login", "", map[string]string{
		"email": "a@x.com", "password": "wrong",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])

	resp, body = doJSON(t, app, "POST", "/api/login", "", map[string]string{
		"email": "nobody@x.com", "password": "pw",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", body["code"])
}

func TestLikeFlow(t *testing.T) {
	_, app := setupServer(t, nil)
	token := signupAndLogin(t, app, "Ana", "a@x.com", "pw")

	like := map[string]any{
		"podcast": map[string]any{"id": 123, "name": "Show"},
	}

	resp, body := doJSON(t, app, "POST", "/api/like", token, like)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	// Liking the same podcast again stays a single entry.
	resp, _ = doJSON(t, app, "POST", "/api/like", token, like)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	liked := getLiked(t, app, "a@x.com")
	require.Len(t, liked, 1)
	assert.Equal(t, float64(123), liked[0]["id"])
	assert.Equal(t, "Show", liked[0]["name"])

	// Unlike removes the entry; unliking again is a no-op.
	resp, body = doJSON(t, app, "PUT", "/api/unlike", token, map[string]string{"podcastId": "123"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, _ = doJSON(t, app, "PUT", "/api/unlike", token, map[string]string{"podcastId": "123"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Empty(t, getLiked(t, app, "a@x.com"))
}

func TestLikeEpisodeFavorite(t *testing.T) {
	_, app := setupServer(t, nil)
	token := signupAndLogin(t, app, "Ana", "a@x.com", "pw")

	// Episode favorites carry non-numeric ids; numeric show ids stay numbers.
	resp, _ := doJSON(t, app, "POST", "/api/like", token, map[string]any{
		"podcast": map[string]any{"id": 123, "name": "Show"},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, "POST", "/api/like", token, map[string]any{
		"podcast": map[string]any{"id": "ep-7", "name": "Great Episode", "favoriteType": "episode"},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	liked := getLiked(t, app, "a@x.com")
	require.Len(t, liked, 2)
	assert.Equal(t, float64(123), liked[0]["id"])
	assert.Equal(t, "ep-7", liked[1]["id"])
	assert.Equal(t, "episode", liked[1]["favoriteType"])

	resp, _ = doJSON(t, app, "PUT", "/api/unlike", token, map[string]string{"podcastId": "ep-7"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, getLiked(t, app, "a@x.com"), 1)
}

func TestClearLikes(t *testing.T) {
	_, app := setupServer(t, nil)
	token := signupAndLogin(t, app, "Ana", "a@x.com", "pw")

	for i := 1; i <= 3; i++ {
		resp, _ := doJSON(t, app, "POST", "/api/like", token, map[string]any{
			"podcast": map[string]any{"id": i, "name": fmt.Sprintf("Show %d", i)},
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	require.Len(t, getLiked(t, app, "a@x.com"), 3)

	resp, body := doJSON(t, app, "POST", "/api/clear-likes", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	assert.Empty(t, getLiked(t, app, "a@x.com"))
}

func getLiked(t *testing.T, app *fiber.App, email string) []map[string]any {
	t.Helper()

	req := httptest.NewRequest("GET", "/api/liked?email="+email, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var liked []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&liked))
	return liked
}

func TestMutationsRequireBearerToken(t *testing.T) {
	_, app := setupServer(t, nil)

	routes := []struct {
		method string
		path   string
	}{
		{"POST", "/api/like"},
		{"PUT", "/api/unlike"},
		{"POST", "/api/clear-likes"},
		{"PUT", "/api/profile"},
		{"POST", "/api/profile/image"},
		{"GET", "/api/profile/image"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			resp, body := doJSON(t, app, rt.method, rt.path, "", nil)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "UNAUTHORIZED", body["code"])

			resp, _ = doJSON(t, app, rt.method, rt.path, "not-a-token", nil)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestGetLikedValidation(t *testing.T) {
	_, app := setupServer(t, nil)

	req := httptest.NewRequest("GET", "/api/liked", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/liked?email=nobody@x.com", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetProfile(t *testing.T) {
	_, app := setupServer(t, nil)
	token := signupAndLogin(t, app, "Ana", "a@x.com", "pw")

	resp, _ := doJSON(t, app, "POST", "/api/like", token, map[string]any{
		"podcast": map[string]any{"id": 123, "name": "Show"},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, "GET", "/api/profile?email=a@x.com", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ana", body["name"])
	assert.Equal(t, "a@x.com", body["email"])
	assert.NotEmpty(t, body["createdAt"])
	likedPodcasts, ok := body["likedPodcasts"].([]any)
	require.True(t, ok)
	assert.Len(t, likedPodcasts, 1)

	resp, _ = doJSON(t, app, "GET", "/api/profile?email=nobody@x.com", "", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/api/profile", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUpdateProfileName(t *testing.T) {
	_, app := setupServer(t, nil)
	token := signupAndLogin(t, app, "Ana", "a@x.com", "pw")

	resp, body := doJSON(t, app, "PUT", "/api/profile", token, map[string]string{"name": "Ana Maria"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, body = doJSON(t, app, "GET", "/api/profile?email=a@x.com", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ana Maria", body["name"])

	resp, _ = doJSON(t, app, "PUT", "/api/profile", token, map[string]string{"name": ""})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestProfileImageLifecycle(t *testing.T) {
	_, app := setupServer(t, nil)
	token := signupAndLogin(t, app, "Ana", "a@x.com", "pw")

	// No image yet.
	resp, body := doJSON(t, app, "GET", "/api/profile/image", token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])

	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(png)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/profile/image", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	uploadResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, uploadResp.StatusCode)

	req = httptest.NewRequest("GET", "/api/profile/image", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	getResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, getResp.StatusCode)
	assert.Equal(t, "image/png", getResp.Header.Get("Content-Type"))

	data, err := io.ReadAll(getResp.Body)
	require.NoError(t, err)
	assert.Equal(t, png, data)
}

func TestSearchPodcasts(t *testing.T) {
	directory := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"resultCount":1,"results":[{
			"collectionId":123,
			"collectionName":"Comedy Gold",
			"artistName":"Jane Host",
			"artworkUrl600":"https://img.example.com/600.jpg",
			"collectionViewUrl":"https://podcasts.apple.com/id123",
			"trackCount":42,
			"feedUrl":"https://feeds.example.com/comedy.xml"
		}]}`)
	}))
	defer directory.Close()

	_, app := setupServer(t, &config.Config{ItunesBaseURL: directory.URL})

	resp, body := doJSON(t, app, "GET", "/api/search", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	req := httptest.NewRequest("GET", "/api/search?query=comedy", nil)
	searchResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, searchResp.StatusCode)

	var results []map[string]any
	require.NoError(t, json.NewDecoder(searchResp.Body).Decode(&results))
	require.Len(t, results, 1)
	assert.Equal(t, float64(123), results[0]["id"])
	assert.Equal(t, "Comedy Gold", results[0]["name"])
	assert.Equal(t, "Jane Host", results[0]["publisher"])
}

func TestSearchUpstreamStatusPropagates(t *testing.T) {
	directory := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer directory.Close()

	_, app := setupServer(t, &config.Config{ItunesBaseURL: directory.URL})

	resp, body := doJSON(t, app, "GET", "/api/search?query=comedy", "", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "UPSTREAM_ERROR", body["code"])
}

func TestGetEpisodes(t *testing.T) {
	const rss = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Comedy Gold</title>
    <item>
      <title>With audio</title>
      <description>Has an enclosure</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
      <link>https://example.com/ep1</link>
      <enclosure url="https://cdn.example.com/ep1.mp3" type="audio/mpeg" length="1"/>
    </item>
    <item>
      <title>Without audio</title>
      <description>No enclosure</description>
    </item>
  </channel>
</rss>`

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rss)
	}))
	defer feedSrv.Close()

	_, app := setupServer(t, nil)

	resp, body := doJSON(t, app, "GET", "/api/episodes", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	req := httptest.NewRequest("GET", "/api/episodes?feedUrl="+feedSrv.URL, nil)
	epResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, epResp.StatusCode)

	var episodes []map[string]any
	require.NoError(t, json.NewDecoder(epResp.Body).Decode(&episodes))
	require.Len(t, episodes, 1)
	assert.Equal(t, "With audio", episodes[0]["title"])
	assert.Equal(t, "https://cdn.example.com/ep1.mp3", episodes[0]["audioUrl"])
}

func TestGetEpisodesFeedUnavailable(t *testing.T) {
	_, app := setupServer(t, nil)

	resp, body := doJSON(t, app, "GET", "/api/episodes?feedUrl=http://127.0.0.1:1/feed.xml", "", nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "UPSTREAM_ERROR", body["code"])
}
