package web

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/justestif/go-moodify/internal/classifier"
	"github.com/justestif/go-moodify/internal/history"
	"github.com/justestif/go-moodify/internal/journey"
	"github.com/justestif/go-moodify/internal/mood"
	"github.com/justestif/go-moodify/internal/playlist"
	"github.com/justestif/go-moodify/internal/storage"
	webfs "github.com/justestif/go-moodify/web"
)

const (
	alice = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	bob   = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func newTestServer(t *testing.T) (*Server, *history.Manager) {
	t.Helper()

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	require.NoError(t, err)
	static, err := fs.Sub(webfs.StaticFS, "static")
	require.NoError(t, err)

	histories := history.NewManager(storage.NewMemory())
	srv, err := NewServer(ServerConfig{
		Addr:        ":0",
		BaseURL:     "https://moodify.test",
		TemplatesFS: templates,
		StaticFS:    static,
		Histories:   histories,
		Classifier:  classifier.NewKeyword(),
		Playlists:   playlist.NewSource(playlist.Default(), nil),
		Journey:     journey.DefaultConfig(),
		Logger:      zap.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(srv.hub.Close)
	return srv, histories
}

func do(t *testing.T, h http.Handler, method, path, body, visitor string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if strings.HasPrefix(path, "/api/") {
		req.Header.Set("Content-Type", "application/json")
	} else if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if visitor != "" {
		req.AddCookie(&http.Cookie{Name: visitorCookieName, Value: visitor})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionsOf(t *testing.T, m *history.Manager, visitor string) []history.Session {
	t.Helper()
	return m.Store(historyKey(visitor)).List(context.Background())
}

func TestNewServerRequiresDependencies(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestVisitorCookie(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("issued on first visit", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodGet, "/", "", "")
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, visitorCookieName, cookies[0].Name)
		assert.Len(t, cookies[0].Value, visitorIDLength)
		assert.True(t, cookies[0].HttpOnly)
	})

	t.Run("kept when valid", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodGet, "/", "", alice)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("replaced when malformed", func(t *testing.T) {
		rec := do(t, srv.Handler(), http.MethodGet, "/", "", "not-a-visitor")
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.NotEqual(t, "not-a-visitor", cookies[0].Value)
	})
}

func TestPages(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path string
		want string
	}{
		{"/", "Your emotions deserve a soundtrack."},
		{"/mood", "How are you feeling right now?"},
		{"/history", "No mood history yet"},
		{"/journey", "Your Mood Phases"},
		{"/playlist?mood=romantic", "Feel the Love"},
		{"/static/style.css", "--accent"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodGet, tt.path, "", alice)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestMoodFormPreselectsMood(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/mood?mood=sad", "", alice)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="sad" checked`)
}

func TestSubmitMood(t *testing.T) {
	srv, histories := newTestServer(t)

	form := url.Values{"mood": {"happy"}, "lang": {"hindi"}}
	rec := do(t, srv.Handler(), http.MethodPost, "/mood", form.Encode(), alice)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(loc, "/playlist?mood=happy"), loc)
	assert.True(t, strings.HasSuffix(loc, "&lang=hindi"), loc)

	sessions := sessionsOf(t, histories, alice)
	require.Len(t, sessions, 1)
	assert.Equal(t, mood.Happy, sessions[0].Mood)
	assert.Empty(t, sessionsOf(t, histories, bob))
}

func TestSubmitMoodFromText(t *testing.T) {
	srv, histories := newTestServer(t)

	form := url.Values{"text": {"So stressed about exams"}}
	rec := do(t, srv.Handler(), http.MethodPost, "/mood", form.Encode(), alice)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/playlist?mood=anxious&input=So%20stressed%20about%20exams", rec.Header().Get("Location"))

	sessions := sessionsOf(t, histories, alice)
	require.Len(t, sessions, 1)
	assert.Equal(t, "So stressed about exams", sessions[0].InputText)
}

func TestSubmitMoodMissingInput(t *testing.T) {
	srv, histories := newTestServer(t)

	form := url.Values{"text": {"   "}}
	rec := do(t, srv.Handler(), http.MethodPost, "/mood", form.Encode(), alice)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please select a mood or describe your feelings")
	assert.Empty(t, sessionsOf(t, histories, alice))
}

func TestPlaylistPageDoesNotRecord(t *testing.T) {
	srv, histories := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/playlist?mood=sad&input=rough%20day", "", alice)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "rough day")
	assert.Contains(t, body, "🔁 Try Again")
	assert.Empty(t, sessionsOf(t, histories, alice))
}

func TestHistoryPage(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	do(t, h, http.MethodPost, "/mood", url.Values{"mood": {"energetic"}}.Encode(), alice)

	rec := do(t, h, http.MethodGet, "/history", "", alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Energetic")
	assert.Contains(t, rec.Body.String(), "🗑️ Clear History")

	other := do(t, h, http.MethodGet, "/history", "", bob)
	assert.Contains(t, other.Body.String(), "No mood history yet")
}

func TestClearHistory(t *testing.T) {
	srv, histories := newTestServer(t)
	h := srv.Handler()

	do(t, h, http.MethodPost, "/mood", url.Values{"mood": {"calm"}}.Encode(), alice)
	require.Len(t, sessionsOf(t, histories, alice), 1)

	rec := do(t, h, http.MethodPost, "/history/clear", "", alice)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/history", rec.Header().Get("Location"))
	assert.Empty(t, sessionsOf(t, histories, alice))
}

func TestJourneyPage(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	for _, m := range []string{"happy", "happy", "energetic", "sad", "sad", "calm"} {
		do(t, h, http.MethodPost, "/mood", url.Values{"mood": {m}}.Encode(), alice)
	}

	rec := do(t, h, http.MethodGet, "/journey", "", alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "from 6 sessions")
}

func TestAPIRecommend(t *testing.T) {
	srv, histories := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/recommend", `{"emoji":"💖"}`, alice)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp recommendResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "resolved", resp.State)
	assert.Equal(t, mood.Romantic, resp.Mood)
	assert.Equal(t, "Feel the Love", resp.Playlist.Title)
	assert.Equal(t, playlist.English, resp.Language)
	assert.Contains(t, resp.ShareText, "Check out my romantic mood playlist on Moodify!")
	require.NotNil(t, resp.Session)
	assert.Len(t, sessionsOf(t, histories, alice), 1)
}

func TestAPIRecommendErrors(t *testing.T) {
	srv, histories := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing input", `{"text":""}`, http.StatusUnprocessableEntity},
		{"bad json", `{"mood":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodPost, "/api/recommend", tt.body, alice)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Empty(t, sessionsOf(t, histories, alice))
}

func TestAPIClassify(t *testing.T) {
	srv, histories := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/classify", `{"text":"I am so happy today"}`, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"mood":"happy","label":"Happy","emoji":"😊"}`, rec.Body.String())

	blank := do(t, h, http.MethodPost, "/api/classify", `{"text":"  "}`, alice)
	assert.Equal(t, http.StatusBadRequest, blank.Code)

	assert.Empty(t, sessionsOf(t, histories, alice))
}

func TestAPIHistory(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	do(t, h, http.MethodPost, "/api/recommend", `{"mood":"sad"}`, alice)
	do(t, h, http.MethodPost, "/api/recommend", `{"mood":"happy"}`, alice)

	rec := do(t, h, http.MethodGet, "/api/history", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)

	var sessions []history.Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sessions))
	require.Len(t, sessions, 2)
	assert.Equal(t, mood.Happy, sessions[0].Mood)
	assert.Equal(t, mood.Sad, sessions[1].Mood)

	del := do(t, h, http.MethodDelete, "/api/history", "", alice)
	assert.Equal(t, http.StatusNoContent, del.Code)

	rec = do(t, h, http.MethodGet, "/api/history", "", alice)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAPIMoods(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/moods", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)

	var moods []moodResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&moods))
	require.Len(t, moods, len(mood.All()))
	assert.Equal(t, mood.Happy, moods[0].Mood)
}

func TestAPIPlaylist(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		path     string
		wantMood mood.Mood
		wantLang playlist.Language
	}{
		{"/api/playlists/romantic", mood.Romantic, playlist.English},
		{"/api/playlists/HAPPY?lang=spanish", mood.Happy, playlist.Spanish},
		{"/api/playlists/angry?lang=spanish", mood.Angry, playlist.English},
		{"/api/playlists/bored", mood.Calm, playlist.English},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodGet, tt.path, "", alice)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp playlistResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantMood, resp.Mood)
			assert.Equal(t, tt.wantLang, resp.Language)
			assert.NotEmpty(t, resp.Title)
			assert.NotEmpty(t, resp.URL)
			assert.Contains(t, resp.Languages, playlist.English)
		})
	}
}

func TestWebSocketReceivesSessions(t *testing.T) {
	srv, _ := newTestServer(t)
	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	header := http.Header{}
	header.Add("Cookie", (&http.Cookie{Name: visitorCookieName, Value: alice}).String())

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool {
		return srv.hub.Connections(alice) == 1
	}, 2*time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodPost, httpSrv.URL+"/api/recommend", strings.NewReader(`{"mood":"angry"}`))
	require.NoError(t, err)
	req.Header = header.Clone()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var types []string
	var appended Event
	for len(types) < 2 {
		_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := ws.ReadMessage()
		require.NoError(t, err)

		var ev Event
		require.NoError(t, json.Unmarshal(data, &ev))
		types = append(types, ev.Type)
		if ev.Type == EventSessionAppended {
			require.NoError(t, json.Unmarshal(data, &appended))
		}
	}

	assert.Equal(t, []string{EventFlowState, EventSessionAppended}, types)
	payload, ok := appended.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Angry", payload["label"])
	assert.Contains(t, payload["html"], "session-card")
}

func TestWebSocketIsolatesVisitors(t *testing.T) {
	srv, _ := newTestServer(t)
	httpSrv := httptest.NewServer(srv.Handler())
	defer httpSrv.Close()

	header := http.Header{}
	header.Add("Cookie", (&http.Cookie{Name: visitorCookieName, Value: bob}).String())

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer ws.Close()

	require.Eventually(t, func() bool {
		return srv.hub.Connections(bob) == 1
	}, 2*time.Second, 10*time.Millisecond)

	srv.hub.Publish(alice, EventHistoryCleared, nil)
	srv.hub.Publish(bob, EventHistoryCleared, nil)

	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, EventHistoryCleared, ev.Type)
	assert.Equal(t, 0, srv.hub.Connections(alice))
}
