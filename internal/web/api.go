package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/justestif/go-moodify/internal/flow"
	"github.com/justestif/go-moodify/internal/history"
	"github.com/justestif/go-moodify/internal/mood"
	"github.com/justestif/go-moodify/internal/playlist"
)

const maxBodyBytes = 64 << 10

type recommendRequest struct {
	Mood     string `json:"mood"`
	Emoji    string `json:"emoji"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

type promptResponse struct {
	State       string `json:"state"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type recommendResponse struct {
	State     string            `json:"state"`
	Mood      mood.Mood         `json:"mood"`
	Label     string            `json:"label"`
	Emoji     string            `json:"emoji"`
	Message   string            `json:"message"`
	InputText string            `json:"inputText,omitempty"`
	Language  playlist.Language `json:"language"`
	Playlist  playlistResponse  `json:"playlist"`
	Session   *history.Session  `json:"session,omitempty"`
	ShareText string            `json:"shareText"`
	SharePath string            `json:"sharePath"`
}

type playlistResponse struct {
	Mood      mood.Mood           `json:"mood"`
	Language  playlist.Language   `json:"language"`
	Title     string              `json:"title"`
	URL       string              `json:"url"`
	OpenURL   string              `json:"openUrl"`
	Languages []playlist.Language `json:"languages"`
}

type moodResponse struct {
	Mood        mood.Mood `json:"mood"`
	Emoji       string    `json:"emoji"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Energy      float64   `json:"energy"`
	Valence     float64   `json:"valence"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// playlistJSON reports the language actually served, which is English when
// the requested variant does not exist.
func (h *Handlers) playlistJSON(m mood.Mood, lang playlist.Language, e playlist.Entry) playlistResponse {
	if !h.playlists.Current().Has(m, lang) {
		lang = playlist.DefaultLanguage
	}
	return playlistResponse{
		Mood:      m,
		Language:  lang,
		Title:     e.Title,
		URL:       e.URL,
		OpenURL:   e.OpenURL(),
		Languages: h.playlists.Current().Languages(m),
	}
}

// APIRecommend runs the recommendation flow (POST /api/recommend).
func (h *Handlers) APIRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.flow(r).Run(r.Context(), flow.Input{
		Mood:     req.Mood,
		Emoji:    req.Emoji,
		Text:     req.Text,
		Language: req.Language,
	})
	if err != nil {
		h.log.Error("running flow", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create playlist")
		return
	}

	if res.State != flow.Resolved {
		writeJSON(w, http.StatusUnprocessableEntity, promptResponse{
			State:       res.State.String(),
			Title:       res.Prompt.Title,
			Description: res.Prompt.Description,
		})
		return
	}

	resp := recommendResponse{
		State:     res.State.String(),
		Mood:      res.Mood,
		Label:     res.Meta.Label,
		Emoji:     res.Meta.Emoji,
		Message:   res.Meta.Description,
		InputText: res.InputText,
		Playlist:  h.playlistJSON(res.Mood, res.Language, res.Playlist),
		ShareText: res.ShareText,
		SharePath: res.SharePath,
	}
	resp.Language = resp.Playlist.Language
	if !res.Session.Timestamp.IsZero() {
		resp.Session = &res.Session
	}
	writeJSON(w, http.StatusOK, resp)
}

// APIClassify classifies text without recording it (POST /api/classify).
func (h *Handlers) APIClassify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	m, err := h.classifier.Classify(r.Context(), req.Text)
	if err != nil || !m.Valid() {
		h.log.Warn("classification failed, using default mood", zap.Error(err))
		m = mood.Default
	}

	meta := mood.Info(m)
	writeJSON(w, http.StatusOK, map[string]any{
		"mood":  m,
		"label": meta.Label,
		"emoji": meta.Emoji,
	})
}

// APIHistory lists the visitor's sessions, newest first (GET /api/history).
func (h *Handlers) APIHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store(r).List(r.Context()))
}

// APIClearHistory deletes the visitor's sessions (DELETE /api/history).
func (h *Handlers) APIClearHistory(w http.ResponseWriter, r *http.Request) {
	if !h.clear(w, r) {
		writeError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// APIMoods lists the supported moods (GET /api/moods).
func (h *Handlers) APIMoods(w http.ResponseWriter, _ *http.Request) {
	infos := mood.Infos()
	resp := make([]moodResponse, len(infos))
	for i, m := range infos {
		resp[i] = moodResponse{
			Mood:        m.Mood,
			Emoji:       m.Emoji,
			Label:       m.Label,
			Description: m.Description,
			Energy:      m.Energy,
			Valence:     m.Valence,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// APIPlaylist returns the playlist for a mood (GET /api/playlists/{mood}).
// Unknown moods resolve to the default mood.
func (h *Handlers) APIPlaylist(w http.ResponseWriter, r *http.Request) {
	m := mood.Parse(chi.URLParam(r, "mood"))
	lang := playlist.ParseLanguage(r.URL.Query().Get("lang"))
	writeJSON(w, http.StatusOK, h.playlistJSON(m, lang, h.playlists.Lookup(m, lang)))
}

// Healthz reports liveness (GET /healthz).
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
