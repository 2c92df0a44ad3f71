package web

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/justestif/go-moodify/internal/classifier"
	"github.com/justestif/go-moodify/internal/flow"
	"github.com/justestif/go-moodify/internal/history"
	"github.com/justestif/go-moodify/internal/journey"
	"github.com/justestif/go-moodify/internal/mood"
	"github.com/justestif/go-moodify/internal/playlist"
)

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	templates  *Templates
	hub        *Hub
	histories  *history.Manager
	classifier classifier.Classifier
	playlists  *playlist.Source
	journey    journey.Config
	baseURL    string
	log        *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg ServerConfig, templates *Templates, hub *Hub) *Handlers {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		templates:  templates,
		hub:        hub,
		histories:  cfg.Histories,
		classifier: cfg.Classifier,
		playlists:  cfg.Playlists,
		journey:    cfg.Journey,
		baseURL:    cfg.BaseURL,
		log:        log,
	}
}

// store returns the requesting visitor's history.
func (h *Handlers) store(r *http.Request) *history.Store {
	return h.histories.Store(historyKey(visitorFrom(r.Context())))
}

// flow returns a recommendation flow bound to the requesting visitor.
func (h *Handlers) flow(r *http.Request) *flow.Flow {
	visitor := visitorFrom(r.Context())
	return flow.New(h.classifier, h.playlists, h.store(r),
		flow.WithLogger(h.log),
		flow.WithBaseURL(h.baseURL),
		flow.WithObserver(visitorObserver{
			hub:       h.hub,
			visitor:   visitor,
			templates: h.templates,
			card:      h.sessionData,
		}),
	)
}

func (h *Handlers) sessionData(s history.Session) SessionData {
	return SessionData{
		Meta:          s.Meta(),
		PlaylistTitle: h.playlists.Lookup(s.Mood, playlist.DefaultLanguage).Title,
		InputText:     s.InputText,
		Timestamp:     s.Timestamp,
		Link:          flow.SharePath(s.Mood, s.InputText),
	}
}

// resultLink is where a resolved result is shown, keeping a non-default language.
func resultLink(res flow.Result) string {
	if res.Language == playlist.DefaultLanguage {
		return res.SharePath
	}
	return res.SharePath + "&lang=" + string(res.Language)
}

func (h *Handlers) render(w http.ResponseWriter, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, page, data); err != nil {
		h.log.Error("rendering template", zap.String("page", page), zap.Error(err))
	}
}

// Home handles the landing page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "home", PageData{
		Title:       "Moodify",
		CurrentPath: r.URL.Path,
	})
}

func (h *Handlers) moodPage(r *http.Request) MoodPageData {
	return MoodPageData{
		PageData: PageData{
			Title:       "How are you feeling? · Moodify",
			CurrentPath: r.URL.Path,
		},
		Moods:     mood.Infos(),
		Languages: playlist.Languages(),
		Language:  playlist.DefaultLanguage,
	}
}

// MoodForm handles the mood input page (GET /mood).
func (h *Handlers) MoodForm(w http.ResponseWriter, r *http.Request) {
	data := h.moodPage(r)
	if m, ok := mood.Lookup(r.URL.Query().Get("mood")); ok {
		data.Selected = m
	}
	h.render(w, http.StatusOK, "mood", data)
}

// SubmitMood runs the recommendation flow (POST /mood).
func (h *Handlers) SubmitMood(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	in := flow.Input{
		Mood:     r.PostFormValue("mood"),
		Emoji:    r.PostFormValue("emoji"),
		Text:     r.PostFormValue("text"),
		Language: r.PostFormValue("lang"),
	}

	res, err := h.flow(r).Run(r.Context(), in)
	if err != nil {
		h.log.Error("running flow", zap.Error(err))
		http.Error(w, "Failed to create playlist", http.StatusInternalServerError)
		return
	}

	if res.State != flow.Resolved {
		data := h.moodPage(r)
		data.Text = in.Text
		data.Language = playlist.ParseLanguage(in.Language)
		data.Flash = &FlashMessage{
			Type:        "error",
			Message:     res.Prompt.Title,
			Description: res.Prompt.Description,
		}
		h.render(w, http.StatusUnprocessableEntity, "mood", data)
		return
	}

	http.Redirect(w, r, resultLink(res), http.StatusSeeOther)
}

// Playlist shows the result for a mood without recording it (GET /playlist).
func (h *Handlers) Playlist(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	m := mood.Parse(q.Get("mood"))
	res := h.flow(r).Resolve(m, q.Get("input"), playlist.ParseLanguage(q.Get("lang")))

	h.render(w, http.StatusOK, "playlist", PlaylistPageData{
		PageData: PageData{
			Title:       res.Meta.Label + " · Moodify",
			CurrentPath: r.URL.Path,
		},
		Result:    res,
		OpenURL:   res.Playlist.OpenURL(),
		Languages: h.playlists.Current().Languages(res.Mood),
	})
}

// History lists the visitor's sessions (GET /history).
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	sessions := h.store(r).List(r.Context())

	cards := make([]SessionData, len(sessions))
	for i, s := range sessions {
		cards[i] = h.sessionData(s)
	}

	h.render(w, http.StatusOK, "history", HistoryPageData{
		PageData: PageData{
			Title:       "Your Mood Journey · Moodify",
			CurrentPath: r.URL.Path,
		},
		Sessions: cards,
	})
}

// ClearHistory deletes the visitor's sessions (POST /history/clear).
func (h *Handlers) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if !h.clear(w, r) {
		http.Error(w, "Failed to clear history", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/history", http.StatusSeeOther)
}

func (h *Handlers) clear(_ http.ResponseWriter, r *http.Request) bool {
	if err := h.store(r).Clear(r.Context()); err != nil {
		h.log.Error("clearing history", zap.Error(err))
		return false
	}
	h.hub.Publish(visitorFrom(r.Context()), EventHistoryCleared, nil)
	return true
}

// Journey shows mood phases and totals (GET /journey).
func (h *Handlers) Journey(w http.ResponseWriter, r *http.Request) {
	sessions := h.store(r).List(r.Context())

	cfg := h.journey
	cfg.Logger = h.log
	phases, outliers := journey.DetectPhases(sessions, cfg)

	counts := journey.Summary(sessions)
	var bars []MoodCountData
	for _, c := range counts.Sorted() {
		bars = append(bars, MoodCountData{Meta: mood.Info(c.Mood), Count: c.Count})
	}

	h.render(w, http.StatusOK, "journey", JourneyPageData{
		PageData: PageData{
			Title:       "Mood Phases · Moodify",
			CurrentPath: r.URL.Path,
		},
		Phases:   phases,
		Outliers: len(outliers),
		Counts:   bars,
		Total:    counts.Total(),
	})
}
