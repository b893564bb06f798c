package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/faculty-league/handlers"
	"github.com/Dosada05/faculty-league/livescore"
	"github.com/Dosada05/faculty-league/metrics"
	"github.com/Dosada05/faculty-league/middleware"
	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/repositories"
	"github.com/Dosada05/faculty-league/routes"
	"github.com/Dosada05/faculty-league/services"
	"github.com/Dosada05/faculty-league/standings"
	"github.com/Dosada05/faculty-league/storage"
	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "admin@uni.test"
	adminPassword = "correct horse"
)

type testServer struct {
	router      http.Handler
	auth        services.AuthService
	repos       *repositories.Repositories
	viewerToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repos := repositories.NewMemoryRepositories()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if err := repositories.SeedDemo(ctx, repos, adminEmail, string(hash)); err != nil {
		t.Fatal(err)
	}
	viewer := &models.User{Email: "fan@uni.test", Name: "Fan", Role: models.RoleViewer}
	if err := repos.Users.Create(ctx, viewer); err != nil {
		t.Fatal(err)
	}

	uploader, err := storage.NewMemoryUploader("http://cdn.test/")
	if err != nil {
		t.Fatal(err)
	}
	m := metrics.NewManager()
	hub := livescore.NewHub()

	activity := services.NewActivityService(repos.Activity, m, logger)
	stats := services.NewStatsService(repos.Tx, repos.Faculties, standings.ReversalClamp, m, logger)
	matches := services.NewMatchService(repos, stats, activity, hub, uploader, m, logger)
	faculties := services.NewFacultyService(repos.Faculties, repos.Matches, repos.Seasons, activity, uploader, logger)
	seasons := services.NewSeasonService(repos, activity, hub, logger)
	portal := services.NewPortalService(repos, uploader, m, logger)
	auth := services.NewAuthService(repos.Users, services.GoogleOAuthConfig{}, "route-test-secret", []string{adminEmail})

	viewerToken, _, err := auth.IssueToken(viewer)
	if err != nil {
		t.Fatal(err)
	}

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Auth:      handlers.NewAuthHandler(auth, false, "/"),
		Portal:    handlers.NewPortalHandler(portal),
		Matches:   handlers.NewMatchHandler(matches),
		Faculties: handlers.NewFacultyHandler(faculties),
		Seasons:   handlers.NewSeasonHandler(seasons),
		Activity:  handlers.NewActivityHandler(activity),
		WebSocket: handlers.NewWebSocketHandler(hub, nil),
	}, routes.Options{
		Tokens:  auth,
		Metrics: m,
	})
	return &testServer{router: router, auth: auth, repos: repos, viewerToken: viewerToken}
}

func (s *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(rec *httptest.ResponseRecorder, dst interface{}) {
	So(json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(dst), ShouldBeNil)
}

func errorMessage(rec *httptest.ResponseRecorder) string {
	var body struct {
		Error string `json:"error"`
	}
	decode(rec, &body)
	return body.Error
}

func TestRoutes_Operational(t *testing.T) {
	Convey("Given the full router", t, func() {
		srv := newTestServer(t)

		Convey("healthz answers ok", func() {
			rec := srv.do(http.MethodGet, "/healthz", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, "ok")
		})

		Convey("The OpenAPI document is served", func() {
			rec := srv.do(http.MethodGet, "/swagger/doc.json", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldEqual, "application/json")
			var doc struct {
				OpenAPI string                     `json:"openapi"`
				Paths   map[string]json.RawMessage `json:"paths"`
			}
			decode(rec, &doc)
			So(doc.OpenAPI, ShouldStartWith, "3.")
			So(doc.Paths, ShouldContainKey, "/api/standings")
			So(doc.Paths, ShouldContainKey, "/api/admin/matches/{id}/score")
		})

		Convey("Request metrics are labelled by route pattern", func() {
			srv.do(http.MethodGet, "/api/faculties/1", "", "")
			rec := srv.do(http.MethodGet, "/metrics", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `faculty_league_http_requests_total{code="200",method="GET",route="/api/faculties/{facultyID}"} 1`)
		})

		Convey("A faculty card rejects an unknown category", func() {
			rec := srv.do(http.MethodGet, "/api/faculties/1?category=mixed", "", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("CORS preflight is answered", func() {
			req := httptest.NewRequest(http.MethodOptions, "/api/standings", nil)
			req.Header.Set("Origin", "http://portal.test")
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			rec := httptest.NewRecorder()
			srv.router.ServeHTTP(rec, req)
			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "http://portal.test")
		})
	})
}

func TestRoutes_AdminGate(t *testing.T) {
	Convey("Given the full router", t, func() {
		srv := newTestServer(t)
		body := `{"home_faculty_id":1,"away_faculty_id":2,"category":"men","match_date":"2030-01-01T15:00:00Z"}`

		Convey("Anonymous callers get 401", func() {
			rec := srv.do(http.MethodPost, "/api/admin/matches", body, "")
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			So(errorMessage(rec), ShouldEqual, "authentication required")
		})

		Convey("A garbage token is treated as anonymous", func() {
			rec := srv.do(http.MethodPost, "/api/admin/matches", body, "not-a-jwt")
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("Viewers get 403", func() {
			rec := srv.do(http.MethodPost, "/api/admin/matches", body, srv.viewerToken)
			So(rec.Code, ShouldEqual, http.StatusForbidden)
			So(errorMessage(rec), ShouldEqual, "admin role required")

			rec = srv.do(http.MethodGet, "/api/admin/activity", "", srv.viewerToken)
			So(rec.Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("Wrong password is rejected with the same message as an unknown email", func() {
			rec := srv.do(http.MethodPost, "/auth/login", `{"email":"admin@uni.test","password":"nope"}`, "")
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			wrong := errorMessage(rec)

			rec = srv.do(http.MethodPost, "/auth/login", `{"email":"ghost@uni.test","password":"nope"}`, "")
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			So(errorMessage(rec), ShouldEqual, wrong)
		})

		Convey("Google login is unavailable without client credentials", func() {
			rec := srv.do(http.MethodGet, "/auth/google/login", "", "")
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
		})
	})
}

func TestRoutes_ScoreFlow(t *testing.T) {
	Convey("Given an admin session", t, func() {
		srv := newTestServer(t)

		rec := srv.do(http.MethodPost, "/auth/login", fmt.Sprintf(`{"email":%q,"password":%q}`, "ADMIN@uni.test", adminPassword), "")
		So(rec.Code, ShouldEqual, http.StatusOK)
		var login struct {
			Token string      `json:"token"`
			User  models.User `json:"user"`
		}
		decode(rec, &login)
		So(login.Token, ShouldNotBeEmpty)
		So(login.User.Role, ShouldEqual, models.RoleAdmin)

		var session *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == middleware.SessionCookieName {
				session = c
			}
		}
		So(session, ShouldNotBeNil)
		So(session.HttpOnly, ShouldBeTrue)

		rec = srv.do(http.MethodGet, "/api/faculties", "", "")
		So(rec.Code, ShouldEqual, http.StatusOK)
		var list struct {
			Faculties []models.Faculty `json:"faculties"`
		}
		decode(rec, &list)
		So(len(list.Faculties), ShouldBeGreaterThanOrEqualTo, 2)
		home, away := list.Faculties[0].ID, list.Faculties[1].ID

		create := fmt.Sprintf(`{"home_faculty_id":%d,"away_faculty_id":%d,"category":"men","importance":"League","match_date":"2024-03-01T15:00:00Z","venue":"  Main pitch "}`, home, away)
		rec = srv.do(http.MethodPost, "/api/admin/matches", create, login.Token)
		So(rec.Code, ShouldEqual, http.StatusCreated)
		var created struct {
			Match models.Match `json:"match"`
		}
		decode(rec, &created)
		So(created.Match.Status, ShouldEqual, models.MatchStatusPending)
		So(*created.Match.Venue, ShouldEqual, "Main pitch")
		scorePath := fmt.Sprintf("/api/admin/matches/%d/score", created.Match.ID)

		Convey("The session cookie alone identifies the admin", func() {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			req.AddCookie(session)
			rec := httptest.NewRecorder()
			srv.router.ServeHTTP(rec, req)
			So(rec.Code, ShouldEqual, http.StatusOK)
			var me struct {
				User models.User `json:"user"`
			}
			decode(rec, &me)
			So(me.User.Email, ShouldEqual, adminEmail)
		})

		Convey("Finishing 3-1 updates the public table", func() {
			rec := srv.do(http.MethodPut, scorePath, `{"status":"FINISHED","score_home":3,"score_away":1}`, login.Token)
			So(rec.Code, ShouldEqual, http.StatusOK)
			var update services.ScoreUpdate
			decode(rec, &update)
			So(update.StatsEdit, ShouldEqual, "apply")
			So(update.Match.Status, ShouldEqual, models.MatchStatusFinished)

			rec = srv.do(http.MethodGet, "/api/standings", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var table struct {
				Standings []struct {
					Position  int `json:"position"`
					FacultyID int `json:"faculty_id"`
					Points    int `json:"points"`
					Played    int `json:"played"`
				} `json:"standings"`
			}
			decode(rec, &table)
			So(table.Standings, ShouldHaveLength, 2)
			So(table.Standings[0].FacultyID, ShouldEqual, home)
			So(table.Standings[0].Points, ShouldEqual, 3)
			So(table.Standings[1].Points, ShouldEqual, 0)
			So(table.Standings[1].Played, ShouldEqual, 1)

			Convey("A finished match cannot go back to LIVE", func() {
				rec := srv.do(http.MethodPut, scorePath, `{"status":"LIVE","score_home":3,"score_away":1}`, login.Token)
				So(rec.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(errorMessage(rec), ShouldNotBeEmpty)
			})

			Convey("Its details are frozen", func() {
				rec := srv.do(http.MethodPatch, fmt.Sprintf("/api/admin/matches/%d", created.Match.ID), `{"venue":"Elsewhere"}`, login.Token)
				So(rec.Code, ShouldEqual, http.StatusConflict)
			})

			Convey("The activity log lists the score update first", func() {
				rec := srv.do(http.MethodGet, "/api/admin/activity?limit=1", "", login.Token)
				So(rec.Code, ShouldEqual, http.StatusOK)
				var log struct {
					Activity []models.ActivityLog `json:"activity"`
				}
				decode(rec, &log)
				So(log.Activity, ShouldHaveLength, 1)
				So(log.Activity[0].Action, ShouldEqual, "match.score")
			})
		})

		Convey("Malformed requests map to 4xx with an error body", func() {
			rec := srv.do(http.MethodPut, scorePath, `{"status":`, login.Token)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(errorMessage(rec), ShouldNotBeEmpty)

			rec = srv.do(http.MethodPut, scorePath, `{"status":"FINISHED","score_home":-1,"score_away":0}`, login.Token)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)

			rec = srv.do(http.MethodPut, "/api/admin/matches/99999/score", `{"status":"LIVE"}`, login.Token)
			So(rec.Code, ShouldEqual, http.StatusNotFound)

			rec = srv.do(http.MethodGet, "/api/matches/abc", "", "")
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A round-robin calendar can be generated", func() {
			rec := srv.do(http.MethodPost, "/api/admin/matches/generate", `{"category":"women","start_date":"2030-09-07T15:00:00Z","legs":2}`, login.Token)
			So(rec.Code, ShouldEqual, http.StatusCreated)
			var generated struct {
				Matches []models.Match `json:"matches"`
			}
			decode(rec, &generated)
			n := len(list.Faculties)
			So(generated.Matches, ShouldHaveLength, n*(n-1))
		})
	})
}
