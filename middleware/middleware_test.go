package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dosada05/faculty-league/metrics"
	"github.com/Dosada05/faculty-league/models"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

type stubParser map[string]models.Identity

func (p stubParser) ParseToken(token string) (models.Identity, error) {
	if identity, ok := p[token]; ok {
		return identity, nil
	}
	return models.Identity{}, errors.New("bad token")
}

func TestIdentifyAndRequireAdmin(t *testing.T) {
	Convey("Given a router with an admin-only endpoint", t, func() {
		parser := stubParser{
			"admin-token":  {UserID: 1, Role: models.RoleAdmin},
			"viewer-token": {UserID: 2, Role: models.RoleViewer},
		}
		var seen models.Identity
		r := chi.NewRouter()
		r.Use(Identify(parser))
		r.Get("/public", func(w http.ResponseWriter, r *http.Request) {
			seen = GetIdentityFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		})
		r.With(RequireAdmin).Post("/admin", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		do := func(method, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
			req := httptest.NewRequest(method, path, nil)
			if mutate != nil {
				mutate(req)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			return rec
		}

		Convey("A bearer token identifies the caller", func() {
			rec := do(http.MethodGet, "/public", func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer viewer-token")
			})
			So(rec.Code, ShouldEqual, http.StatusNoContent)
			So(seen.UserID, ShouldEqual, 2)
		})

		Convey("The session cookie works too", func() {
			do(http.MethodGet, "/public", func(req *http.Request) {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "admin-token"})
			})
			So(seen.IsAdmin(), ShouldBeTrue)
		})

		Convey("A bad token leaves the caller anonymous on public routes", func() {
			rec := do(http.MethodGet, "/public", func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer forged")
			})
			So(rec.Code, ShouldEqual, http.StatusNoContent)
			So(seen.UserID, ShouldEqual, 0)
		})

		Convey("The admin gate answers 401, 403 or passes", func() {
			So(do(http.MethodPost, "/admin", nil).Code, ShouldEqual, http.StatusUnauthorized)

			rec := do(http.MethodPost, "/admin", func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer viewer-token")
			})
			So(rec.Code, ShouldEqual, http.StatusForbidden)
			So(rec.Body.String(), ShouldContainSubstring, `"error"`)

			rec = do(http.MethodPost, "/admin", func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer admin-token")
			})
			So(rec.Code, ShouldEqual, http.StatusNoContent)
		})
	})
}

func TestMetricsMiddleware(t *testing.T) {
	Convey("Requests are labelled by route pattern", t, func() {
		m := metrics.NewManager()
		r := chi.NewRouter()
		r.Use(Metrics(m))
		r.Get("/api/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		for _, id := range []string{"1", "2", "3"} {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/matches/"+id, nil))
		}

		expected := `
# HELP faculty_league_http_requests_total HTTP requests by route pattern, method and status code.
# TYPE faculty_league_http_requests_total counter
faculty_league_http_requests_total{code="404",method="GET",route="/api/matches/{id}"} 3
`
		So(testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "faculty_league_http_requests_total"), ShouldBeNil)
	})
}
