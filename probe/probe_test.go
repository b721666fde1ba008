package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestProbe(t *testing.T) {
	Convey("Given a server with several behaviours", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html><video></video></html>"))
		})
		mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
			http.NotFound(w, nil)
		})
		mux.HandleFunc("/challenge", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("Checking your browser before accessing"))
		})
		mux.HandleFunc("/cf", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Server", "cloudflare")
			w.WriteHeader(http.StatusBadGateway)
		})
		mux.HandleFunc("/forbidden", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
		mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		p := New(srv.Client(), 200*time.Millisecond)
		ctx := context.Background()

		Convey("200 is playable", func() {
			r := p.Probe(ctx, srv.URL+"/ok")
			So(r.Status, ShouldEqual, StatusOK)
			So(r.Playable(), ShouldBeTrue)
			So(r.StatusCode, ShouldEqual, 200)
			So(r.Address, ShouldEqual, srv.URL+"/ok")
		})

		Convey("404 is a bad status", func() {
			r := p.Probe(ctx, srv.URL+"/missing")
			So(r.Status, ShouldEqual, StatusBadStatus)
			So(r.Playable(), ShouldBeFalse)
		})

		Convey("A challenge page is cloudflare", func() {
			So(p.Probe(ctx, srv.URL+"/challenge").Status, ShouldEqual, StatusCloudflare)
		})

		Convey("A cloudflare server error is cloudflare", func() {
			So(p.Probe(ctx, srv.URL+"/cf").Status, ShouldEqual, StatusCloudflare)
		})

		Convey("A plain 403 is only a bad status", func() {
			So(p.Probe(ctx, srv.URL+"/forbidden").Status, ShouldEqual, StatusBadStatus)
		})

		Convey("A slow server times out", func() {
			So(p.Probe(ctx, srv.URL+"/slow").Status, ShouldEqual, StatusTimeout)
		})

		Convey("An unreachable address is an error", func() {
			So(p.Probe(ctx, "http://127.0.0.1:1/").Status, ShouldEqual, StatusError)
			So(p.Probe(ctx, "::not a url").Status, ShouldEqual, StatusError)
		})
	})
}
