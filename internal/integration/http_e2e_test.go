//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	httpserver "mars_poster/internal/adapters/http_server"
	"mars_poster/internal/adapters/memory"
	redisad "mars_poster/internal/adapters/redis"
	"mars_poster/internal/app"
	"mars_poster/internal/domain"
	"mars_poster/internal/raster"
	mysqlrepo "mars_poster/internal/storage/mysql"
	"mars_poster/internal/upload"
)

// ---------- helpers ----------

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = filepath.Join("..", "..", "migrations")
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}
	pool.MaxWait = 2 * time.Minute
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=posters"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/posters", resource.GetPort("3306/tcp"))
	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = mysqlrepo.Open(context.Background(), dsn)
		return e
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func call(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(method, url, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { res.Body.Close() })
	return res
}

// ---------- the test ----------

func TestHTTP_EndToEnd_VillaExport(t *testing.T) {
	db := startMySQL(t)
	applyMigrations(t, db)

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	store := memory.NewSessionStore(time.Hour)
	dec := upload.New(1 << 20)
	exports := app.NewExportService(store, raster.NewNative(nil), cache, mysqlrepo.New(db), 2, time.Hour, 2)

	srv := httpserver.New(httpserver.Options{})
	srv.MountHandlers(&httpserver.Handlers{
		Editor:  app.NewEditorService(store, nil, dec),
		Preview: app.NewPreviewService(store, nil),
		Export:  exports,
		Uploads: dec,
	})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	res := call(t, http.MethodPost, ts.URL+"/v1/sessions", `{"layout_id":2}`)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("open: status %d", res.StatusCode)
	}
	var s domain.Session
	if err := json.NewDecoder(res.Body).Decode(&s); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	sessURL := ts.URL + "/v1/sessions/" + s.ID
	if res := call(t, http.MethodPatch, sessURL+"/fields", `{"title":"Villa For Sale","description":"Pool\nGarden"}`); res.StatusCode != 200 {
		t.Fatalf("patch: status %d", res.StatusCode)
	}

	for i, wantCache := range []string{"MISS", "HIT"} {
		res := call(t, http.MethodPost, sessURL+"/export?scale=2", "")
		if res.StatusCode != http.StatusOK {
			t.Fatalf("export %d: status %d", i, res.StatusCode)
		}
		if got := res.Header.Get("X-Cache"); got != wantCache {
			t.Fatalf("export %d: X-Cache %q, want %q", i, got, wantCache)
		}
		if cd := res.Header.Get("Content-Disposition"); cd != "attachment; filename=Villa_For_Sale_poster.png" {
			t.Fatalf("export %d: content disposition %q", i, cd)
		}
		img, err := png.Decode(res.Body)
		if err != nil {
			t.Fatalf("export %d: decode png: %v", i, err)
		}
		if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 1200 {
			t.Fatalf("export %d: size %v", i, b)
		}
	}

	res = call(t, http.MethodGet, ts.URL+"/v1/exports?limit=10", "")
	var hist struct {
		Items []domain.ExportRecord `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(hist.Items) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(hist.Items))
	}
	for _, e := range hist.Items {
		if e.SessionID != s.ID || e.FileName != "Villa_For_Sale_poster.png" || e.LayoutID != 2 {
			t.Fatalf("unexpected history row: %+v", e)
		}
	}
}
