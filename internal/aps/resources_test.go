package aps

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/renolab/planscan/internal/config"
)

// callRecorder tracks the order of remote calls a setup flow makes.
type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (cr *callRecorder) record(method, path string) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.calls = append(cr.calls, method+" "+path)
}

func (cr *callRecorder) snapshot() []string {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return append([]string(nil), cr.calls...)
}

func bundleDef(payload []byte) AppBundleDefinition {
	return AppBundleDefinition{
		Name:        "PlanScanExtractor",
		Engine:      "Autodesk.AutoCAD+24_2",
		Description: "reference extraction bundle",
		Payload:     payload,
	}
}

func TestSetupAppBundle_CreatesVersionOneAliasAndUploads(t *testing.T) {
	rec := &callRecorder{}
	mux := http.NewServeMux()
	var srvURL string

	mux.HandleFunc("/da/us-east/v3/appbundles/planscan.PlanScanExtractor+prod", func(w http.ResponseWriter, r *http.Request) {
		requireBearer(t, r)
		rec.record(r.Method, "check")
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/da/us-east/v3/appbundles", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r.Method, "create")
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["id"] != "PlanScanExtractor" {
			t.Errorf("unexpected bundle id: %v", body["id"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"version": 1,
			"uploadParameters": map[string]any{
				"endpointURL": srvURL + "/upload",
				"formData":    map[string]string{"key": "apps/x/1", "policy": "p0licy"},
			},
		})
	})
	mux.HandleFunc("/da/us-east/v3/appbundles/PlanScanExtractor/aliases", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r.Method, "alias")
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["id"] != "prod" || body["version"] != float64(1) {
			t.Errorf("unexpected alias body: %v", body)
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r.Method, "upload")
		if r.Header.Get("Authorization") != "" {
			t.Error("presigned upload must not carry a bearer token")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		// Remote-supplied form fields must arrive verbatim.
		if r.PostFormValue("key") != "apps/x/1" || r.PostFormValue("policy") != "p0licy" {
			t.Errorf("upload form fields not passed through: %v", r.PostForm)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		f.Close()
		w.WriteHeader(http.StatusOK)
	})

	c, srv := newTestClient(t, mux, config.APSConfig{})
	srvURL = srv.URL

	info, err := c.SetupAppBundle(context.Background(), bundleDef([]byte("zip-bytes")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !info.Created || info.Version != 1 {
		t.Errorf("expected created version 1, got %+v", info)
	}
	if info.ID != "planscan.PlanScanExtractor+prod" {
		t.Errorf("unexpected qualified id: %s", info.ID)
	}

	want := []string{"GET check", "POST create", "POST alias", "POST upload"}
	got := rec.snapshot()
	if len(got) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call %d: expected %q, got %q (full: %v)", i, want[i], got[i], got)
		}
	}
}

func TestSetupAppBundle_ExistingResourceVersionsAndPatchesAlias(t *testing.T) {
	rec := &callRecorder{}
	mux := http.NewServeMux()
	var srvURL string

	mux.HandleFunc("/da/us-east/v3/appbundles/planscan.PlanScanExtractor+prod", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r.Method, "check")
		json.NewEncoder(w).Encode(map[string]any{"version": 4})
	})
	mux.HandleFunc("/da/us-east/v3/appbundles/PlanScanExtractor/versions", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r.Method, "version")
		json.NewEncoder(w).Encode(map[string]any{
			"version": 5,
			"uploadParameters": map[string]any{
				"endpointURL": srvURL + "/upload",
				"formData":    map[string]string{"key": "apps/x/5"},
			},
		})
	})
	mux.HandleFunc("/da/us-east/v3/appbundles/PlanScanExtractor/aliases/prod", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r.Method, "alias-patch")
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["version"] != float64(5) {
			t.Errorf("alias must point at the new version, got %v", body["version"])
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r.Method, "upload")
		w.WriteHeader(http.StatusOK)
	})

	c, srv := newTestClient(t, mux, config.APSConfig{})
	srvURL = srv.URL

	info, err := c.SetupAppBundle(context.Background(), bundleDef([]byte("zip")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Created || info.Version != 5 {
		t.Errorf("expected bumped version 5, got %+v", info)
	}

	want := []string{"GET check", "POST version", "PATCH alias-patch", "POST upload"}
	got := rec.snapshot()
	if len(got) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSetupAppBundle_AliasConflictRepairedByPatch(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	patched := false

	mux.HandleFunc("/da/us-east/v3/appbundles/planscan.PlanScanExtractor+prod", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/da/us-east/v3/appbundles", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"version": 1,
			"uploadParameters": map[string]any{
				"endpointURL": srvURL + "/upload",
				"formData":    map[string]string{},
			},
		})
	})
	mux.HandleFunc("/da/us-east/v3/appbundles/PlanScanExtractor/aliases", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	mux.HandleFunc("/da/us-east/v3/appbundles/PlanScanExtractor/aliases/prod", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		patched = true
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c, srv := newTestClient(t, mux, config.APSConfig{})
	srvURL = srv.URL

	if _, err := c.SetupAppBundle(context.Background(), bundleDef(nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !patched {
		t.Error("expected alias conflict to be repaired via PATCH")
	}
}

func TestSetupActivity_CreatesWithoutUpload(t *testing.T) {
	rec := &callRecorder{}
	mux := http.NewServeMux()

	mux.HandleFunc("/da/us-east/v3/activities/planscan.ExtractReferences+prod", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r.Method, "check")
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/da/us-east/v3/activities", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r.Method, "create")
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["id"] != "ExtractReferences" {
			t.Errorf("unexpected activity id: %v", body["id"])
		}
		if _, ok := body["parameters"].(map[string]any)["inputFile"]; !ok {
			t.Error("expected inputFile parameter declaration")
		}
		json.NewEncoder(w).Encode(map[string]any{"version": 1})
	})
	mux.HandleFunc("/da/us-east/v3/activities/ExtractReferences/aliases", func(w http.ResponseWriter, r *http.Request) {
		rec.record(r.Method, "alias")
		w.WriteHeader(http.StatusOK)
	})

	c, _ := newTestClient(t, mux, config.APSConfig{})

	info, err := c.SetupActivity(context.Background(), ActivityDefinition{
		Name:        "ExtractReferences",
		Engine:      "Autodesk.AutoCAD+24_2",
		CommandLine: []string{"$(engine.path)\\accoreconsole.exe /i \"$(args[inputFile].path)\" /al \"$(appbundles[PlanScanExtractor].path)\""},
		AppBundleID: "planscan.PlanScanExtractor+prod",
		Parameters: map[string]ActivityParameter{
			"inputFile": {Verb: "get", Required: true},
			"result":    {Verb: "put", LocalName: "result.json"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.Created || info.Version != 1 {
		t.Errorf("expected created version 1, got %+v", info)
	}

	want := []string{"GET check", "POST create", "POST alias"}
	got := rec.snapshot()
	if len(got) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
}

func TestSetupResource_Non404CheckIsConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/da/us-east/v3/activities/planscan.ExtractReferences+prod", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	c, _ := newTestClient(t, mux, config.APSConfig{})

	_, err := c.SetupActivity(context.Background(), ActivityDefinition{Name: "ExtractReferences"})
	if !errors.Is(err, ErrResourceConflict) {
		t.Fatalf("expected ErrResourceConflict, got %v", err)
	}
}

func TestSetupAppBundle_CreateConflictCutsNewVersion(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string

	mux.HandleFunc("/da/us-east/v3/appbundles/planscan.PlanScanExtractor+prod", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/da/us-east/v3/appbundles", func(w http.ResponseWriter, r *http.Request) {
		// An orphaned unaliased version 1 exists from an earlier partial failure.
		w.WriteHeader(http.StatusConflict)
	})
	mux.HandleFunc("/da/us-east/v3/appbundles/PlanScanExtractor/versions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"version": 2,
			"uploadParameters": map[string]any{
				"endpointURL": srvURL + "/upload",
				"formData":    map[string]string{},
			},
		})
	})
	mux.HandleFunc("/da/us-east/v3/appbundles/PlanScanExtractor/aliases", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["version"] != float64(2) {
			t.Errorf("alias must point at the latest existing version, got %v", body["version"])
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c, srv := newTestClient(t, mux, config.APSConfig{})
	srvURL = srv.URL

	info, err := c.SetupAppBundle(context.Background(), bundleDef(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Version != 2 {
		t.Errorf("expected repaired version 2, got %+v", info)
	}
}
