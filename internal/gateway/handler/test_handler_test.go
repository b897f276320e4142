package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"readmegen/internal/archive"
	"readmegen/internal/gateway/service/generate"
	"readmegen/internal/llm"
	"readmegen/internal/llmclient"
	"readmegen/internal/readme"
	"readmegen/internal/repo"
	"readmegen/internal/runledger"
	"readmegen/internal/scan"
	"readmegen/internal/tester"
	"readmegen/internal/trace"
)

type stubCloner struct {
	dir string
	err error
}

func (s stubCloner) Clone(_ context.Context, ref repo.Ref, branch string) (repo.Checkout, error) {
	if s.err != nil {
		return repo.Checkout{}, s.err
	}
	return repo.Checkout{Ref: ref, Branch: branch, Dir: s.dir}, nil
}

type fixture struct {
	server *httptest.Server
	ledger *runledger.MemoryStore
	arch   *archive.MemoryStore
	logs   *trace.Logger
}

func newFixture(t *testing.T, cloner generate.Cloner, client llmclient.Client) *fixture {
	t.Helper()
	quiet := log.New(io.Discard, "", 0)
	gen := &readme.Generator{
		Filter:      scan.NewFilter(scan.NewIgnoreList(nil, nil), quiet),
		Client:      llm.Wrap(client, llm.WithHooks(), llm.Retry(3, llm.Immediate)),
		SynthClient: llm.Wrap(client, llm.WithHooks()),
		Opts:        readme.Options{Log: quiet},
	}
	ledger, err := runledger.NewMemoryStore(0)
	tester.NoErr(t, err)
	arch := archive.NewMemoryStore()
	logs := trace.NewLogger(t.TempDir())
	svc := generate.New(cloner, gen,
		generate.WithLedger(ledger),
		generate.WithArchive(arch),
		generate.WithObserver(logs),
	)

	mux := http.NewServeMux()
	rh := NewReadmeHandler(svc)
	th := NewTraceHandler(logs, ledger, arch)
	mux.HandleFunc("/", rh.HandleHome)
	mux.HandleFunc("/generate-readme", rh.HandleGenerate)
	mux.HandleFunc("/ws/generate", rh.HandleGenerateWS)
	mux.HandleFunc("/debug/run-logs", th.HandleRunLogs)
	mux.HandleFunc("/debug/runs", th.HandleRuns)
	mux.HandleFunc("/debug/artifacts", th.HandleArtifacts)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &fixture{server: srv, ledger: ledger, arch: arch, logs: logs}
}

func repoDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range map[string]string{
		"main.go":       "package main\n",
		"lib/util.go":   "package lib\n",
		"docs/intro.md": "# Intro\n",
	} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		tester.NoErr(t, os.MkdirAll(filepath.Dir(p), 0o755))
		tester.NoErr(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func decode(t *testing.T, resp *http.Response) generateResponse {
	t.Helper()
	defer resp.Body.Close()
	var out generateResponse
	tester.NoErr(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestGenerateReadmeForm(t *testing.T) {
	f := newFixture(t, stubCloner{dir: repoDir(t)}, llmclient.NewFakeClient())

	resp, err := http.PostForm(f.server.URL+"/generate-readme", url.Values{"profile": {"acme"}, "repo": {"demo"}})
	tester.NoErr(t, err)
	tester.Eq(t, resp.StatusCode, http.StatusOK)
	out := decode(t, resp)
	tester.Eq(t, out.Error, "")
	tester.Contains(t, out.README, "# Project")
	tester.Contains(t, out.HTML, "<h1>Project</h1>")
	tester.True(t, out.RunID != "")

	run, err := f.ledger.Get(context.Background(), out.RunID)
	tester.NoErr(t, err)
	tester.Eq(t, run.Status, runledger.StatusSucceeded)
}

func TestGenerateReadmeJSON(t *testing.T) {
	f := newFixture(t, stubCloner{dir: repoDir(t)}, llmclient.NewFakeClient())

	body := strings.NewReader(`{"github_url":"https://github.com/acme/demo.git","branch":"dev"}`)
	resp, err := http.Post(f.server.URL+"/generate-readme", "application/json", body)
	tester.NoErr(t, err)
	tester.Eq(t, resp.StatusCode, http.StatusOK)
	out := decode(t, resp)
	tester.Contains(t, out.README, "# Project")

	run, err := f.ledger.Get(context.Background(), out.RunID)
	tester.NoErr(t, err)
	tester.Eq(t, run.Branch, "dev")
	tester.Eq(t, run.Repo, "acme/demo")
}

func TestGenerateReadmeBadInput(t *testing.T) {
	f := newFixture(t, stubCloner{dir: repoDir(t)}, llmclient.NewFakeClient())

	cases := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"empty form", "application/x-www-form-urlencoded", "", "Form Data is empty!"},
		{"missing repo", "application/x-www-form-urlencoded", "profile=acme", "Both profile and repository are required."},
		{"bad json", "application/json", "{", "invalid json body"},
		{"foreign host", "application/json", `{"github_url":"https://gitlab.com/a/b"}`, "invalid repository"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(f.server.URL+"/generate-readme", tc.contentType, strings.NewReader(tc.body))
			tester.NoErr(t, err)
			tester.Eq(t, resp.StatusCode, http.StatusBadRequest)
			tester.Contains(t, decode(t, resp).Error, tc.want)
		})
	}

	resp, err := http.Get(f.server.URL + "/generate-readme")
	tester.NoErr(t, err)
	resp.Body.Close()
	tester.Eq(t, resp.StatusCode, http.StatusMethodNotAllowed)
}

func TestGenerateReadmeCloneFailure(t *testing.T) {
	f := newFixture(t, stubCloner{err: errors.New("exit status 128")}, llmclient.NewFakeClient())

	resp, err := http.PostForm(f.server.URL+"/generate-readme", url.Values{"profile": {"acme"}, "repo": {"missing"}})
	tester.NoErr(t, err)
	tester.Eq(t, resp.StatusCode, http.StatusInternalServerError)
	out := decode(t, resp)
	tester.Contains(t, out.Error, "Failed to clone repository")
	tester.Eq(t, out.Kind, string(readme.KindClone))
	tester.Eq(t, out.README, "")
}

func TestGenerateReadmePipelineErrorIsJSON(t *testing.T) {
	client := llmclient.NewFakeClient(
		llmclient.FakeReply{Text: "1. main.go (.): 0.01 KB"},
		llmclient.FakeReply{Err: errors.New("Error: 529 overloaded")},
	)
	f := newFixture(t, stubCloner{dir: repoDir(t)}, client)

	resp, err := http.PostForm(f.server.URL+"/generate-readme", url.Values{"profile": {"acme"}, "repo": {"demo"}})
	tester.NoErr(t, err)
	tester.Eq(t, resp.StatusCode, http.StatusOK)
	out := decode(t, resp)
	tester.Eq(t, out.Kind, string(readme.KindSynthesis))
	tester.Eq(t, out.README, "")
	tester.True(t, out.RunID != "")
}

func TestHomePage(t *testing.T) {
	f := newFixture(t, stubCloner{dir: repoDir(t)}, llmclient.NewFakeClient())

	resp, err := http.Get(f.server.URL + "/")
	tester.NoErr(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	tester.NoErr(t, err)
	tester.Eq(t, resp.StatusCode, http.StatusOK)
	tester.Contains(t, string(body), "README Generator")
	tester.Contains(t, string(body), "/generate-readme")

	resp, err = http.Get(f.server.URL + "/nope")
	tester.NoErr(t, err)
	resp.Body.Close()
	tester.Eq(t, resp.StatusCode, http.StatusNotFound)
}

func TestDebugEndpoints(t *testing.T) {
	f := newFixture(t, stubCloner{dir: repoDir(t)}, llmclient.NewFakeClient())
	resp, err := http.PostForm(f.server.URL+"/generate-readme", url.Values{"profile": {"acme"}, "repo": {"demo"}})
	tester.NoErr(t, err)
	runID := decode(t, resp).RunID

	var logs struct {
		RunID  string        `json:"run_id"`
		Events []trace.Event `json:"events"`
	}
	getJSON(t, f.server.URL+"/debug/run-logs?run_id="+runID, &logs)
	tester.Eq(t, logs.RunID, runID)
	tester.True(t, len(logs.Events) > 0)
	tester.Eq(t, logs.Events[0].Stage, readme.StageClone)
	tester.Eq(t, logs.Events[len(logs.Events)-1].Stage, readme.StageDone)

	var runs struct {
		Runs []runledger.Run `json:"runs"`
	}
	getJSON(t, f.server.URL+"/debug/runs?limit=5", &runs)
	tester.Len(t, runs.Runs, 1)
	tester.Eq(t, runs.Runs[0].ID, runID)

	var artifacts struct {
		Paths []string `json:"paths"`
	}
	getJSON(t, f.server.URL+"/debug/artifacts?run_id="+runID, &artifacts)
	tester.Eq(t, artifacts.Paths, []string{archive.RankPrompt, archive.RankResponse, archive.SynthesisPrompt})

	resp, err = http.Get(f.server.URL + "/debug/artifacts?run_id=" + runID + "&path=" + archive.RankResponse)
	tester.NoErr(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	tester.NoErr(t, err)
	tester.Contains(t, string(raw), "main.go")

	resp, err = http.Get(f.server.URL + "/debug/runs?run_id=unknown")
	tester.NoErr(t, err)
	resp.Body.Close()
	tester.Eq(t, resp.StatusCode, http.StatusNotFound)
}

func getJSON(t *testing.T, u string, v any) {
	t.Helper()
	resp, err := http.Get(u)
	tester.NoErr(t, err)
	defer resp.Body.Close()
	tester.Eq(t, resp.StatusCode, http.StatusOK)
	tester.NoErr(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestGenerateWebSocketStreamsStages(t *testing.T) {
	f := newFixture(t, stubCloner{dir: repoDir(t)}, llmclient.NewFakeClient())

	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/generate?github_url=github.com/acme/demo"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	tester.NoErr(t, err)
	defer conn.Close()

	var stages []string
	var final streamOutbound
	for {
		var msg streamOutbound
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if msg.Type == "stage" {
			stages = append(stages, msg.Event.Stage)
			continue
		}
		final = msg
		break
	}
	tester.Eq(t, final.Type, "result")
	tester.Contains(t, final.README, "# Project")
	tester.True(t, len(stages) >= 2)
	tester.Eq(t, stages[0], readme.StageClone)
	tester.Eq(t, stages[len(stages)-1], readme.StageDone)
}

func TestGenerateWebSocketRejectsMissingRepo(t *testing.T) {
	f := newFixture(t, stubCloner{dir: repoDir(t)}, llmclient.NewFakeClient())
	resp, err := http.Get(f.server.URL + "/ws/generate")
	tester.NoErr(t, err)
	resp.Body.Close()
	tester.Eq(t, resp.StatusCode, http.StatusBadRequest)
}
