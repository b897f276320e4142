package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"readmegen/internal/gateway/service/generate"
	"readmegen/internal/readme"
	"readmegen/internal/repo"
)

const maxFormBytes = 1 << 20

// ReadmeHandler serves the home page and the generation endpoints.
type ReadmeHandler struct {
	svc *generate.Service
}

func NewReadmeHandler(svc *generate.Service) *ReadmeHandler {
	return &ReadmeHandler{svc: svc}
}

type generateJSON struct {
	GitHubURL string `json:"github_url"`
	Profile   string `json:"profile"`
	Repo      string `json:"repo"`
	Branch    string `json:"branch"`
}

type generateResponse struct {
	README string `json:"readme,omitempty"`
	HTML   string `json:"html,omitempty"`
	Title  string `json:"title,omitempty"`
	Error  string `json:"error,omitempty"`
	Kind   string `json:"kind,omitempty"`
	RunID  string `json:"run_id,omitempty"`
}

// badRequest is an input problem reported with HTTP 400.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HandleGenerate accepts form fields profile+repo(+branch) or a JSON body
// with github_url (or profile+repo). Clone failures answer 500; pipeline
// failures answer 200 with an error field.
func (h *ReadmeHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	req, err := parseGenerateRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, generateResponse{Error: err.Error()})
		return
	}

	out := h.svc.Generate(r.Context(), req, nil)
	if out.Err != nil {
		status := http.StatusOK
		if out.IsClone() {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, generateResponse{
			Error: out.Err.Error(),
			Kind:  string(readme.KindOf(out.Err)),
			RunID: out.RunID,
		})
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{
		README: out.Result.README,
		HTML:   out.Result.HTML,
		Title:  out.Result.Title,
		RunID:  out.RunID,
	})
}

func parseGenerateRequest(r *http.Request) (generate.Request, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var in generateJSON
		if err := json.NewDecoder(io.LimitReader(r.Body, maxFormBytes)).Decode(&in); err != nil {
			return generate.Request{}, badRequest{"invalid json body"}
		}
		return buildRequest(in)
	}

	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return generate.Request{}, badRequest{"Form Data is empty!"}
	}
	if len(r.PostForm) == 0 {
		return generate.Request{}, badRequest{"Form Data is empty!"}
	}
	return buildRequest(generateJSON{
		GitHubURL: r.PostFormValue("github_url"),
		Profile:   r.PostFormValue("profile"),
		Repo:      r.PostFormValue("repo"),
		Branch:    r.PostFormValue("branch"),
	})
}

func buildRequest(in generateJSON) (generate.Request, error) {
	var (
		ref repo.Ref
		err error
	)
	switch {
	case strings.TrimSpace(in.GitHubURL) != "":
		ref, err = repo.ParseGitHubURL(in.GitHubURL)
	case strings.TrimSpace(in.Profile) == "" || strings.TrimSpace(in.Repo) == "":
		return generate.Request{}, badRequest{"Both profile and repository are required."}
	default:
		ref, err = repo.FromProfile(in.Profile, in.Repo)
	}
	if err != nil {
		return generate.Request{}, badRequest{fmt.Sprintf("invalid repository: %v", err)}
	}
	return generate.Request{Ref: ref, Branch: strings.TrimSpace(in.Branch)}, nil
}

// HandleHome serves the single-page form.
func (h *ReadmeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, homePage)
}
