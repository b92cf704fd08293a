package web

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hpungsan/tweetsched/internal/errors"
	"github.com/hpungsan/tweetsched/internal/hooks"
	"github.com/hpungsan/tweetsched/internal/llm"
	"github.com/hpungsan/tweetsched/internal/ops"
)

const (
	maxUploadBytes = 32 << 20
	maxJSONBytes   = 16 << 20
)

// Handlers contains HTTP route handlers for the scheduling API.
type Handlers struct {
	env     *ops.Env
	log     zerolog.Logger
	version string
}

// scheduleRequest is the JSON form of POST /api/schedule.
// Field names follow the multipart form.
type scheduleRequest struct {
	Tweets            string      `json:"tweets"`
	Posts             []string    `json:"posts"`
	Images            []jsonImage `json:"images"`
	ImageInstructions string      `json:"imageInstructions"`
	StartDate         string      `json:"startDate"`
	StartDay          string      `json:"startDay"`
	NoLLM             bool        `json:"noLLM"`
}

// jsonImage carries base64 image bytes.
type jsonImage struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mime_type"`
}

type scheduleResponse struct {
	Message string `json:"message"`
	*ops.ScheduleOutput
}

// HandleSchedule handles POST /api/schedule (multipart form or JSON).
func (h *Handlers) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	var input ops.ScheduleInput
	var err error
	if isMultipart(r) {
		input, err = scheduleFromForm(w, r)
	} else {
		input, err = scheduleFromJSON(w, r)
	}
	if err != nil {
		renderError(w, h.log, err)
		return
	}

	out, err := ops.Schedule(r.Context(), h.env, input)
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	renderJSON(w, http.StatusOK, scheduleResponse{Message: "Tweets scheduled successfully", ScheduleOutput: out})
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func scheduleFromForm(w http.ResponseWriter, r *http.Request) (ops.ScheduleInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return ops.ScheduleInput{}, errors.NewInvalidRequest("invalid multipart form")
	}

	input := ops.ScheduleInput{
		Text:              r.FormValue("tweets"),
		ImageInstructions: r.FormValue("imageInstructions"),
		StartDate:         r.FormValue("startDate"),
		StartWeekday:      r.FormValue("startDay"),
		NoLLM:             r.FormValue("noLLM") == "true",
	}
	if r.MultipartForm != nil {
		input.Posts = r.MultipartForm.Value["posts"]
		for _, key := range []string{"images", "images[]"} {
			for _, fh := range r.MultipartForm.File[key] {
				img, err := readImage(fh)
				if err != nil {
					return ops.ScheduleInput{}, err
				}
				input.Images = append(input.Images, img)
			}
		}
	}
	return input, nil
}

func readImage(fh *multipart.FileHeader) (llm.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return llm.Image{}, errors.NewInvalidRequest("cannot read image " + fh.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return llm.Image{}, errors.NewInvalidRequest("cannot read image " + fh.Filename)
	}
	mt := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(mt, "image/") {
		mt = "" // sniffed later
	}
	return llm.Image{Data: data, MIMEType: mt}, nil
}

func scheduleFromJSON(w http.ResponseWriter, r *http.Request) (ops.ScheduleInput, error) {
	var req scheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return ops.ScheduleInput{}, err
	}
	input := ops.ScheduleInput{
		Text:              req.Tweets,
		Posts:             req.Posts,
		ImageInstructions: req.ImageInstructions,
		StartDate:         req.StartDate,
		StartWeekday:      req.StartDay,
		NoLLM:             req.NoLLM,
	}
	for _, img := range req.Images {
		input.Images = append(input.Images, llm.Image{Data: img.Data, MIMEType: img.MIMEType})
	}
	return input, nil
}

type processURLRequest struct {
	URL      string `json:"url"`
	Schedule bool   `json:"schedule"`
}

type processURLResponse struct {
	Message string `json:"message"`
	*ops.ProcessURLOutput
}

// HandleProcessURL handles POST /api/process-url.
func (h *Handlers) HandleProcessURL(w http.ResponseWriter, r *http.Request) {
	var req processURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		renderError(w, h.log, err)
		return
	}

	out, err := ops.ProcessURL(r.Context(), h.env, ops.ProcessURLInput{URL: req.URL, Schedule: req.Schedule})
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	msg := "URL processed successfully"
	if out.Schedule != nil {
		msg = "URL processed and scheduled successfully"
	}
	renderJSON(w, http.StatusOK, processURLResponse{Message: msg, ProcessURLOutput: out})
}

// HandleScan handles GET /api/scan.
func (h *Handlers) HandleScan(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Scan(r.Context(), h.env)
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleHeader handles POST /api/header.
func (h *Handlers) HandleHeader(w http.ResponseWriter, r *http.Request) {
	out, err := ops.EnsureHeader(r.Context(), h.env)
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleNextDay handles GET /api/next-day?date=DD/MM/YYYY&weekday=Name.
func (h *Handlers) HandleNextDay(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := ops.NextDay(q.Get("date"), q.Get("weekday"))
	if err != nil {
		renderError(w, h.log, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleHooks handles GET /api/hooks, keyed by category like the web form expects.
func (h *Handlers) HandleHooks(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, hooks.ByKey())
}

// HandleHook handles GET /api/hooks/{category}.
func (h *Handlers) HandleHook(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "category")
	c, ok := hooks.Get(key)
	if !ok {
		renderError(w, h.log, errors.NewInvalidRequest("unknown hook category: "+key).
			WithDetail("categories", hooks.Keys()))
		return
	}
	renderJSON(w, http.StatusOK, c)
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": h.version})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderError writes {"error": {...}}. INTERNAL errors are logged and their
// message is replaced.
func renderError(w http.ResponseWriter, log zerolog.Logger, err error) {
	sErr := errors.As(err)

	body := map[string]any{
		"code":    string(sErr.Code),
		"message": sErr.Message,
		"status":  sErr.Status,
	}
	if sErr.Code == errors.ErrInternal {
		log.Error().Err(err).Msg("internal error")
		body["message"] = "internal error"
	} else if len(sErr.Details) > 0 {
		body["details"] = sErr.Details
	}
	renderJSON(w, sErr.Status, map[string]any{"error": body})
}
