// Package create serves the recipe creation form. The form state lives in
// a server-side draft; every POST binds the posted fields into the draft,
// applies the button that was pressed and renders the form again.
package create

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"

	"github.com/matt-dz/recipebox/internal/backend"
	"github.com/matt-dz/recipebox/internal/draft"
	"github.com/matt-dz/recipebox/internal/env"
	"github.com/matt-dz/recipebox/internal/log"
	webError "github.com/matt-dz/recipebox/internal/web/error"
	"github.com/matt-dz/recipebox/internal/web/render"
	"github.com/matt-dz/recipebox/internal/web/requestid"
	"github.com/matt-dz/recipebox/internal/web/session"
)

const (
	MaxRequestSize = 20 << 20
	RedirectDelay  = 1500 * time.Millisecond
	RedirectTarget = "/"
	SuccessMessage = "¡Receta creada con éxito!"
	FieldAction    = "action"
)

const (
	staleFormNotice      = "El formulario estaba desactualizado. Revisa los datos y vuelve a intentarlo."
	expiredSessionNotice = "La sesión del formulario caducó. Revisa los datos y vuelve a enviarlos."
	inFlightNotice       = "La receta ya se está guardando."
	missingRowNotice     = "La fila indicada no existe."
)

const (
	backendUnavailableMessage = "Error: no se pudo guardar la receta. Inténtalo de nuevo."
	malformedResponseMessage  = "Error: el servidor respondió de forma inesperada."
	encodeFailedMessage       = "Error: no se pudo preparar la receta."
)

type option struct {
	ID       int64
	Name     string
	Selected bool
}

type stepView struct {
	Description string
	Photo       string
}

type formView struct {
	Revision        uint64
	Name            string
	Description     string
	Categories      []option
	CategoriesError bool
	MainPhoto       string
	Ingredients     []draft.IngredientRow
	Steps           []stepView
	Message         string
	Submitting      bool
}

func newFormView(snap draft.Snapshot) formView {
	view := formView{
		Revision:        snap.Revision,
		Name:            snap.Name,
		Description:     snap.Description,
		CategoriesError: snap.CategoriesErr != nil,
		Ingredients:     snap.Ingredients,
		Message:         snap.Message,
		Submitting:      snap.Submitting,
	}
	for _, c := range snap.Categories {
		view.Categories = append(view.Categories, option{
			ID:       c.ID,
			Name:     c.Name,
			Selected: strconv.FormatInt(c.ID, 10) == snap.CategoryID,
		})
	}
	if snap.MainPhoto != nil {
		view.MainPhoto = snap.MainPhoto.Name
	}
	for _, s := range snap.Steps {
		step := stepView{Description: s.Description}
		if s.Photo != nil {
			step.Photo = s.Photo.Name
		}
		view.Steps = append(view.Steps, step)
	}
	return view
}

// page is one response of the create view.
type page struct {
	status   int
	notice   string
	redirect bool
}

// HandleNew starts a fresh draft. Categories are fetched once per draft.
func HandleNew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	env := env.EnvFromCtx(ctx)

	if id, err := session.DraftID(r, env.Config); err == nil {
		env.Drafts.Delete(id)
	}

	d := startDraft(ctx, env)
	renderForm(w, r, env, d, page{status: http.StatusOK})
}

// HandlePost binds the posted form into the caller's draft and applies the
// pressed button.
func HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	env := env.EnvFromCtx(ctx)
	requestID := requestid.ExtractRequestID(ctx)

	values, files, err := parseForm(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			env.Logger.WarnContext(ctx, "form too large", slog.Int64("limit", maxErr.Limit))
			webError.RenderError(w, env.Renderer, env.Logger, webError.RequestTooLarge, requestID, "/create")
			return
		}
		env.Logger.ErrorContext(ctx, "failed to parse form", slog.Any("error", err))
		webError.RenderError(w, env.Renderer, env.Logger, webError.BadRequest, requestID, "/create")
		return
	}

	action, err := ParseAction(values.Get(FieldAction))
	if err != nil {
		env.Logger.WarnContext(ctx, "rejecting form", slog.Any("error", err))
		webError.RenderError(w, env.Renderer, env.Logger, webError.UnknownAction, requestID, "/create")
		return
	}

	if action.IsSubmit() {
		if id, err := session.DraftID(r, env.Config); err == nil && env.Drafts.Completed(id) {
			env.Logger.InfoContext(ctx, "form already submitted", slog.String("draft_id", id.String()))
			done := draft.New(id, nil, nil)
			done.SetMessage(SuccessMessage)
			renderForm(w, r, env, done, page{status: http.StatusOK, redirect: true})
			return
		}
	}

	d, revision, fresh := loadDraft(ctx, r, env, values, files)
	ctx = log.AppendCtx(ctx, slog.String("draft_id", d.ID().String()))
	env.Logger.DebugContext(ctx, "applying form action",
		slog.String("action", action.String()), slog.Bool("fresh_draft", fresh))

	err = d.Bind(revision, values, files)
	switch {
	case errors.Is(err, draft.ErrStaleForm):
		env.Logger.WarnContext(ctx, "stale form", slog.Any("error", err))
		renderForm(w, r, env, d, page{status: http.StatusConflict, notice: staleFormNotice})
		return
	case err != nil:
		// Text fields were bound; only the rejected images are missing.
		env.Logger.WarnContext(ctx, "rejected image", slog.Any("error", err))
		d.SetMessage("Error: " + imageProblem(err))
		if action.IsSubmit() {
			renderForm(w, r, env, d, page{status: http.StatusUnprocessableEntity})
			return
		}
	default:
		d.SetMessage("")
	}

	switch action.kind {
	case actionAddIngredient:
		d.AddIngredientRow()
	case actionAddStep:
		d.AddStepRow()
	case actionRemoveIngredient, actionRemoveStep:
		remove := d.RemoveIngredientRow
		if action.kind == actionRemoveStep {
			remove = d.RemoveStepRow
		}
		if err := remove(action.index); err != nil {
			env.Logger.WarnContext(ctx, "rejected row removal", slog.Any("error", err))
			renderForm(w, r, env, d, page{status: http.StatusBadRequest, notice: missingRowNotice})
			return
		}
	case actionSubmit:
		if fresh {
			// The form was rendered for a draft that no longer exists.
			env.Logger.WarnContext(ctx, "submit without a live draft")
			renderForm(w, r, env, d, page{status: http.StatusConflict, notice: expiredSessionNotice})
			return
		}
		renderForm(w, r, env, d, submit(ctx, env, d))
		return
	}

	renderForm(w, r, env, d, page{status: http.StatusOK})
}

func parseForm(r *http.Request) (url.Values, map[string][]*multipart.FileHeader, error) {
	err := r.ParseMultipartForm(MaxRequestSize)
	if errors.Is(err, http.ErrNotMultipart) {
		if err := r.ParseForm(); err != nil {
			return nil, nil, err
		}
		return r.PostForm, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return r.MultipartForm.Value, r.MultipartForm.File, nil
}

func startDraft(ctx context.Context, env *env.Env) *draft.Draft {
	categories, err := env.Backend.ListCategories(ctx)
	if err != nil {
		env.Logger.ErrorContext(ctx, "failed to list categories", slog.Any("error", err))
	}
	d := env.Drafts.Start(categories, err)
	env.Logger.DebugContext(ctx, "started draft", slog.String("draft_id", d.ID().String()))
	return d
}

// loadDraft returns the caller's draft and the revision to bind against. A
// request without a live draft gets a fresh one shaped after the posted
// rows, so its values are bound into it as posted; fresh reports that case.
func loadDraft(
	ctx context.Context, r *http.Request, env *env.Env,
	values url.Values, files map[string][]*multipart.FileHeader,
) (d *draft.Draft, revision uint64, fresh bool) {
	id, err := session.DraftID(r, env.Config)
	if err == nil {
		var ok bool
		if d, ok = env.Drafts.Get(id); ok {
			rev, err := draft.ParseRevision(values)
			if err != nil {
				// Bind rejects anything that is not the current revision.
				return d, d.Revision() + 1, false
			}
			return d, rev, false
		}
		env.Logger.DebugContext(ctx, "draft expired", slog.String("draft_id", id.String()))
	} else if !errors.Is(err, session.ErrNoSession) {
		env.Logger.WarnContext(ctx, "ignoring draft session", slog.Any("error", err))
	}

	d = startDraft(ctx, env)
	d.EnsureRows(draft.PostedRows(values, files))
	return d, d.Revision(), true
}

// submit validates the draft and sends it to the backend. Success destroys
// the draft; any failure keeps it so the user can retry.
func submit(ctx context.Context, env *env.Env, d *draft.Draft) page {
	if err := d.BeginSubmit(); err != nil {
		env.Logger.WarnContext(ctx, "duplicate submission", slog.Any("error", err))
		if errors.Is(err, draft.ErrAlreadySubmitted) {
			d.SetMessage(SuccessMessage)
			return page{status: http.StatusOK, redirect: true}
		}
		return page{status: http.StatusConflict, notice: inFlightNotice}
	}
	defer d.EndSubmit()

	snap := d.Snapshot()
	if err := snap.Validate(); err != nil {
		env.Logger.DebugContext(ctx, "draft is incomplete", slog.Any("error", err))
		d.SetMessage("Error: " + err.Error())
		return page{status: http.StatusUnprocessableEntity}
	}

	contentType, body, err := snap.Encode()
	if err != nil {
		env.Logger.ErrorContext(ctx, "failed to encode draft", slog.Any("error", err))
		d.SetMessage(encodeFailedMessage)
		return page{status: http.StatusInternalServerError}
	}

	result, err := env.Backend.CreateRecipe(ctx, contentType, body)
	if err != nil {
		env.Logger.ErrorContext(ctx, "failed to create recipe", slog.Any("error", err))
		if errors.Is(err, backend.ErrMalformedResponse) {
			d.SetMessage(malformedResponseMessage)
		} else {
			d.SetMessage(backendUnavailableMessage)
		}
		return page{status: http.StatusOK}
	}
	if !result.Success {
		d.SetMessage("Error: " + result.Error)
		return page{status: http.StatusOK}
	}

	env.Logger.InfoContext(ctx, "recipe created", slog.Int64("recipe_id", result.ID))
	d.MarkSubmitted()
	d.SetMessage(SuccessMessage)
	env.Drafts.Complete(d.ID())
	return page{status: http.StatusOK, redirect: true}
}

func imageProblem(err error) string {
	var problems []string
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			problems = append(problems, e.Error())
		}
	} else {
		problems = append(problems, err.Error())
	}
	return strings.Join(problems, "; ")
}

func renderForm(w http.ResponseWriter, r *http.Request, env *env.Env, d *draft.Draft, p page) {
	ctx := r.Context()

	var cookie *http.Cookie
	if p.redirect {
		cookie = session.ClearCookie(env.Config)
	} else {
		var err error
		cookie, err = session.NewCookie(d.ID(), env.Config, env.Drafts.TTL())
		if err != nil {
			env.Logger.ErrorContext(ctx, "failed to issue draft session", slog.Any("error", err))
			webError.RenderError(w, env.Renderer, env.Logger, webError.InternalServerError,
				requestid.ExtractRequestID(ctx), "/create")
			return
		}
	}

	view := newFormView(d.Snapshot())
	if p.notice != "" {
		view.Message = p.notice
	}
	data := pongo2.Context{"form": view}
	if p.redirect {
		data["redirect"] = RedirectTarget
		data["redirect_delay"] = strconv.FormatFloat(RedirectDelay.Seconds(), 'f', -1, 64)
		data["redirect_delay_ms"] = RedirectDelay.Milliseconds()
	}

	http.SetCookie(w, cookie)
	if err := env.Renderer.Page(w, p.status, render.Create, data); err != nil {
		env.Logger.ErrorContext(ctx, "failed to render create form", slog.Any("error", err))
		webError.RenderError(w, env.Renderer, env.Logger, webError.InternalServerError,
			requestid.ExtractRequestID(ctx), "/create")
	}
}
