package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"medadmin/m/internal/catalog"
	"medadmin/m/internal/imagehost"
	"medadmin/m/internal/session"
)

func (h *Handler) adminPage(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	data := pageData{Title: "Medicines", Notice: takeNotice(w, r), Email: sess.Email}

	if id := r.URL.Query().Get("edit"); id != "" {
		form, err := h.records.Edit(r.Context(), sess, id)
		if err != nil {
			data.Notice = catalog.Notice(err)
		} else {
			data.Form = form
		}
	}
	h.render(w, http.StatusOK, "admin", data)
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	records, err := h.records.List(r.Context(), sess)
	if err != nil {
		h.render(w, http.StatusInternalServerError, "records", pageData{LoadError: true})
		return
	}
	h.render(w, http.StatusOK, "records", pageData{Records: records})
}

func (h *Handler) submitRecord(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		setNotice(w, "The upload is too large or malformed")
		http.Redirect(w, r, session.HomePath, http.StatusSeeOther)
		return
	}

	form := catalog.Form{
		EditID:            r.FormValue("edit_id"),
		Name:              r.FormValue("name"),
		Brand:             r.FormValue("brand"),
		Description:       r.FormValue("description"),
		Composition:       r.FormValue("composition"),
		DoseIndication:    r.FormValue("dose_indication"),
		Company:           r.FormValue("company"),
		Contraindications: r.FormValue("contraindications"),
	}

	image, err := imageFromRequest(r)
	if err != nil {
		log.Error().Err(err).Str("owner_id", sess.UserID).Msg("read image failed")
		h.render(w, http.StatusBadRequest, "admin", pageData{Title: "Medicines", Notice: "Image upload failed", Email: sess.Email, Form: form})
		return
	}

	saved, err := h.records.Submit(r.Context(), sess, form, image)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, catalog.ErrValidation):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, catalog.ErrBusy):
			status = http.StatusConflict
		case errors.Is(err, catalog.ErrUpload):
			status = http.StatusBadGateway
		case errors.Is(err, catalog.ErrNotFound), errors.Is(err, catalog.ErrForbidden):
			status = http.StatusNotFound
		}
		h.render(w, status, "admin", pageData{Title: "Medicines", Notice: catalog.Notice(err), Email: sess.Email, Form: form})
		return
	}

	if form.Editing() {
		setNotice(w, "Medicine updated: "+saved.Name)
	} else {
		setNotice(w, "Medicine added: "+saved.Name)
	}
	http.Redirect(w, r, session.HomePath, http.StatusSeeOther)
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	record, err := h.records.Get(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		setNotice(w, catalog.Notice(err))
		http.Redirect(w, r, session.HomePath, http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "confirm_delete", pageData{Title: "Delete Medicine", Email: sess.Email, Record: record})
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	if err := h.records.Delete(r.Context(), sess, chi.URLParam(r, "id")); err != nil {
		setNotice(w, "Delete failed: "+catalog.Notice(err))
	} else {
		setNotice(w, "Medicine deleted")
	}
	http.Redirect(w, r, session.HomePath, http.StatusSeeOther)
}

// imageFromRequest returns nil when no file was chosen.
func imageFromRequest(r *http.Request) (*imagehost.File, error) {
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if header.Filename == "" || header.Size == 0 {
		return nil, nil
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &imagehost.File{Name: header.Filename, ContentType: contentType, Data: data}, nil
}
