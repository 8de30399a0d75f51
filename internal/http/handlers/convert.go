package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"docconvert/internal/convert"
	"docconvert/internal/domain"
)

// multipartMemory caps the in-memory portion of multipart parsing;
// larger uploads spill to temporary files owned by net/http.
const multipartMemory = 8 << 20

// Convert accepts a multipart upload with fields "mode" and "file", runs
// the conversion job and streams the artifact back as an attachment.
func (a *App) Convert(w http.ResponseWriter, r *http.Request) {
	sess := a.Sessions.Key(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, a.Cfg.MaxRequestBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			a.error(w, http.StatusRequestEntityTooLarge, "file_too_large", a.msg(r, "file_too_large"))
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", a.msg(r, "no_file"))
		return
	}

	upload := convert.Upload{}
	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		upload = convert.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			File:        file,
		}
	}

	res, err := a.Converter.Convert(r.Context(), sess, r.FormValue("mode"), upload)
	if err != nil {
		a.convertError(w, r, sess, err)
		return
	}
	a.sendAttachment(w, r, res)
}

func (a *App) convertError(w http.ResponseWriter, r *http.Request, sess string, err error) {
	switch {
	case errors.Is(err, domain.ErrQuotaExceeded):
		st, checkErr := a.Ledger.Check(r.Context(), sess)
		if checkErr != nil {
			a.Logger.Error().Err(checkErr).Msg("quota check failed")
		}
		a.json(w, http.StatusPaymentRequired, map[string]any{
			"error":              map[string]any{"code": "quota_exceeded", "message": a.msg(r, "quota_exceeded")},
			"conversions_used":   st.Used,
			"conversions_budget": st.Budget,
		})
	case errors.Is(err, domain.ErrInvalidMode):
		a.error(w, http.StatusBadRequest, "invalid_mode", a.msg(r, "invalid_mode"))
	case errors.Is(err, domain.ErrNoFile):
		a.error(w, http.StatusBadRequest, "no_file", a.msg(r, "no_file"))
	case errors.Is(err, domain.ErrInvalidFileType):
		a.error(w, http.StatusBadRequest, "invalid_file_type", a.msg(r, "invalid_file_type"))
	case errors.Is(err, domain.ErrInvalidFileFormat):
		a.error(w, http.StatusBadRequest, "invalid_file_format", a.msg(r, "invalid_file_format"))
	case errors.Is(err, domain.ErrEmptyFile):
		a.error(w, http.StatusBadRequest, "empty_file", a.msg(r, "empty_file"))
	case errors.Is(err, domain.ErrFileTooLarge):
		a.error(w, http.StatusRequestEntityTooLarge, "file_too_large", a.msg(r, "file_too_large"))
	case errors.Is(err, domain.ErrConversionTimeout):
		a.error(w, http.StatusGatewayTimeout, "conversion_timeout", a.msg(r, "conversion_timeout"))
	default:
		// ErrConversionFailed, ErrOutputMissing and anything unexpected:
		// the caller gets a generic failure, details are already logged.
		a.error(w, http.StatusInternalServerError, "conversion_failed", a.msg(r, "conversion_failed"))
	}
}

func (a *App) sendAttachment(w http.ResponseWriter, r *http.Request, res *convert.ResultFile) {
	// The output file is deleted once the transfer finished, whether or
	// not it completed; the sweeper covers anything missed on crash.
	defer a.Converter.DiscardOutput(res.Path)

	f, err := os.Open(res.Path)
	if err != nil {
		a.Logger.Error().Err(err).Str("path", res.Path).Msg("open output failed")
		a.error(w, http.StatusInternalServerError, "conversion_failed", a.msg(r, "conversion_failed"))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.DownloadName+`"`)
	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	if _, err := io.Copy(w, f); err != nil {
		// Response already started; nothing left to do but log.
		a.Logger.Warn().Err(err).Msg("streaming output interrupted")
	}
}
