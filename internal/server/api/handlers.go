package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/gophlocker/internal/server/services"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling file parts to disk.
const multipartMemory = 4 << 20

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type noteRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	acc, err := s.accounts.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Registration successful!",
		"user":    map[string]any{"id": acc.ID, "name": acc.Name, "email": acc.Email},
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	acc, err := s.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"user":    accountView(acc),
	})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	acc, err := s.accounts.GetProfile(r.Context(), r.PathValue("user_id"))
	if err != nil {
		s.fail(w, r, err, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": accountView(acc)})
}

func (s *Server) uploadPhoto(w http.ResponseWriter, r *http.Request) {
	file, header, ok := s.formFile(w, r, "photo")
	if !ok {
		return
	}
	defer file.Close()

	url, err := s.accounts.UploadPhoto(r.Context(), r.PathValue("user_id"), header.Filename, file)
	if err != nil {
		s.fail(w, r, err, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Photo uploaded successfully!",
		"photo":   url,
	})
}

// addItem stores a file for multipart requests and a note otherwise.
func (s *Server) addItem(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	if isMultipart(r) {
		file, header, ok := s.formFile(w, r, "file")
		if !ok {
			return
		}
		defer file.Close()

		var tags []string
		for _, v := range r.MultipartForm.Value["tags"] {
			tags = append(tags, services.SplitTags(v)...)
		}

		item, err := s.locker.CreateFile(r.Context(), services.FileInput{
			UserID:   userID,
			Title:    r.FormValue("title"),
			Tags:     tags,
			Filename: header.Filename,
			Mime:     header.Header.Get("Content-Type"),
			Body:     file,
		})
		if err != nil {
			s.fail(w, r, err, "Not found")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"item":    services.SerializeItem(item, s.locker.UploadPrefix()),
		})
		return
	}

	var req noteRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	item, err := s.locker.CreateNote(r.Context(), services.NoteInput{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		s.fail(w, r, err, "Not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"item":    services.SerializeItem(item, s.locker.UploadPrefix()),
	})
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	list, err := s.locker.ListItems(r.Context(), r.PathValue("user_id"))
	if err != nil {
		s.fail(w, r, err, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"items":   services.SerializeItems(list, s.locker.UploadPrefix()),
	})
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.locker.DeleteItem(r.Context(), r.PathValue("item_id")); err != nil {
		s.fail(w, r, err, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) serveUpload(w http.ResponseWriter, r *http.Request) {
	blob, err := s.locker.FetchBlob(r.Context(), r.PathValue("filename"))
	if err != nil {
		s.fail(w, r, err, "Not found")
		return
	}
	defer blob.Body.Close()

	h := w.Header()
	h.Set("Content-Type", blob.Mime)
	h.Set("X-Content-Type-Options", "nosniff")

	if rs, ok := blob.Body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, blob.Name, blob.ModTime, rs)
		return
	}

	h.Set("Content-Length", strconv.FormatInt(blob.Size, 10))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, blob.Body); err != nil {
		s.logger.Warn(r.Context(), "blob copy interrupted",
			"request_id", RequestIDFromContext(r.Context()), "blob", blob.Name, "error", err)
	}
}

// decodeJSON parses the body as JSON whatever its declared content type.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.fail(w, r, err, "")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func (s *Server) formFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, bool) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.fail(w, r, err, "")
			return nil, nil, false
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return nil, nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return nil, nil, false
	}
	return file, header, true
}

func accountView(a *services.Account) map[string]any {
	return map[string]any{
		"id":    a.ID,
		"name":  a.Name,
		"email": a.Email,
		"photo": nullable(a.Photo),
	}
}
