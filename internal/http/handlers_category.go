package http

import (
	"net/http"

	"finboard/internal/core"
)

// handleCategories creates (POST), updates (PUT), or deletes (DELETE)
// a user category. Default categories are immutable from the UI.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createCategory(w, r)
	case http.MethodPut:
		s.updateCategory(w, r)
	case http.MethodDelete:
		s.deleteCategory(w, r)
	default:
		MethodNotAllowedError("POST, PUT, DELETE").Write(w)
	}
}

func (s *Server) categoryFromForm(r *http.Request) core.Category {
	return core.Category{
		ID:          sanitizeInput(r.Form.Get("id")),
		Name:        sanitizeInput(r.Form.Get("name")),
		Description: sanitizeInput(r.Form.Get("description")),
		Color:       sanitizeInput(r.Form.Get("color")),
		Icon:        sanitizeInput(r.Form.Get("icon")),
	}
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	cat := s.categoryFromForm(r)
	cat.ID = ""
	if err := cat.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	created, cols, err := s.dashboard.AddCategory(r.Context(), cat)
	if err != nil {
		s.writeMutationError(w, r, "create category", err)
		return
	}

	NewHTMXResponse().
		Trigger("category:created", map[string]string{"id": created.ID, "name": created.Name}).
		TriggerCollectionsInvalidated(cols).
		TriggerFormReset().
		TriggerSuccessNotification("Category created").
		Write(w)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	cat := s.categoryFromForm(r)
	if cat.ID == "" {
		BadRequestError("Missing category id").Write(w)
		return
	}
	if err := cat.Validate(); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}
	if existing, ok := s.findCategory(r, cat.ID); ok && existing.IsDefault {
		UnprocessableEntityError("Default categories cannot be edited").Write(w)
		return
	}

	cols, err := s.dashboard.UpdateCategory(r.Context(), cat)
	if err != nil {
		s.writeMutationError(w, r, "update category", err)
		return
	}

	NewHTMXResponse().
		Trigger("category:updated", map[string]string{"id": cat.ID}).
		TriggerCollectionsInvalidated(cols).
		TriggerSuccessNotification("Category updated").
		Write(w)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.URL.Query().Get("id"))
	if id == "" {
		BadRequestError("Missing category id").Write(w)
		return
	}

	cat := core.Category{ID: id}
	if existing, ok := s.findCategory(r, id); ok {
		if existing.IsDefault {
			UnprocessableEntityError("Default categories cannot be deleted").Write(w)
			return
		}
		cat = existing
	}

	cols, err := s.dashboard.DeleteCategory(r.Context(), cat)
	if err != nil {
		s.writeMutationError(w, r, "delete category", err)
		return
	}

	NewHTMXResponse().
		Trigger("category:deleted", map[string]string{"id": id}).
		TriggerCollectionsInvalidated(cols).
		TriggerSuccessNotification("Category deleted").
		Write(w)
}

// findCategory resolves a category by id from the cached list. A cache
// or backend miss returns false and leaves enforcement to the backend.
func (s *Server) findCategory(r *http.Request, id string) (core.Category, bool) {
	list, err := s.dashboard.GetCategories(r.Context(), true)
	if err != nil {
		return core.Category{}, false
	}
	for _, c := range list {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}
