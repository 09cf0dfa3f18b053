package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/eleven-am/recipe-api/internal/auth"
	"github.com/eleven-am/recipe-api/internal/models"
	"github.com/eleven-am/recipe-api/internal/orm"
	"github.com/go-chi/chi/v5"
)

// ownedBy limits recipe access to a single owner
func ownedBy(userID int64) orm.AuthorizeFunc[models.Recipe] {
	return func(ctx context.Context, q *orm.Query[models.Recipe]) *orm.Query[models.Recipe] {
		return q.Where(models.Recipes.UserID.Eq(userID))
	}
}

// recipes returns the recipe repository scoped to the caller
func (s *Server) recipes(r *http.Request) *orm.Repository[models.Recipe] {
	return s.store.Recipes.Authorize(ownedBy(auth.UserFromContext(r.Context()).ID))
}

// recipeID reads the {id} path parameter; anything but an integer is unknown
func recipeID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.recipes(r).Query(r.Context()).
		OrderBy(models.Recipes.ID.Desc()).
		Find()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderRecipes(recipes))
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	p, ok := readPayload(w, r)
	if !ok {
		return
	}

	in, errs := parseRecipeInput(p, modeCreate)
	if !errs.Empty() {
		writeValidation(w, errs)
		return
	}

	recipe := &models.Recipe{UserID: auth.UserFromContext(r.Context()).ID}
	in.apply(recipe, modeCreate)

	if err := s.store.Recipes.Create(r.Context(), recipe); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, renderRecipeDetail(recipe))
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	recipe, err := s.recipes(r).FindByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderRecipeDetail(recipe))
}

// handleUpdateRecipe serves PUT and PATCH. The owner never changes.
func (s *Server) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	repo := s.recipes(r)
	recipe, err := repo.FindByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	p, ok := readPayload(w, r)
	if !ok {
		return
	}

	mode := modeFor(r.Method)
	in, errs := parseRecipeInput(p, mode)
	if !errs.Empty() {
		writeValidation(w, errs)
		return
	}

	owner := recipe.UserID
	in.apply(recipe, mode)
	recipe.UserID = owner

	if err := repo.Update(r.Context(), recipe); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, renderRecipeDetail(recipe))
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	if err := s.recipes(r).Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
