package admin

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/eleven-am/recipe-api/internal/logger"
	"github.com/eleven-am/recipe-api/internal/models"
	"github.com/eleven-am/recipe-api/internal/orm"
	"github.com/shopspring/decimal"
)

const (
	msgInvalidInteger = "Enter a whole number."
	msgInvalidNumber  = "Enter a number."
	msgNotNegative    = "Ensure this value is greater than or equal to 0."
	msgMaxPlaces      = "Ensure that there are no more than 2 decimal places."
	msgMaxDigits      = "Ensure that there are no more than 5 digits in total."
	msgUnknownOwner   = "Select a valid choice. That choice is not one of the available choices."
)

// recipeRow is one changelist line
type recipeRow struct {
	ID    int64
	Title string
	Owner string
	Price string
}

func recipeForm(rc *models.Recipe) map[string]string {
	return map[string]string{
		"user":         strconv.FormatInt(rc.UserID, 10),
		"title":        rc.Title,
		"description":  rc.Description,
		"time_minutes": strconv.Itoa(rc.TimeMinutes),
		"price":        rc.Price.StringFixed(2),
		"link":         rc.Link,
	}
}

// readRecipeForm copies the posted fields into form and rc, collecting errors.
// owners is the set of users a recipe may be assigned to.
func readRecipeForm(r *http.Request, rc *models.Recipe, owners []models.User, form map[string]string, errs map[string][]string) {
	for _, key := range []string{"user", "title", "time_minutes", "price", "link"} {
		form[key] = strings.TrimSpace(r.PostFormValue(key))
	}
	form["description"] = r.PostFormValue("description")

	add := func(field, msg string) { errs[field] = append(errs[field], msg) }

	if form["user"] == "" {
		add("user", msgRequired)
	} else if id, err := strconv.ParseInt(form["user"], 10, 64); err != nil || !hasOwner(owners, id) {
		add("user", msgUnknownOwner)
	} else {
		rc.UserID = id
	}

	switch {
	case form["title"] == "":
		add("title", msgRequired)
	case len(form["title"]) > 255:
		add("title", msgTooLong)
	default:
		rc.Title = form["title"]
	}

	if form["time_minutes"] == "" {
		add("time_minutes", msgRequired)
	} else if n, err := strconv.Atoi(form["time_minutes"]); err != nil {
		add("time_minutes", msgInvalidInteger)
	} else if n < 0 {
		add("time_minutes", msgNotNegative)
	} else {
		rc.TimeMinutes = n
	}

	if form["price"] == "" {
		add("price", msgRequired)
	} else if price, err := decimal.NewFromString(form["price"]); err != nil {
		add("price", msgInvalidNumber)
	} else {
		switch {
		case price.IsNegative():
			add("price", msgNotNegative)
		case price.Exponent() < -2 && !price.Equal(price.Round(2)):
			add("price", msgMaxPlaces)
		case price.Round(2).Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)):
			add("price", msgMaxDigits)
		default:
			rc.Price = price.Round(2)
		}
	}

	if len(form["link"]) > 255 {
		add("link", msgTooLong)
	} else {
		rc.Link = form["link"]
	}
	rc.Description = form["description"]
}

func hasOwner(owners []models.User, id int64) bool {
	for _, u := range owners {
		if u.ID == id {
			return true
		}
	}
	return false
}

func (s *Site) owners(r *http.Request) ([]models.User, error) {
	return s.store.Users.Query(r.Context()).OrderBy(models.Users.Email.Asc()).Find()
}

func (s *Site) handleRecipeList(w http.ResponseWriter, r *http.Request) {
	n := pageNumber(r)
	query := s.store.Recipes.Query(r.Context()).OrderBy(models.Recipes.ID.Desc())
	recipes, err := paginate(query, n).Find()
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	p := s.newPage(r, "Select recipe to change")
	recipes, p.Pages = pageRows(r, recipes, n)

	emails := map[int64]string{}
	if len(recipes) > 0 {
		ids := make([]int64, 0, len(recipes))
		for _, rc := range recipes {
			if _, seen := emails[rc.UserID]; !seen {
				emails[rc.UserID] = ""
				ids = append(ids, rc.UserID)
			}
		}
		owners, err := s.store.Users.Query(r.Context()).Where(models.Users.ID.In(ids...)).Find()
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		for _, u := range owners {
			emails[u.ID] = u.Email
		}
	}

	for _, rc := range recipes {
		p.Recipes = append(p.Recipes, recipeRow{
			ID:    rc.ID,
			Title: rc.Title,
			Owner: emails[rc.UserID],
			Price: rc.Price.StringFixed(2),
		})
	}
	s.render(w, r, http.StatusOK, "recipe_list", p)
}

func (s *Site) handleRecipeAddForm(w http.ResponseWriter, r *http.Request) {
	owners, err := s.owners(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	p := s.newPage(r, "Add recipe")
	p.Adding = true
	p.Owners = owners
	s.render(w, r, http.StatusOK, "recipe_form", p)
}

func (s *Site) handleRecipeAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	owners, err := s.owners(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	p := s.newPage(r, "Add recipe")
	p.Adding = true
	p.Owners = owners

	var rc models.Recipe
	readRecipeForm(r, &rc, owners, p.Form, p.Errors)
	if len(p.Errors) > 0 {
		s.render(w, r, http.StatusOK, "recipe_form", p)
		return
	}

	if err := s.store.Recipes.Create(r.Context(), &rc); err != nil {
		s.serverError(w, r, err)
		return
	}

	logger.Admin().WithField("recipe_id", rc.ID).Info("added recipe %s", rc.Title)
	http.Redirect(w, r, s.prefix+"/recipes/", http.StatusFound)
}

func (s *Site) loadRecipe(w http.ResponseWriter, r *http.Request) (*models.Recipe, bool) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}

	rc, err := s.store.Recipes.FindByID(r.Context(), id)
	if err != nil {
		if orm.IsNotFound(err) {
			http.NotFound(w, r)
		} else {
			s.serverError(w, r, err)
		}
		return nil, false
	}
	return rc, true
}

func (s *Site) handleRecipeChangeForm(w http.ResponseWriter, r *http.Request) {
	rc, ok := s.loadRecipe(w, r)
	if !ok {
		return
	}
	owners, err := s.owners(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	p := s.newPage(r, "Change recipe")
	p.Target = rc
	p.Owners = owners
	p.Form = recipeForm(rc)
	s.render(w, r, http.StatusOK, "recipe_form", p)
}

func (s *Site) handleRecipeChange(w http.ResponseWriter, r *http.Request) {
	rc, ok := s.loadRecipe(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	owners, err := s.owners(r)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	p := s.newPage(r, "Change recipe")
	p.Target = rc
	p.Owners = owners

	updated := *rc
	readRecipeForm(r, &updated, owners, p.Form, p.Errors)
	if len(p.Errors) > 0 {
		s.render(w, r, http.StatusOK, "recipe_form", p)
		return
	}

	if err := s.store.Recipes.Update(r.Context(), &updated); err != nil {
		s.serverError(w, r, err)
		return
	}

	logger.Admin().WithField("recipe_id", updated.ID).Info("changed recipe %s", updated.Title)
	http.Redirect(w, r, s.prefix+"/recipes/", http.StatusFound)
}

func (s *Site) handleRecipeDeleteForm(w http.ResponseWriter, r *http.Request) {
	rc, ok := s.loadRecipe(w, r)
	if !ok {
		return
	}

	p := s.newPage(r, "Are you sure?")
	p.Kind = "recipe"
	p.Target = rc
	p.Back = s.prefix + "/recipes/" + strconv.FormatInt(rc.ID, 10) + "/change/"
	s.render(w, r, http.StatusOK, "delete", p)
}

func (s *Site) handleRecipeDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if err := s.store.Recipes.Delete(r.Context(), id); err != nil {
		if orm.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}

	logger.Admin().WithField("recipe_id", id).Info("deleted recipe")
	http.Redirect(w, r, s.prefix+"/recipes/", http.StatusFound)
}
