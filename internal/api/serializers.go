package api

import (
	"github.com/eleven-am/recipe-api/internal/models"
	"github.com/shopspring/decimal"
)

// writeMode selects which fields a write must carry
type writeMode int

const (
	modeCreate  writeMode = iota // POST
	modeUpdate                   // PUT: required fields must be present
	modePartial                  // PATCH: only supplied fields are touched
)

func modeFor(method string) writeMode {
	switch method {
	case "PATCH":
		return modePartial
	case "PUT":
		return modeUpdate
	default:
		return modeCreate
	}
}

type fieldSpec struct {
	key      string // payload key
	field    string // Go field on the input struct
	required bool
}

// checkPresence reports missing required fields and returns the Go names of
// the supplied fields that parsed cleanly
func checkPresence(p payload, specs []fieldSpec, mode writeMode, errs FieldErrors) []string {
	var present []string
	for _, f := range specs {
		if p.has(f.key) {
			if !errs.Has(f.key) {
				present = append(present, f.field)
			}
			continue
		}
		if f.required && mode != modePartial {
			errs.Add(f.key, msgRequired)
		}
	}
	return present
}

// User

type userInput struct {
	Email    *string `json:"email" validate:"notblank,email,max=255"`
	Password *string `json:"password" validate:"notblank,min=5,max=128,max_bytes=72"`
	Name     *string `json:"name" validate:"max=255"`
}

var userFields = []fieldSpec{
	{key: "email", field: "Email", required: true},
	{key: "password", field: "Password", required: true},
	{key: "name", field: "Name"},
}

func parseUserInput(p payload, mode writeMode) (*userInput, FieldErrors) {
	errs := FieldErrors{}
	in := &userInput{
		Email:    p.str("email", true, errs),
		Password: p.str("password", true, errs),
		Name:     p.str("name", true, errs),
	}
	present := checkPresence(p, userFields, mode, errs)
	validateFields(in, present, errs)
	return in, errs
}

type userResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func renderUser(u *models.User) userResponse {
	return userResponse{Email: u.Email, Name: u.Name}
}

// Token

type tokenInput struct {
	Email    *string `json:"email" validate:"notblank"`
	Password *string `json:"password"`
}

var tokenFields = []fieldSpec{
	{key: "email", field: "Email", required: true},
	{key: "password", field: "Password", required: true},
}

func parseTokenInput(p payload) (*tokenInput, FieldErrors) {
	errs := FieldErrors{}
	in := &tokenInput{
		Email:    p.str("email", true, errs),
		Password: p.str("password", false, errs),
	}
	present := checkPresence(p, tokenFields, modeCreate, errs)
	validateFields(in, present, errs)
	return in, errs
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Recipe

type recipeInput struct {
	Title       *string `json:"title" validate:"notblank,max=255"`
	Description *string `json:"description"`
	TimeMinutes *int    `json:"time_minutes" validate:"min=0,max=2147483647"`
	Price       *string `json:"price" validate:"max_digits=5,decimal_places=2,whole_digits=3,decimal_gte=0"`
	Link        *string `json:"link" validate:"max=255"`
}

var recipeFields = []fieldSpec{
	{key: "title", field: "Title", required: true},
	{key: "description", field: "Description"},
	{key: "time_minutes", field: "TimeMinutes", required: true},
	{key: "price", field: "Price", required: true},
	{key: "link", field: "Link"},
}

// ownerKey is the read-only owner field; clients may never send it
const ownerKey = "user"

func parseRecipeInput(p payload, mode writeMode) (*recipeInput, FieldErrors) {
	errs := FieldErrors{}
	if p.has(ownerKey) {
		errs.Add(ownerKey, msgReadOnlyOwner)
	}

	in := &recipeInput{
		Title:       p.str("title", true, errs),
		Description: p.str("description", false, errs),
		TimeMinutes: p.integer("time_minutes", errs),
		Price:       p.number("price", errs),
		Link:        p.str("link", true, errs),
	}
	present := checkPresence(p, recipeFields, mode, errs)
	validateFields(in, present, errs)
	return in, errs
}

// apply copies the supplied fields onto the recipe. A full update resets
// omitted optional fields to their defaults.
func (in *recipeInput) apply(r *models.Recipe, mode writeMode) {
	if mode == modeUpdate {
		r.Description = ""
		r.Link = ""
	}
	if in.Title != nil {
		r.Title = *in.Title
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if in.TimeMinutes != nil {
		r.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		r.Price = decimal.RequireFromString(*in.Price)
	}
	if in.Link != nil {
		r.Link = *in.Link
	}
}

type recipeSummary struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	TimeMinutes int    `json:"time_minutes"`
	Price       string `json:"price"`
	Link        string `json:"link"`
}

type recipeDetail struct {
	recipeSummary
	Description string `json:"description"`
}

func renderRecipe(r *models.Recipe) recipeSummary {
	return recipeSummary{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
	}
}

func renderRecipeDetail(r *models.Recipe) recipeDetail {
	return recipeDetail{recipeSummary: renderRecipe(r), Description: r.Description}
}

func renderRecipes(recipes []models.Recipe) []recipeSummary {
	out := make([]recipeSummary, 0, len(recipes))
	for i := range recipes {
		out = append(out, renderRecipe(&recipes[i]))
	}
	return out
}
