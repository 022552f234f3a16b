package controllers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/eduprompt/eduprompt/app/models"
	"github.com/eduprompt/eduprompt/app/repository"
	"github.com/eduprompt/eduprompt/internal/pkg/database"
	"github.com/eduprompt/eduprompt/internal/pkg/entitlements"
	"github.com/eduprompt/eduprompt/internal/pkg/metrics/counter"
	"github.com/eduprompt/eduprompt/internal/pkg/shortener"
	"github.com/eduprompt/eduprompt/internal/pkg/usercontext"
)

// HandleUserPrompts lists the viewer's own prompts.
func HandleUserPrompts(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	prompts, err := repository.GetGlobalFactory().GetPromptRepository().GetByUserID(userCtx.UserID, 0, 100)
	if err != nil {
		flash.WithError(c, fiber.Map{"message": "Prompts could not be loaded"})
		return c.Redirect("/")
	}

	return c.Render("prompt/list", fiber.Map{
		"Title":     "My prompts",
		"Flash":     flash.Get(c),
		"CsrfToken": csrfToken(c),
		"Prompts":   prompts,
	}, "layouts/main")
}

// HandlePromptNew renders the creation form and handles its submission.
func HandlePromptNew(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	if c.Method() == fiber.MethodPost {
		prompt := models.Prompt{
			UserID:     userCtx.UserID,
			Title:      strings.TrimSpace(c.FormValue("title")),
			Body:       c.FormValue("body"),
			Subject:    strings.TrimSpace(c.FormValue("subject")),
			GradeLevel: strings.TrimSpace(c.FormValue("grade_level")),
			Visibility: normalizeVisibility(c.FormValue("visibility")),
		}
		if collectionID := parseUintForm(c, "collection_id"); collectionID != 0 {
			if owned := collectionOwnedBy(collectionID, userCtx.UserID); owned {
				prompt.CollectionID = &collectionID
			}
		}

		if err := prompt.Validate(); err != nil {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Please check title and body"}).Redirect("/prompts/new")
		}

		if err := repository.GetGlobalFactory().GetPromptRepository().Create(&prompt); err != nil {
			return flash.WithError(c, fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}).Redirect("/prompts/new")
		}

		return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Prompt created"}).Redirect("/prompts")
	}

	collections, _ := repository.GetGlobalFactory().GetCollectionRepository().GetByUserID(userCtx.UserID)

	return c.Render("prompt/new", fiber.Map{
		"Title":       "New prompt",
		"Flash":       flash.Get(c),
		"CsrfToken":   csrfToken(c),
		"Collections": collections,
	}, "layouts/main")
}

// HandlePromptView shows a single prompt if the viewer may see it.
func HandlePromptView(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	prompt, err := repository.GetGlobalFactory().GetPromptRepository().GetByUUID(c.Params("uuid"))
	if err != nil {
		return promptNotFound(c)
	}
	if !canViewPrompt(prompt, userCtx) {
		return promptNotFound(c)
	}

	return c.Render("prompt/view", fiber.Map{
		"Title":     prompt.Title,
		"Flash":     flash.Get(c),
		"CsrfToken": csrfToken(c),
		"Prompt":    prompt,
		"IsOwner":   prompt.UserID == userCtx.UserID,
	}, "layouts/main")
}

// shareLinkResolver is the slice of PromptRepository the share-link
// lookup needs.
type shareLinkResolver interface {
	GetByID(id uint) (*models.Prompt, error)
	GetByShareLink(shareLink string) (*models.Prompt, error)
}

// resolveShareLink finds the prompt behind a short link. Share links are
// base62-encoded prompt ids, so decoding gives a primary-key lookup; the
// stored link must still match the parameter. The fallback query covers
// the temp- links of prompts whose id was not assigned yet when the link
// was written.
func resolveShareLink(repo shareLinkResolver, link string) (*models.Prompt, error) {
	if id := shortener.DecodeID(link); id != 0 {
		if p, err := repo.GetByID(id); err == nil && p.ShareLink == link {
			return p, nil
		}
	}
	return repo.GetByShareLink(link)
}

// HandlePromptShareLink resolves a short link to its prompt.
func HandlePromptShareLink(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	prompt, err := resolveShareLink(repository.GetGlobalFactory().GetPromptRepository(), c.Params("sharelink"))
	if err != nil {
		return promptNotFound(c)
	}
	if !canViewPrompt(prompt, userCtx) {
		return promptNotFound(c)
	}

	return c.Redirect("/prompt/"+prompt.UUID, fiber.StatusSeeOther)
}

// HandlePromptEdit updates a prompt owned by the viewer.
func HandlePromptEdit(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetPromptRepository()
	prompt, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil || prompt.UserID != userCtx.UserID {
		return promptNotFound(c)
	}

	if c.Method() == fiber.MethodPost {
		prompt.Title = strings.TrimSpace(c.FormValue("title", prompt.Title))
		prompt.Body = c.FormValue("body", prompt.Body)
		prompt.Subject = strings.TrimSpace(c.FormValue("subject", prompt.Subject))
		prompt.GradeLevel = strings.TrimSpace(c.FormValue("grade_level", prompt.GradeLevel))
		if v := c.FormValue("visibility"); v != "" {
			prompt.Visibility = normalizeVisibility(v)
		}

		if err := prompt.Validate(); err != nil {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Please check title and body"}).Redirect("/prompt/" + prompt.UUID + "/edit")
		}
		if err := repo.Update(prompt); err != nil {
			return flash.WithError(c, fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}).Redirect("/prompt/" + prompt.UUID + "/edit")
		}

		return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Prompt updated"}).Redirect("/prompt/" + prompt.UUID)
	}

	return c.Render("prompt/edit", fiber.Map{
		"Title":     "Edit prompt",
		"Flash":     flash.Get(c),
		"CsrfToken": csrfToken(c),
		"Prompt":    prompt,
	}, "layouts/main")
}

// HandlePromptDelete removes a prompt owned by the viewer.
func HandlePromptDelete(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetPromptRepository()
	prompt, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil || prompt.UserID != userCtx.UserID {
		return promptNotFound(c)
	}

	if err := repo.Delete(prompt.ID); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Prompt could not be deleted"}).Redirect("/prompts")
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Prompt deleted"}).Redirect("/prompts")
}

// HandlePromptExecute records one prompt run against the viewer's quota.
func HandlePromptExecute(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	prompt, err := repository.GetGlobalFactory().GetPromptRepository().GetByUUID(c.Params("uuid"))
	if err != nil || !canViewPrompt(prompt, userCtx) {
		return promptNotFound(c)
	}

	settings, err := models.GetOrCreateUserSettings(database.GetDB(), userCtx.UserID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Settings could not be loaded"}).Redirect("/prompt/" + prompt.UUID)
	}

	limits := effectiveLimits(userCtx)
	if !entitlements.WithinQuota(limits.ExecutionQuota, settings.ExecutionsUsed) {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Monthly execution quota reached. Upgrade to keep going."}).Redirect("/pricing")
	}

	// Counters are batched in Redis and flushed to the database periodically.
	_ = counter.AddPromptExecution(prompt.ID)
	_ = counter.AddUserExecution(userCtx.UserID)

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Prompt executed"}).Redirect("/prompt/" + prompt.UUID)
}

// HandlePromptUnlock copies a shared prompt into the viewer's own library.
func HandlePromptUnlock(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetPromptRepository()
	prompt, err := repo.GetByUUID(c.Params("uuid"))
	if err != nil || !canViewPrompt(prompt, userCtx) {
		return promptNotFound(c)
	}
	if prompt.UserID == userCtx.UserID {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "You already own this prompt"}).Redirect("/prompt/" + prompt.UUID)
	}

	settings, err := models.GetOrCreateUserSettings(database.GetDB(), userCtx.UserID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Settings could not be loaded"}).Redirect("/prompt/" + prompt.UUID)
	}

	limits := effectiveLimits(userCtx)
	if !entitlements.WithinQuota(limits.UnlockQuota, settings.UnlocksUsed) {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Monthly unlock quota reached. Upgrade to keep going."}).Redirect("/pricing")
	}

	clone := models.Prompt{
		UserID:     userCtx.UserID,
		Title:      prompt.Title,
		Body:       prompt.Body,
		Subject:    prompt.Subject,
		GradeLevel: prompt.GradeLevel,
		Visibility: models.PromptVisibilityPrivate,
	}
	if err := repo.Create(&clone); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Prompt could not be unlocked"}).Redirect("/prompt/" + prompt.UUID)
	}

	_ = counter.AddPromptUnlock(prompt.ID)
	_ = counter.AddUserUnlock(userCtx.UserID)

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Prompt added to your library"}).Redirect("/prompt/" + clone.UUID)
}

// HandleExplore lists public prompts, optionally filtered by search query.
func HandleExplore(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetPromptRepository()

	var (
		prompts []models.Prompt
		err     error
	)
	query := strings.TrimSpace(c.Query("q"))
	if query != "" {
		prompts, err = repo.Search(query)
	} else {
		prompts, err = repo.GetPublic(0, 50)
	}
	if err != nil {
		prompts = nil
	}

	return c.Render("prompt/explore", fiber.Map{
		"Title":   "Explore prompts",
		"Flash":   flash.Get(c),
		"Query":   query,
		"Prompts": prompts,
	}, "layouts/main")
}

// HandleSchoolLibrary lists prompts shared school-wide within the viewer's school.
func HandleSchoolLibrary(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if userCtx.SchoolID == 0 {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "You are not a member of a school"}).Redirect("/")
	}

	prompts, err := repository.GetGlobalFactory().GetPromptRepository().GetVisibleToSchool(userCtx.SchoolID, 0, 100)
	if err != nil {
		prompts = nil
	}

	return c.Render("prompt/school_library", fiber.Map{
		"Title":   "School library",
		"Flash":   flash.Get(c),
		"Prompts": prompts,
	}, "layouts/main")
}

func canViewPrompt(prompt *models.Prompt, userCtx usercontext.UserContext) bool {
	switch prompt.Visibility {
	case models.PromptVisibilityPublic:
		return true
	case models.PromptVisibilitySchool:
		if prompt.UserID == userCtx.UserID {
			return true
		}
		if userCtx.SchoolID == 0 {
			return false
		}
		owner, err := repository.GetGlobalFactory().GetUserRepository().GetByID(prompt.UserID)
		if err != nil || owner.SchoolID == nil {
			return false
		}
		return *owner.SchoolID == userCtx.SchoolID
	default:
		return prompt.UserID == userCtx.UserID
	}
}

// effectiveLimits resolves the viewer's quota set, honoring an active
// school-wide subscription.
func effectiveLimits(userCtx usercontext.UserContext) entitlements.Limits {
	if userCtx.HasSchoolSubscription {
		return entitlements.PlanLimits(entitlements.PlanSchool)
	}
	return entitlements.PlanLimits(entitlements.NormalizePlan(userCtx.Plan))
}

func normalizeVisibility(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case models.PromptVisibilityPublic:
		return models.PromptVisibilityPublic
	case models.PromptVisibilitySchool:
		return models.PromptVisibilitySchool
	default:
		return models.PromptVisibilityPrivate
	}
}

func parseUintForm(c *fiber.Ctx, field string) uint {
	raw := strings.TrimSpace(c.FormValue(field))
	if raw == "" {
		return 0
	}
	var id uint
	if _, err := fmt.Sscanf(raw, "%d", &id); err != nil {
		return 0
	}
	return id
}

func collectionOwnedBy(collectionID, userID uint) bool {
	collection, err := repository.GetGlobalFactory().GetCollectionRepository().GetByID(collectionID)
	if err != nil {
		return false
	}
	return collection.UserID == userID
}

func promptNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render("errors/404", fiber.Map{
		"Title": "Not found",
	}, "layouts/main")
}
