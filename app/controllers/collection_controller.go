package controllers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/eduprompt/eduprompt/app/models"
	"github.com/eduprompt/eduprompt/app/repository"
	"github.com/eduprompt/eduprompt/internal/pkg/entitlements"
	"github.com/eduprompt/eduprompt/internal/pkg/usercontext"
)

// HandleUserCollections lists the viewer's collections.
func HandleUserCollections(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	collections, err := repository.GetGlobalFactory().GetCollectionRepository().GetByUserID(userCtx.UserID)
	if err != nil {
		flash.WithError(c, fiber.Map{"message": "Collections could not be loaded"})
		return c.Redirect("/")
	}

	return c.Render("collection/list", fiber.Map{
		"Title":       "My collections",
		"Flash":       flash.Get(c),
		"CsrfToken":   csrfToken(c),
		"Collections": collections,
	}, "layouts/main")
}

// HandleCollectionNew renders the creation form and handles its submission,
// enforcing the per-plan collection quota.
func HandleCollectionNew(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	if c.Method() == fiber.MethodPost {
		repo := repository.GetGlobalFactory().GetCollectionRepository()

		limits := effectiveLimits(userCtx)
		count, err := repo.CountByUserID(userCtx.UserID)
		if err == nil && !entitlements.WithinQuota(limits.CollectionQuota, count) {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Collection limit reached. Upgrade for more."}).Redirect("/pricing")
		}

		collection := models.Collection{
			UserID:      userCtx.UserID,
			Name:        strings.TrimSpace(c.FormValue("name")),
			Description: strings.TrimSpace(c.FormValue("description")),
		}
		if err := collection.Validate(); err != nil {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Please check the collection name"}).Redirect("/collections/new")
		}
		if err := repo.Create(&collection); err != nil {
			return flash.WithError(c, fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}).Redirect("/collections/new")
		}

		return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Collection created"}).Redirect("/collections")
	}

	return c.Render("collection/new", fiber.Map{
		"Title":     "New collection",
		"Flash":     flash.Get(c),
		"CsrfToken": csrfToken(c),
	}, "layouts/main")
}

// HandleCollectionView shows a collection with its prompts.
func HandleCollectionView(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return collectionNotFound(c)
	}

	collection, err := repository.GetGlobalFactory().GetCollectionRepository().GetByID(uint(id))
	if err != nil {
		return collectionNotFound(c)
	}
	if collection.UserID != userCtx.UserID && !collection.IsPublic {
		return collectionNotFound(c)
	}

	return c.Render("collection/view", fiber.Map{
		"Title":      collection.Name,
		"Flash":      flash.Get(c),
		"CsrfToken":  csrfToken(c),
		"Collection": collection,
		"IsOwner":    collection.UserID == userCtx.UserID,
	}, "layouts/main")
}

// HandleCollectionTogglePublic flips the public flag on an owned collection.
func HandleCollectionTogglePublic(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return collectionNotFound(c)
	}

	repo := repository.GetGlobalFactory().GetCollectionRepository()
	collection, err := repo.GetByID(uint(id))
	if err != nil || collection.UserID != userCtx.UserID {
		return collectionNotFound(c)
	}

	collection.IsPublic = !collection.IsPublic
	if err := repo.Update(collection); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Collection could not be updated"}).Redirect("/collections")
	}

	msg := "Collection is now private"
	if collection.IsPublic {
		msg = "Collection is now public"
	}
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": msg}).Redirect(fmt.Sprintf("/collection/%d", collection.ID))
}

// HandleCollectionDelete removes an owned collection; its prompts survive as
// uncategorized.
func HandleCollectionDelete(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return collectionNotFound(c)
	}

	repo := repository.GetGlobalFactory().GetCollectionRepository()
	collection, err := repo.GetByID(uint(id))
	if err != nil || collection.UserID != userCtx.UserID {
		return collectionNotFound(c)
	}

	if err := repo.Delete(collection.ID); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Collection could not be deleted"}).Redirect("/collections")
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Collection deleted"}).Redirect("/collections")
}

func collectionNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render("errors/404", fiber.Map{
		"Title": "Not found",
	}, "layouts/main")
}
