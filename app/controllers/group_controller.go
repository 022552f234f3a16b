package controllers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/eduprompt/eduprompt/app/models"
	"github.com/eduprompt/eduprompt/app/repository"
	"github.com/eduprompt/eduprompt/internal/pkg/env"
	"github.com/eduprompt/eduprompt/internal/pkg/invite"
	"github.com/eduprompt/eduprompt/internal/pkg/usercontext"
)

// HandleUserGroups lists groups the viewer belongs to.
func HandleUserGroups(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	groups, err := repository.GetGlobalFactory().GetGroupRepository().GetByMemberID(userCtx.UserID)
	if err != nil {
		flash.WithError(c, fiber.Map{"message": "Groups could not be loaded"})
		return c.Redirect("/")
	}

	return c.Render("group/list", fiber.Map{
		"Title":     "My groups",
		"Flash":     flash.Get(c),
		"CsrfToken": csrfToken(c),
		"Groups":    groups,
	}, "layouts/main")
}

// HandleGroupNew renders the creation form and handles its submission.
func HandleGroupNew(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	if c.Method() == fiber.MethodPost {
		group := models.Group{
			OwnerID:     userCtx.UserID,
			Name:        strings.TrimSpace(c.FormValue("name")),
			Description: strings.TrimSpace(c.FormValue("description")),
		}
		if userCtx.SchoolID != 0 {
			schoolID := userCtx.SchoolID
			group.SchoolID = &schoolID
		}

		if err := group.Validate(); err != nil {
			return flash.WithError(c, fiber.Map{"type": "error", "message": "Please check the group name"}).Redirect("/groups/new")
		}
		if err := repository.GetGlobalFactory().GetGroupRepository().Create(&group); err != nil {
			return flash.WithError(c, fiber.Map{"type": "error", "message": fmt.Sprintf("something went wrong: %s", err)}).Redirect("/groups/new")
		}

		return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Group created"}).Redirect(fmt.Sprintf("/group/%d", group.ID))
	}

	return c.Render("group/new", fiber.Map{
		"Title":     "New group",
		"Flash":     flash.Get(c),
		"CsrfToken": csrfToken(c),
	}, "layouts/main")
}

// HandleGroupView shows a group with its members. Owners additionally get a
// fresh invite link.
func HandleGroupView(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return groupNotFound(c)
	}

	repo := repository.GetGlobalFactory().GetGroupRepository()
	group, err := repo.GetByID(uint(id))
	if err != nil {
		return groupNotFound(c)
	}

	isMember, err := repo.IsMember(group.ID, userCtx.UserID)
	if err != nil || !isMember {
		return groupNotFound(c)
	}

	inviteLink := ""
	if group.OwnerID == userCtx.UserID {
		base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
		inviteLink = fmt.Sprintf("%s/groups/join?token=%s", base, invite.Generate(group.ID, invite.DefaultTTL))
	}

	return c.Render("group/view", fiber.Map{
		"Title":      group.Name,
		"Flash":      flash.Get(c),
		"CsrfToken":  csrfToken(c),
		"Group":      group,
		"IsOwner":    group.OwnerID == userCtx.UserID,
		"InviteLink": inviteLink,
	}, "layouts/main")
}

// HandleGroupJoin joins the viewer into a group via a signed invite link.
func HandleGroupJoin(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	token, err := invite.Parse(c.Query("token"))
	if err != nil {
		msg := "Invalid invite link"
		if err == invite.ErrExpired {
			msg = "This invite link has expired"
		}
		return flash.WithError(c, fiber.Map{"type": "error", "message": msg}).Redirect("/groups")
	}

	repo := repository.GetGlobalFactory().GetGroupRepository()
	group, err := repo.GetByID(token.GroupID)
	if err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "This group no longer exists"}).Redirect("/groups")
	}

	if err := repo.AddMember(group.ID, userCtx.UserID, models.GroupRoleMember); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Joining failed"}).Redirect("/groups")
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Welcome to " + group.Name}).Redirect(fmt.Sprintf("/group/%d", group.ID))
}

// HandleGroupLeave removes the viewer from a group. Owners cannot leave their
// own group.
func HandleGroupLeave(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return groupNotFound(c)
	}

	repo := repository.GetGlobalFactory().GetGroupRepository()
	group, err := repo.GetByID(uint(id))
	if err != nil {
		return groupNotFound(c)
	}
	if group.OwnerID == userCtx.UserID {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Owners cannot leave their own group. Delete it instead."}).Redirect(fmt.Sprintf("/group/%d", group.ID))
	}

	if err := repo.RemoveMember(group.ID, userCtx.UserID); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Leaving failed"}).Redirect("/groups")
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "You left " + group.Name}).Redirect("/groups")
}

// HandleGroupDelete removes a group the viewer owns.
func HandleGroupDelete(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return groupNotFound(c)
	}

	repo := repository.GetGlobalFactory().GetGroupRepository()
	group, err := repo.GetByID(uint(id))
	if err != nil || group.OwnerID != userCtx.UserID {
		return groupNotFound(c)
	}

	if err := repo.Delete(group.ID); err != nil {
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Group could not be deleted"}).Redirect("/groups")
	}

	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "Group deleted"}).Redirect("/groups")
}

func groupNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render("errors/404", fiber.Map{
		"Title": "Not found",
	}, "layouts/main")
}
